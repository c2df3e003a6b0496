package app

import (
	"sort"

	"quiz-room-service/internal/domain"
)

// BuildLeaderboard tallies exact-text matches against each question's correct option.
// Answers to unknown questions, or to questions whose correct index is out of range, are
// skipped. Every student in roster gets an entry (zero scores included); ties keep roster order.
func BuildLeaderboard(questions []domain.Question, answers []domain.Answer, roster []string) []domain.LeaderboardEntry {
	correct := make(map[domain.QuestionID]string, len(questions))
	for _, q := range questions {
		if text, ok := q.CorrectOption(); ok {
			correct[q.ID] = text
		}
	}

	scores := make(map[string]int, len(roster))
	entries := make([]domain.LeaderboardEntry, 0, len(roster))
	position := make(map[string]int, len(roster))
	add := func(studentID string) {
		if _, ok := position[studentID]; ok {
			return
		}
		position[studentID] = len(entries)
		entries = append(entries, domain.LeaderboardEntry{StudentID: studentID})
	}
	for _, studentID := range roster {
		add(studentID)
	}

	for _, ans := range answers {
		add(ans.StudentID)
		want, ok := correct[ans.QuestionID]
		if !ok {
			continue
		}
		if ans.Answer == want {
			scores[ans.StudentID]++
		}
	}

	for i := range entries {
		entries[i].Score = scores[entries[i].StudentID]
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}
