package app

import (
	"testing"

	"quiz-room-service/internal/domain"
)

func TestBuildLeaderboard(t *testing.T) {
	questions := []domain.Question{
		{ID: "1", Option1: "A", Option2: "B", Option3: "C", Option4: "D", CorrectIndex: 0},
		{ID: "2", Option1: "A", Option2: "B", Option3: "C", Option4: "D", CorrectIndex: 7},
	}
	answers := []domain.Answer{
		{StudentID: "y", QuestionID: "1", Answer: "B"},
		{StudentID: "x", QuestionID: "1", Answer: "A"},
		{StudentID: "x", QuestionID: "2", Answer: "A"},
		{StudentID: "z", QuestionID: "unknown", Answer: "A"},
	}

	got := BuildLeaderboard(questions, answers, []string{"w"})
	want := []domain.LeaderboardEntry{
		{StudentID: "x", Score: 1},
		{StudentID: "w", Score: 0},
		{StudentID: "y", Score: 0},
		{StudentID: "z", Score: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestBuildLeaderboardEmpty(t *testing.T) {
	got := BuildLeaderboard(nil, nil, nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil leaderboard, got %#v", got)
	}
}
