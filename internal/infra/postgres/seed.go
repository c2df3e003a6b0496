package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-room-service/internal/domain"
)

// QuestionRow is the bun model of the questions table.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID           int64  `bun:"question_id,pk,autoincrement"`
	Text         string `bun:"question_text,notnull"`
	Option1      string `bun:"option1,notnull"`
	Option2      string `bun:"option2,notnull"`
	Option3      string `bun:"option3,notnull"`
	Option4      string `bun:"option4,notnull"`
	CorrectIndex int    `bun:"correct_index,notnull"`
	Subject      string `bun:"subject,notnull"`
	Chapter      string `bun:"chapter,notnull"`
	Hint         string `bun:"hint,nullzero"`
	Explanation  string `bun:"explanation,nullzero"`
}

// SeedQuestion is one entry of a seed file. CorrectIndex is 0-based like the rest of the domain.
type SeedQuestion struct {
	Text         string `yaml:"question_text"`
	Option1      string `yaml:"option1"`
	Option2      string `yaml:"option2"`
	Option3      string `yaml:"option3"`
	Option4      string `yaml:"option4"`
	CorrectIndex int    `yaml:"correct_index"`
	Subject      string `yaml:"subject"`
	Chapter      string `yaml:"chapter"`
	Hint         string `yaml:"hint"`
	Explanation  string `yaml:"explanation"`
}

// InsertQuestions stores seed questions in one bulk insert and returns how many were written.
func InsertQuestions(ctx context.Context, db bun.IDB, questions []SeedQuestion) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := make([]QuestionRow, 0, len(questions))
	for i, q := range questions {
		if q.Subject == "" || q.Chapter == "" {
			return 0, fmt.Errorf("question %d: subject and chapter are required", i+1)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
			return 0, fmt.Errorf("question %d: correct_index %d out of range", i+1, q.CorrectIndex)
		}
		rows = append(rows, QuestionRow{
			Text:         q.Text,
			Option1:      q.Option1,
			Option2:      q.Option2,
			Option3:      q.Option3,
			Option4:      q.Option4,
			CorrectIndex: q.CorrectIndex + 1,
			Subject:      q.Subject,
			Chapter:      q.Chapter,
			Hint:         q.Hint,
			Explanation:  q.Explanation,
		})
	}
	if _, err := db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	return len(rows), nil
}

// ToDomain converts a seed entry into a domain question without an id.
func (q SeedQuestion) ToDomain() domain.Question {
	return domain.Question{
		Text:         q.Text,
		Option1:      q.Option1,
		Option2:      q.Option2,
		Option3:      q.Option3,
		Option4:      q.Option4,
		CorrectIndex: q.CorrectIndex,
		Subject:      q.Subject,
		Chapter:      q.Chapter,
	}
}
