package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-room-service/internal/domain"
)

// QuestionBank reads the questions table through a pgx pool. Stored correct_index values are
// 1-based and converted to the domain's 0-based convention here.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) Subjects(ctx context.Context) ([]string, error) {
	return b.strings(ctx, `SELECT DISTINCT subject FROM questions ORDER BY subject`)
}

func (b *QuestionBank) Chapters(ctx context.Context, subject string) ([]string, error) {
	return b.strings(ctx, `SELECT DISTINCT chapter FROM questions WHERE subject=$1 ORDER BY chapter`, subject)
}

func (b *QuestionBank) Questions(ctx context.Context, subject, chapter string) ([]domain.Question, error) {
	rows, err := b.pool.Query(ctx, `
		SELECT question_id, question_text, option1, option2, option3, option4, correct_index, subject, chapter
		FROM questions WHERE subject=$1 AND chapter=$2 ORDER BY question_id`, subject, chapter)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var (
			id      int64
			correct int
			q       domain.Question
		)
		if err := rows.Scan(&id, &q.Text, &q.Option1, &q.Option2, &q.Option3, &q.Option4, &correct, &q.Subject, &q.Chapter); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.ID = domain.QuestionIDFromInt(id)
		q.CorrectIndex = correct - 1
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrQuestionsNotFound
	}
	return out, nil
}

func (b *QuestionBank) strings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
