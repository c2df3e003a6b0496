package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"quiz-room-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
    question_id INTEGER PRIMARY KEY AUTOINCREMENT,
    question_text TEXT NOT NULL,
    option1 TEXT NOT NULL,
    option2 TEXT NOT NULL,
    option3 TEXT NOT NULL,
    option4 TEXT NOT NULL,
    correct_index INTEGER NOT NULL,
    subject TEXT NOT NULL,
    chapter TEXT NOT NULL,
    hint TEXT,
    explanation TEXT
)`

// QuestionBank reads questions from an embedded SQLite file. Stored correct_index values are
// 1-based.
type QuestionBank struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the questions table exists.
func Open(ctx context.Context, path string) (*QuestionBank, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY on the file
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &QuestionBank{db: db}, nil
}

func (b *QuestionBank) Close() error {
	return b.db.Close()
}

func (b *QuestionBank) Subjects(ctx context.Context) ([]string, error) {
	return b.strings(ctx, `SELECT DISTINCT subject FROM questions ORDER BY subject`)
}

func (b *QuestionBank) Chapters(ctx context.Context, subject string) ([]string, error) {
	return b.strings(ctx, `SELECT DISTINCT chapter FROM questions WHERE subject = ? ORDER BY chapter`, subject)
}

func (b *QuestionBank) Questions(ctx context.Context, subject, chapter string) ([]domain.Question, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT question_id, question_text, option1, option2, option3, option4, correct_index, subject, chapter
		FROM questions WHERE subject = ? AND chapter = ? ORDER BY question_id`, subject, chapter)
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

// Insert stores questions in a single transaction. CorrectIndex is taken as 0-based.
func (b *QuestionBank) Insert(ctx context.Context, questions []domain.Question) (int, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (question_text, option1, option2, option3, option4, correct_index, subject, chapter)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, q := range questions {
		if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
			return 0, fmt.Errorf("question %d: correct_index %d out of range", i+1, q.CorrectIndex)
		}
		if _, err := stmt.ExecContext(ctx, q.Text, q.Option1, q.Option2, q.Option3, q.Option4, q.CorrectIndex+1, q.Subject, q.Chapter); err != nil {
			return 0, fmt.Errorf("insert question %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(questions), nil
}

func (b *QuestionBank) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
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
