package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-room-service/internal/config"
)

func TestSeedIntoSQLiteAndServeFromCache(t *testing.T) {
	ctx := context.Background()
	questions, err := readSeedFile(filepath.Join("..", "..", "config", "questions.yaml"))
	require.NoError(t, err)
	require.Len(t, questions, 3)

	var cfg config.Config
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "quiz.db")
	logger := logrus.New()

	n, err := seedQuestions(ctx, cfg, logger, questions)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	bank, closeBank, err := openQuestionBank(ctx, cfg, nil, logger)
	require.NoError(t, err)
	defer closeBank()

	subjects, err := bank.Subjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"geography", "math", "science"}, subjects)

	qs, err := bank.Questions(ctx, "science", "astronomy")
	require.NoError(t, err)
	require.Len(t, qs, 1)
	correct, ok := qs[0].CorrectOption()
	assert.True(t, ok)
	assert.Equal(t, "Mars", correct)
}

func TestSeedWithoutStoreFails(t *testing.T) {
	_, err := seedQuestions(context.Background(), config.Config{}, logrus.New(), nil)
	assert.Error(t, err)
}

func TestDefaultQuestionBankIsSample(t *testing.T) {
	bank, closeBank, err := openQuestionBank(context.Background(), config.Config{}, nil, logrus.New())
	require.NoError(t, err)
	defer closeBank()

	chapters, err := bank.Chapters(context.Background(), "math")
	require.NoError(t, err)
	assert.Equal(t, []string{"arithmetic", "numbers"}, chapters)
}
