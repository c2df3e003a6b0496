package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"quiz-room-service/internal/config"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/postgres"
	"quiz-room-service/internal/infra/sqlite"
	"quiz-room-service/internal/logging"
)

type seedFile struct {
	Questions []postgres.SeedQuestion `yaml:"questions"`
}

// NewSeedCmd loads a YAML question file into the configured question bank.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions from a YAML file into the question bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Log.Level, cfg.Log.Format)
			questions, err := readSeedFile(file)
			if err != nil {
				return err
			}
			n, err := seedQuestions(cmd.Context(), cfg, logger, questions)
			if err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{"file": file, "questions": n}).Info("questions seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/questions.yaml", "YAML file with a top-level questions list")
	return cmd
}

func readSeedFile(path string) ([]postgres.SeedQuestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.Questions, nil
}

func seedQuestions(ctx context.Context, cfg config.Config, logger logrus.FieldLogger, questions []postgres.SeedQuestion) (int, error) {
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return 0, err
		}
		db := openBun(cfg.Postgres.URL)
		defer db.Close()
		return postgres.InsertQuestions(ctx, db, questions)
	case cfg.SQLite.Path != "":
		bank, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return 0, err
		}
		defer bank.Close()
		qs := make([]domain.Question, 0, len(questions))
		for _, q := range questions {
			qs = append(qs, q.ToDomain())
		}
		return bank.Insert(ctx, qs)
	default:
		return 0, fmt.Errorf("no question store configured (set postgres.url or sqlite.path)")
	}
}
