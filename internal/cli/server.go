package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/auth"
	"quiz-room-service/internal/config"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
	pgbank "quiz-room-service/internal/infra/postgres"
	redisinfra "quiz-room-service/internal/infra/redis"
	"quiz-room-service/internal/infra/sqlite"
	"quiz-room-service/internal/logging"
	"quiz-room-service/internal/metrics"
	transport "quiz-room-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8000"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}

	bank, closeBank, err := openQuestionBank(ctx, cfg, redisClient, logger)
	if err != nil {
		return err
	}
	defer closeBank()

	var rooms app.RoomRepository = memory.NewRoomStore()
	if redisClient != nil {
		rooms = redisinfra.NewRoomStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute), logger)
	}

	var tokens app.TokenIssuer
	if cfg.Auth.JoinSecret != "" {
		tokens = auth.NewJoinTokens(cfg.Auth.JoinSecret, config.TTLDuration(cfg.Auth.TokenTTL, 4*time.Hour))
	}

	recorder := metrics.NewRecorder()
	service := app.NewRoomService(rooms, memory.NewConnectionTable(), app.ServiceConfig{
		MaxParticipants: cfg.Room.MaxParticipants,
		JoinBaseURL:     cfg.Server.JoinBaseURL,
		Bank:            bank,
		Tokens:          tokens,
		Recorder:        recorder,
		Logger:          logger,
	})

	sweeper := app.NewSweeper(service,
		config.TTLDuration(cfg.Room.SweepInterval, time.Minute),
		config.TTLDuration(cfg.Room.IdleTTL, 30*time.Minute),
		logger)
	go sweeper.Run(ctx)

	router := transport.NewRouter(transport.RouterDeps{
		Lifecycle:   transport.NewLifecycleHandler(service, bank, logger),
		WS:          transport.NewWSHandler(service, cfg.Room.SendBuffer, logger),
		Metrics:     recorder.Handler(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Logger:      logger,
	})

	// No WriteTimeout: it would cut long-lived WebSocket connections.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", finalPort).Info("starting quiz room service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down server...")
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openQuestionBank picks Postgres, then SQLite, then the built-in sample set, and puts a cache
// (Redis when configured) in front of the database-backed ones.
func openQuestionBank(ctx context.Context, cfg config.Config, redisClient *redis.Client, logger logrus.FieldLogger) (app.QuestionBank, func(), error) {
	var (
		bank   app.QuestionBank
		closer = func() {}
	)
	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		bank, closer = pgbank.NewQuestionBank(pool), pool.Close
		logger.Info("question bank: postgres")
	case cfg.SQLite.Path != "":
		sq, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		bank, closer = sq, func() { _ = sq.Close() }
		logger.WithField("path", cfg.SQLite.Path).Info("question bank: sqlite")
	default:
		logger.Info("question bank: built-in sample")
		return memory.NewStaticQuestionBank(sampleQuestions()), closer, nil
	}

	ttl := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)
	if redisClient != nil {
		return redisinfra.NewCachedQuestionBank(redisClient, bank, ttl, logger), closer, nil
	}
	return memory.NewCachedQuestionBank(bank, ttl), closer, nil
}

// sampleQuestions backs /subjects and create_quiz_from_bank when no database is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "1", Text: "What is 2 + 2?", Option1: "3", Option2: "4", Option3: "5", Option4: "22", CorrectIndex: 1, Subject: "math", Chapter: "arithmetic"},
		{ID: "2", Text: "What is 3 x 3?", Option1: "6", Option2: "9", Option3: "33", Option4: "1", CorrectIndex: 1, Subject: "math", Chapter: "arithmetic"},
		{ID: "3", Text: "Which is a prime number?", Option1: "4", Option2: "9", Option3: "7", Option4: "15", CorrectIndex: 2, Subject: "math", Chapter: "numbers"},
		{ID: "4", Text: "What is the capital of France?", Option1: "Paris", Option2: "Rome", Option3: "Madrid", Option4: "Berlin", CorrectIndex: 0, Subject: "geography", Chapter: "europe"},
	}
}
