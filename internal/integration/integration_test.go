package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/app/apptest"
	"quiz-room-service/internal/domain"
	"quiz-room-service/internal/infra/memory"
	pgbank "quiz-room-service/internal/infra/postgres"
	pgmigrations "quiz-room-service/internal/infra/postgres/migrations"
	infraredis "quiz-room-service/internal/infra/redis"
)

func TestQuizFromBankEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestions(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	bank := infraredis.NewCachedQuestionBank(redisClient, pgbank.NewQuestionBank(pool), 5*time.Minute, nil)
	rooms := infraredis.NewRoomStore(redisClient, 5*time.Minute, nil)
	service := app.NewRoomService(rooms, memory.NewConnectionTable(), app.ServiceConfig{Bank: bank})

	subjects, err := bank.Subjects(ctx)
	if err != nil || len(subjects) != 1 || subjects[0] != "math" {
		t.Fatalf("unexpected subjects %v %v", subjects, err)
	}

	roomID, _, err := service.CreateRoomFromBank(ctx, "math", "1")
	if err != nil {
		t.Fatalf("create from bank: %v", err)
	}
	if live, err := rooms.Live(ctx, roomID); err != nil || !live {
		t.Fatalf("expected redis liveness marker, got %v %v", live, err)
	}

	x, y, presenter := apptest.NewConn(), apptest.NewConn(), apptest.NewConn()
	for _, c := range []*apptest.Conn{x, y, presenter} {
		if err := service.Connect(roomID, c); err != nil {
			t.Fatalf("connect: %v", err)
		}
	}
	mustHandle(t, service, roomID, x, domain.JoinAction{StudentID: "x"})
	mustHandle(t, service, roomID, y, domain.JoinAction{StudentID: "y"})
	mustHandle(t, service, roomID, presenter, domain.StartQuizAction{})

	started, ok := presenter.Last().(domain.StartedMessage)
	if !ok || len(started.Questions) != 2 {
		t.Fatalf("expected two questions on start, got %#v", presenter.Last())
	}
	first := started.Questions[0]
	correct, _ := first.CorrectOption()
	if correct != "4" {
		t.Fatalf("expected 1-based storage index converted, got %q", correct)
	}

	mustHandle(t, service, roomID, x, domain.AnswerAction{StudentID: "x", QuestionID: first.ID, Answer: correct})
	mustHandle(t, service, roomID, y, domain.AnswerAction{StudentID: "y", QuestionID: first.ID, Answer: "3"})
	mustHandle(t, service, roomID, presenter, domain.EndQuizAction{})

	ended, ok := presenter.Last().(domain.EndedMessage)
	if !ok {
		t.Fatalf("expected ended message, got %#v", presenter.Last())
	}
	if len(ended.Leaderboard) != 2 || ended.Leaderboard[0].StudentID != "x" || ended.Leaderboard[0].Score != 1 {
		t.Fatalf("unexpected leaderboard %+v", ended.Leaderboard)
	}
	if live, _ := rooms.Live(ctx, roomID); live {
		t.Fatalf("expected liveness marker removed after end")
	}
}

func mustHandle(t *testing.T, service *app.RoomService, roomID string, conn app.Conn, action domain.ClientAction) {
	t.Helper()
	if err := service.Handle(context.Background(), roomID, conn, action); err != nil {
		t.Fatalf("handle %T: %v", action, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestions(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	_, err := pgbank.InsertQuestions(ctx, db, []pgbank.SeedQuestion{
		{Text: "What is 2 + 2?", Option1: "3", Option2: "4", Option3: "5", Option4: "22", CorrectIndex: 1, Subject: "math", Chapter: "1"},
		{Text: "What is 3 x 3?", Option1: "6", Option2: "9", Option3: "33", Option4: "1", CorrectIndex: 1, Subject: "math", Chapter: "1"},
	})
	if err != nil {
		t.Fatalf("seed questions: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
