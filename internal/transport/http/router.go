package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// RouterDeps collects what NewRouter mounts.
type RouterDeps struct {
	Lifecycle   *LifecycleHandler
	WS          *WSHandler
	Metrics     http.Handler
	CORSOrigins []string
	Logger      logrus.FieldLogger
}

// NewRouter wires the lifecycle API, the room socket, health and metrics.
func NewRouter(deps RouterDeps) http.Handler {
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(requestLogger(logger))
		r.Get("/", deps.Lifecycle.Root)
		r.Get("/create_quiz", deps.Lifecycle.CreateQuiz)
		r.Post("/create_quiz_with_questions", deps.Lifecycle.CreateQuizWithQuestions)
		r.Post("/create_quiz_from_bank", deps.Lifecycle.CreateQuizFromBank)
		r.Get("/validate_quiz/{quiz_id}", deps.Lifecycle.ValidateQuiz)
		r.Get("/rooms", deps.Lifecycle.Rooms)
		r.Get("/subjects", deps.Lifecycle.Subjects)
		r.Get("/subjects/{subject}/chapters", deps.Lifecycle.Chapters)
		r.Get("/questions", deps.Lifecycle.Questions)
	})

	// No response-wrapping middleware here: the upgrade needs the raw hijackable writer.
	r.Get("/ws/{quiz_id}", deps.WS.ServeWS)
	return r
}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"duration": time.Since(start).String(),
			}).Debug("http request")
		})
	}
}
