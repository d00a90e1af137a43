package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/ukane-philemon/grades/internal/grade"
	"github.com/ukane-philemon/grades/internal/logger"
	"github.com/ukane-philemon/grades/internal/metrics"
)

const welcomeMessage = "Welcome to the API."

// Config holds the optional parts of a Server.
type Config struct {
	// RateLimitPerMinute limits requests per client IP. Zero disables it.
	RateLimitPerMinute int
	// Metrics, when set, records every request and is served on /metrics.
	Metrics *metrics.HTTP
}

// Server translates HTTP requests into grade repository calls.
type Server struct {
	grades grade.Repository
	log    *logger.Logger
	cfg    Config
}

// NewServer creates and returns a new instance of *Server.
func NewServer(grades grade.Repository, log *logger.Logger, cfg Config) *Server {
	return &Server{
		grades: grades,
		log:    log,
		cfg:    cfg,
	}
}

// Router builds the HTTP routes of the grades API.
func (s *Server) Router() http.Handler {
	chiMux := chi.NewMux()
	chiMux.Use(middleware.RequestID)
	chiMux.Use(middleware.RealIP)
	chiMux.Use(requestLogger(s.log))
	if s.cfg.Metrics != nil {
		chiMux.Use(s.cfg.Metrics.Middleware)
	}
	chiMux.Use(recoverer(s.log))
	if s.cfg.RateLimitPerMinute > 0 {
		chiMux.Use(httprate.LimitByIP(s.cfg.RateLimitPerMinute, time.Minute))
	}

	chiMux.Get("/", s.welcome)
	if s.cfg.Metrics != nil {
		chiMux.Handle("/metrics", s.cfg.Metrics.Handler())
	}

	chiMux.Route("/grades", func(r chi.Router) {
		r.Post("/", s.createGrade)
		r.Get("/", s.listGrades)

		r.Get("/student/{id}", s.legacyLearnerGrades)
		r.Get("/learner/{id}", s.learnerGrades)
		r.Delete("/learner/{id}", s.deleteLearnerGrade)

		r.Get("/class/{id}", s.classGrades)
		r.Patch("/class/{id}", s.updateClassID)
		r.Delete("/class/{id}", s.deleteClass)

		r.Get("/{id}", s.getGrade)
		r.Patch("/{id}/add", s.addScore)
		r.Patch("/{id}/remove", s.removeScore)
		r.Delete("/{id}", s.deleteGrade)
	})

	chiMux.Route("/grades-agg", func(r chi.Router) {
		r.Get("/learner/{id}/avg-class", s.learnerClassAverages)
		r.Get("/stats", s.stats)
		r.Get("/stats/{id}", s.classStats)
	})

	return chiMux
}

func (s *Server) welcome(res http.ResponseWriter, _ *http.Request) {
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write([]byte(welcomeMessage))
}
