package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/smeta/internal/config"
	"github.com/dgallion1/smeta/internal/extract"
	"github.com/dgallion1/smeta/internal/pipeline"
)

// Server is the HTTP API server for estimate extraction.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	extractor    *extract.Extractor
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, extractor *extract.Extractor, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		extractor:    extractor,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/extract", s.handleExtract)

		r.Route("/api/estimates", func(r chi.Router) {
			r.Post("/", s.handleSubmit)
			r.Post("/batch", s.handleBatchSubmit)
			r.Get("/{jobID}/status", s.handleStatus)
			r.Get("/{jobID}", s.handleResult)
			r.Get("/{jobID}/checks", s.handleChecks)
			r.Get("/{jobID}/report", s.handleReport)
			r.Delete("/{jobID}", s.handleDelete)
		})

		r.Get("/api/stats/parse", s.handleParseStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
