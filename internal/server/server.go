package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"scribe/internal/config"
	"scribe/internal/dispatch"
	"scribe/internal/jobs"
	"scribe/internal/logging"
)

// Server is the producer-side HTTP API over the job store and dispatch
// queue.
type Server struct {
	store         *jobs.Store
	queue         *dispatch.Queue
	logger        *slog.Logger
	secret        string
	enqueuePolicy string

	httpServer *http.Server
}

// New builds the API server. The returned server is not listening yet;
// call ListenAndServe.
func New(cfg *config.Config, store *jobs.Store, queue *dispatch.Queue, logger *slog.Logger) *Server {
	s := &Server{
		store:         store,
		queue:         queue,
		logger:        logging.NewComponentLogger(logger, "api"),
		secret:        cfg.API.Secret,
		enqueuePolicy: cfg.Broker.EnqueuePolicy,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.API.Bind,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router assembles the route tree. It is exported so tests can drive
// handlers through httptest without binding a socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.handleCreateJob)
			r.Get("/", s.handleListJobs)
			r.Get("/{id}", s.handleGetJob)
			r.Delete("/{id}", s.handleDeleteJob)
			r.Get("/{id}/artifacts", s.handleJobArtifacts)
		})
	})

	return r
}

// ListenAndServe serves the API until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("api listening", logging.String("bind", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
