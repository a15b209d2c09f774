package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lawcode-cli/internal/model"
)

// Backend is the persistence the HTTP API serves. *store.DB satisfies it.
type Backend interface {
	ListSections(ctx context.Context, withArticles bool) ([]model.Section, error)
	ListArticles(ctx context.Context, chapterID string) ([]model.Article, error)
	CreateSection(ctx context.Context, in model.SectionInput) (model.Section, error)
	UpdateSection(ctx context.Context, id string, in model.SectionInput) (model.Section, error)
	DeleteSection(ctx context.Context, id string) error
	CreateChapter(ctx context.Context, in model.ChapterInput) (model.Chapter, error)
	UpdateChapter(ctx context.Context, id string, patch model.ChapterPatch) (model.Chapter, error)
	DeleteChapter(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type Config struct {
	Addr string
	// Token enables bearer auth on the API routes when set.
	Token string
}

// Server is the reference HTTP implementation of the legal code CRUD API.
type Server struct {
	router  chi.Router
	backend Backend
	log     *slog.Logger
	cfg     Config
	reg     *prometheus.Registry
	metrics *httpMetrics
}

// New builds the router. reg receives the server's collectors and is exposed on /metrics;
// nil creates a private registry.
func New(b Backend, log *slog.Logger, cfg Config, reg *prometheus.Registry) *Server {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{backend: b, log: log, cfg: cfg, reg: reg, metrics: newHTTPMetrics(reg)}
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
	r.Use(RequestLogger(s.log, s.metrics))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if s.cfg.Token != "" {
			r.Use(AuthMiddleware(s.cfg.Token))
		}
		r.Get("/sections", s.handleListSections)
		r.Post("/sections", s.handleCreateSection)
		r.Put("/sections/{id}", s.handleUpdateSection)
		r.Delete("/sections/{id}", s.handleDeleteSection)

		r.Post("/chapters", s.handleCreateChapter)
		r.Put("/chapters/{id}", s.handleUpdateChapter)
		r.Delete("/chapters/{id}", s.handleDeleteChapter)
		r.Get("/chapters/{id}/articles", s.handleListArticles)
	})

	s.router = r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr, "auth", s.cfg.Token != "")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
