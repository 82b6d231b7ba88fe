// Package api_server exposes the HTTP surface: source management, manual
// sync triggers, and job progress polling. All long-running work happens
// in the worker; handlers only create ledger rows and publish messages.
package api_server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/novelvip/novelsync/internal/config"
	"github.com/novelvip/novelsync/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	cfg     *config.Config
	sources *service.NovelSourceService
	jobs    *service.JobService
	log     *zap.SugaredLogger
}

func New(cfg *config.Config, sources *service.NovelSourceService, jobs *service.JobService) *Server {
	return &Server{
		cfg:     cfg,
		sources: sources,
		jobs:    jobs,
		log:     zap.S().Named("api"),
	}
}

func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/novels/{novelID}/sources", func(r chi.Router) {
			r.Post("/", s.attachSource)
			r.Get("/", s.listSources)
		})
		r.Route("/sources/{id}", func(r chi.Router) {
			r.Patch("/", s.updateSource)
			r.Delete("/", s.deleteSource)
			r.Post("/sync", s.triggerSync)
		})
		r.Get("/jobs/{id}", s.getJob)
	})

	return router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Service.Address,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("api server listening", "address", s.cfg.Service.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
