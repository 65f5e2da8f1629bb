package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/snarg/scribe-engine/internal/config"
	"github.com/snarg/scribe-engine/internal/database"
	"github.com/snarg/scribe-engine/internal/jobs"
	"github.com/snarg/scribe-engine/internal/metrics"
	"github.com/snarg/scribe-engine/internal/storage"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, db *database.DB, store storage.ObjectStore, prov jobs.Provider, ex jobs.Extractor, version string, startTime time.Time, log zerolog.Logger) *Server {
	resolver := jobs.NewResolver(store, ex, cfg.S3.DownloadExpiry, log)
	submitter := jobs.NewSubmitter(db, db, prov, log)
	poller := jobs.NewPoller(db, db, prov, log)

	transcriptions := NewTranscriptionsHandler(db, db, resolver, submitter, poller, log)
	uploads := NewUploadHandler(store, cfg.S3.UploadExpiry, log)
	health := NewHealthHandler(db, store, version, startTime)

	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(metrics.Middleware)
	r.Use(CORS)

	// Unauthenticated surface
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", metrics.Register(metrics.NewCollector(db.Pool)))

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(db))

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/uploads", uploads.Create)
			r.Delete("/uploads", uploads.Delete)

			r.Post("/transcriptions", transcriptions.Create)
			r.Get("/transcriptions", transcriptions.List)
			r.Get("/transcriptions/{id}", transcriptions.Get)
			r.Get("/transcriptions/{id}/export", transcriptions.Export)

			r.Get("/me/access", transcriptions.Access)
		})
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
