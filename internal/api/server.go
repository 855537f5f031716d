// Package api exposes audit sessions over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimaudit/internal/metrics"
	"github.com/gyeh/claimaudit/internal/session"
	"github.com/gyeh/claimaudit/internal/storage"
)

const shutdownTimeout = 30 * time.Second

// Config holds the HTTP settings.
type Config struct {
	Addr              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxUploadBytes    int64
	AllowedExtensions []string
}

// Server serves the session API.
type Server struct {
	sessions  *session.Manager
	documents storage.Store
	metrics   *metrics.Metrics
	log       zerolog.Logger
	cfg       Config
	allowed   map[string]bool
}

// NewServer wires the handlers around a session manager and document store.
func NewServer(sessions *session.Manager, documents storage.Store, m *metrics.Metrics, log zerolog.Logger, cfg Config) *Server {
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[ext] = true
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &Server{
		sessions:  sessions,
		documents: documents,
		metrics:   m,
		log:       log.With().Str("component", "api").Logger(),
		cfg:       cfg,
		allowed:   allowed,
	}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/audit", func(r chi.Router) {
		r.Post("/start", s.handleStart)
		r.Route("/{auditID}", func(r chi.Router) {
			r.Post("/upload", s.handleUpload)
			r.Get("/status", s.handleStatus)
			r.Post("/complete", s.handleComplete)
			r.Get("/result", s.handleResult)
			r.Get("/flags.parquet", s.handleFlagsExport)
		})
	})
	return r
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Str("request_id", middleware.GetReqID(r.Context())).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
