// Package server exposes template expansion over HTTP.
//
// Routes:
//
//	GET  /healthz    liveness and version
//	GET  /v1/rules   rules of the loaded manifest
//	POST /v1/expand  expand text with manifest rules, inline rules and tokens
//
// Every response carries an X-Request-ID header, taken from the request or
// generated. Errors are JSON objects with code, message and request_id.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/primgen/pkg/manifest"
	"github.com/matzehuels/primgen/pkg/pipeline"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 8 << 20

// Server serves the expansion API. It holds no per-request state.
type Server struct {
	runner   *pipeline.Runner
	manifest *manifest.Manifest
	logger   *log.Logger
	version  string
}

// Config configures a Server.
type Config struct {
	Runner *pipeline.Runner

	// Manifest supplies named rules for "use". Optional.
	Manifest *manifest.Manifest

	Logger  *log.Logger
	Version string
}

// New returns a Server. A nil runner expands without caching.
func New(cfg Config) *Server {
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Manifest == nil {
		cfg.Manifest = &manifest.Manifest{}
	}
	return &Server{
		runner:   cfg.Runner,
		manifest: cfg.Manifest,
		logger:   cfg.Logger,
		version:  cfg.Version,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/rules", s.handleRules)
		r.Post("/expand", s.handleExpand)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, notFound(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			Code:      "METHOD_NOT_ALLOWED",
			Message:   r.Method + " not allowed on " + r.URL.Path,
			RequestID: RequestIDFrom(r.Context()),
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
