package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noventa-dev/noventa/internal/config"
	"github.com/noventa-dev/noventa/internal/dev"
	"github.com/noventa-dev/noventa/pkg/admission"
	"github.com/noventa-dev/noventa/pkg/diag"
	"github.com/noventa-dev/noventa/pkg/health"
	"github.com/noventa-dev/noventa/pkg/middleware"
	"github.com/noventa-dev/noventa/pkg/render"
	"github.com/noventa-dev/noventa/pkg/routing"
	"github.com/noventa-dev/noventa/pkg/upload"
)

// Options wires the server to the engine's components. Config,
// Pipeline, Routes and Sampler are required; the rest are optional.
type Options struct {
	Config   *config.Config
	Pipeline *render.Pipeline
	Routes   *routing.Table
	Sampler  *health.Sampler

	// Admission applies load shedding when set.
	Admission *admission.Controller

	// Metrics enables the Prometheus middleware and /metrics.
	Metrics *middleware.Metrics

	// Diag feeds the diagnostics stream.
	Diag *diag.Broadcaster

	// Reload serves the hot reload WebSocket in development mode.
	Reload *dev.ReloadServer

	// UploadStore receives file parts larger than the memory threshold.
	UploadStore upload.Store

	// DevMode switches on the reload client script and detailed error
	// pages.
	DevMode bool

	Logger *slog.Logger
}

// Server is the HTTP server for one project.
type Server struct {
	opts   Options
	logger *slog.Logger
	routes atomic.Pointer[routing.Table]
	http   *http.Server
}

// New creates a server from the given options.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		opts:   opts,
		logger: opts.Logger,
	}
	s.routes.Store(opts.Routes)
	return s
}

// SetRoutes swaps the live route table. The dev reloader calls this
// after recompiling routes.
func (s *Server) SetRoutes(table *routing.Table) {
	s.routes.Store(table)
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.Middleware)
	}
	r.Use(middleware.Tracing(middleware.WithFilter(func(req *http.Request) bool {
		switch req.URL.Path {
		case "/health", "/metrics":
			return false
		}
		return true
	})))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	if s.opts.Reload != nil {
		r.Get("/_noventa/reload", s.opts.Reload.HandleWebSocket)
	}
	r.Get("/_noventa/live", s.handleLive)
	if s.opts.Diag != nil && s.opts.DevMode {
		r.Get("/_noventa/diag", s.handleDiag)
	}

	if s.opts.Config != nil && s.opts.Config.Static.Prefix != "" {
		prefix := s.opts.Config.Static.Prefix
		fileServer := http.StripPrefix(prefix, http.FileServer(http.Dir(s.opts.Config.StaticPath())))
		r.Handle(prefix+"/*", fileServer)
	}

	// Every remaining path is a candidate page route.
	r.NotFound(s.handlePage)
	r.MethodNotAllowed(s.handlePage)

	return r
}

// ListenAndServe runs the server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.opts.Config.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()
	s.logger.Info("server listening", "addr", s.opts.Config.Address())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
