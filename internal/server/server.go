// Package server serves automatic layout over HTTP.
//
// The server accepts a workspace as JSON, lays out its views with the same
// pipeline the CLI uses, and returns the workspace with the computed
// positions together with one result per view.
//
// # Endpoints
//
//	GET  /healthz    liveness and build information
//	POST /v1/layout  lay out the views of a workspace
//	POST /v1/dot     DOT description of a single view
//
// Request bodies have the form
//
//	{"workspace": {...}, "options": {"rank_direction": "LR", ...}}
//
// and "view" query parameters restrict the views that are processed.
// Errors are returned as {"error": {"code": "...", "message": "..."}}.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/autolayout/pkg/pipeline"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = ":8080"

	// DefaultMaxBodyBytes limits the size of request bodies.
	DefaultMaxBodyBytes = 10 << 20

	// DefaultShutdownTimeout bounds how long in-flight requests may run
	// once the server is asked to stop.
	DefaultShutdownTimeout = 30 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration

	// Options are the server-side defaults. Engine, concurrency and cache
	// settings always come from here; the remaining fields apply when a
	// request leaves them unset.
	Options pipeline.Options
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Server is the HTTP layout API.
type Server struct {
	runner *pipeline.Runner
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New creates a server that lays out views with runner.
func New(runner *pipeline.Runner, cfg Config, logger *log.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, cfg: cfg, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/layout", s.handleLayout)
		r.Post("/dot", s.handleDot)
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestOptions merges the options of a request with the server's.
func (s *Server) requestOptions(in pipeline.Options, views []string) pipeline.Options {
	def := s.cfg.Options
	out := in

	out.Engine = def.Engine
	out.Command = def.Command
	out.WorkDir = def.WorkDir
	out.KeepFiles = def.KeepFiles
	out.Concurrency = def.Concurrency
	out.CacheTTL = def.CacheTTL
	out.Logger = s.logger

	if out.RankDirection == "" {
		out.RankDirection = def.RankDirection
	}
	if out.RankSeparation == 0 {
		out.RankSeparation = def.RankSeparation
	}
	if out.NodeSeparation == 0 {
		out.NodeSeparation = def.NodeSeparation
	}
	if out.NodeWidth == 0 {
		out.NodeWidth = def.NodeWidth
	}
	if out.NodeHeight == 0 {
		out.NodeHeight = def.NodeHeight
	}
	if out.ClusterMargin == 0 {
		out.ClusterMargin = def.ClusterMargin
	}
	if out.FontSize == 0 {
		out.FontSize = def.FontSize
	}
	if out.Margin == nil {
		out.Margin = def.Margin
	}
	out.KeepPaperSize = out.KeepPaperSize || def.KeepPaperSize
	out.Refresh = out.Refresh || def.Refresh

	if len(views) > 0 {
		out.Views = views
	}
	return out
}
