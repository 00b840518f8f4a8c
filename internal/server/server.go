// Package server exposes routes and route renders over HTTP.
//
// The server holds one immutable building snapshot at a time. Requests load
// the snapshot once when they start, so a concurrent reload (see
// [Server.SetGraph]) never changes the graph under a running search.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/pipeline"
)

// Server serves the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	metrics *Metrics
	graph   atomic.Pointer[building.Graph]
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics serves m at /metrics and reports the snapshot size to it.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a server routing on g.
func New(runner *pipeline.Runner, g *building.Graph, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.SetGraph(g)
	s.router = s.routes()
	return s
}

// SetGraph swaps the building snapshot. Requests already running keep the
// snapshot they started with.
func (s *Server) SetGraph(g *building.Graph) {
	s.graph.Store(g)
	if s.metrics != nil && g != nil {
		s.metrics.setGraphNodes(g.NodeCount())
	}
}

// Graph returns the current snapshot.
func (s *Server) Graph() *building.Graph { return s.graph.Load() }

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.healthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/nodes", s.listNodes)
		r.Get("/route", s.getRoute)
		r.Get("/route.gif", s.getRouteGIF)
		r.Get("/route/floors/{floor}.png", s.getFloorPNG)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
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
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
