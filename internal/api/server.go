// Package api serves the correction pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Veraticus/invoice-memory/internal/engine"
)

const (
	// MaxBodySize bounds request bodies.
	MaxBodySize     = 5 * 1024 * 1024
	shutdownTimeout = 10 * time.Second
)

// Server exposes a Pipeline over HTTP.
type Server struct {
	pipeline *engine.Pipeline
	metrics  http.Handler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a server for pipeline.
func NewServer(pipeline *engine.Pipeline, opts ...ServerOption) *Server {
	s := &Server{pipeline: pipeline}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table. Every pipeline route is served both at the
// root and under /api.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestID, logRequests)

	for _, prefix := range []string{"", "/api"} {
		router.HandleFunc(prefix+"/process", s.Process).Methods(http.MethodPost)
		router.HandleFunc(prefix+"/learn", s.Learn).Methods(http.MethodPost)
		router.HandleFunc(prefix+"/memory", s.Memory).Methods(http.MethodGet)
		router.HandleFunc(prefix+"/reset", s.Reset).Methods(http.MethodPost)
		router.HandleFunc(prefix+"/resolve", s.Resolve).Methods(http.MethodPost)
	}

	router.HandleFunc("/health", s.Health).Methods(http.MethodGet)
	if s.metrics != nil {
		router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	return router
}

// Run listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
