// Package server exposes the floorplan analysis pipeline over HTTP and
// WebSocket, with Prometheus metrics and per-client rate limiting.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/planlift/planlift/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int64
	TimeoutSec      int
	ShutdownTimeout time.Duration
	PipelineConfig  pipeline.Config
	// RateLimit enables per-client request limiting when non-nil.
	RateLimit *RateLimitConfig
}

// RateLimitConfig tunes the per-client limiter.
type RateLimitConfig struct {
	RequestsPerMinute int
	MaxDataPerDay     int64
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    *pipeline.Pipeline
	pipelineCfg pipeline.Config
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	rateLimiter *RateLimiter
}

// NewServer creates an analysis server from the given configuration.
func NewServer(config Config) (*Server, error) {
	pl, err := pipeline.NewBuilder().WithConfig(config.PipelineConfig).Build()
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	var limiter *RateLimiter
	if config.RateLimit != nil {
		limiter = NewRateLimiter(config.RateLimit.RequestsPerMinute, config.RateLimit.MaxDataPerDay)
	}

	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 20
	}
	return &Server{
		pipeline:    pl,
		pipelineCfg: config.PipelineConfig,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
		rateLimiter: limiter,
	}, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/analyze", s.corsMiddleware(s.rateLimitMiddleware(s.analyzeHandler)))
	mux.HandleFunc("/ws/analyze", s.analyzeWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully within shutdownTimeout.
func Run(ctx context.Context, config Config) error {
	srv, err := NewServer(config)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(config.TimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(config.TimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("analysis server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	slog.Info("shutting down analysis server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
