package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"splice/internal/api"
	"splice/internal/config"
	"splice/internal/history"
	"splice/internal/logging"
	"splice/internal/merge"
	"splice/internal/services"
)

// StatusFunc supplies the daemon status payload for /api/status.
type StatusFunc func(ctx context.Context) api.DaemonStatus

// Server is the splice HTTP API server.
type Server struct {
	bind     string
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *merge.Pipeline
	journal  *history.Store
	statusFn StatusFunc

	listener net.Listener
	server   *http.Server
}

// New wires the API server. The journal and status function are optional;
// their endpoints degrade gracefully when absent.
func New(cfg *config.Config, pipeline *merge.Pipeline, journal *history.Store, statusFn StatusFunc, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "config required", nil)
	}
	if pipeline == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "pipeline required", nil)
	}
	bind := strings.TrimSpace(cfg.Server.Bind)
	if bind == "" {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "server.bind required", nil)
	}

	srv := &Server{
		bind:     bind,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "api-server"),
		pipeline: pipeline,
		journal:  journal,
		statusFn: statusFn,
	}

	// No WriteTimeout: merged artifacts can be large and delivery time is
	// bounded by the client's link, not by us.
	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the routed handler with middleware applied, for the
// daemon's listener and for httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/merge", s.handleMerge)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/jobs/", s.handleJob)
	mux.HandleFunc("/api/status", s.handleStatus)
	return corsMiddleware(s.cfg.Server.AllowedOrigins, mux)
}

// Start begins serving on the configured bind address. The listener closes
// when ctx ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down, allowing in-flight responses a grace period.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
