// Package server exposes the test orchestration engine over HTTP:
// starting sessions, polling progress, fetching results, stopping
// sessions, and a websocket progress stream.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/pdeepam/ai-test-tool/pkg/driver"
	"github.com/pdeepam/ai-test-tool/pkg/tracker"
)

// Server is the orchestration HTTP server.
type Server struct {
	options   Options
	server    *http.Server
	tracker   *tracker.Tracker
	drivers   *driver.Factory
	logger    zerolog.Logger
	startTime time.Time

	// baseCtx outlives individual requests and is cancelled on Stop so
	// running drivers wind down with the server.
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewServer creates a new orchestration server.
func NewServer(options Options, trk *tracker.Tracker, drivers *driver.Factory, logger zerolog.Logger) (*Server, error) {
	if options.Port == 0 {
		options.Port = 8000
	}
	if options.Host == "" {
		options.Host = "0.0.0.0"
	}
	if trk == nil {
		return nil, fmt.Errorf("tracker is required")
	}
	if drivers == nil {
		return nil, fmt.Errorf("driver factory is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		options:    options,
		tracker:    trk,
		drivers:    drivers,
		logger:     logger,
		startTime:  time.Now(),
		baseCtx:    ctx,
		cancelBase: cancel,
	}, nil
}

// Router builds the HTTP route table. Exposed for tests.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.options.Metrics != nil {
		r.Handle("/metrics", s.options.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/service/status", s.handleServiceStatus).Methods(http.MethodGet)
	r.HandleFunc("/service/reset", s.handleServiceReset).Methods(http.MethodPost)

	r.HandleFunc("/test/start", s.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/test/status/{sessionID}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/test/results/{sessionID}", s.handleResults).Methods(http.MethodGet)
	r.HandleFunc("/test/stop/{sessionID}", s.handleStop).Methods(http.MethodPost)
	r.HandleFunc("/test/watch/{sessionID}", s.handleWatch).Methods(http.MethodGet)

	return r
}

// Start runs the server until Stop is called. It blocks.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.options.Host, s.options.Port),
		Handler: s.Router(),
	}

	s.logger.Info().
		Str("host", s.options.Host).
		Int("port", s.options.Port).
		Msg("Starting orchestration server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start orchestration server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server and cancels all running drivers.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Shutting down orchestration server")
	s.cancelBase()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown orchestration server: %w", err)
		}
	}

	s.logger.Info().Msg("Orchestration server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
