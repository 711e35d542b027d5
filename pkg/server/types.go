package server

import (
	"time"

	"github.com/pdeepam/ai-test-tool/internal/metrics"
	"github.com/pdeepam/ai-test-tool/pkg/testcase"
)

// Options configures the HTTP server.
type Options struct {
	Host string
	Port int

	// Defaults fills request config fields the client left unset.
	Defaults testcase.RunConfig

	// Metrics enables the /metrics endpoint when set.
	Metrics *metrics.Metrics

	// ProviderName is reported by the health and status endpoints.
	ProviderName string
}

// StartRequest is the body of POST /test/start.
type StartRequest struct {
	TestCases []testcase.Spec    `json:"test_cases"`
	Config    testcase.RunConfig `json:"config"`
}

// StartResponse acknowledges an accepted test run.
type StartResponse struct {
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	TotalTests int    `json:"total_tests"`
	Message    string `json:"message"`
}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// ResetResponse reports the outcome of a service reset.
type ResetResponse struct {
	Status          string `json:"status"`
	SessionsCleared int    `json:"sessions_cleared"`
	Message         string `json:"message"`
}

// HealthResponse is the health probe payload.
type HealthResponse struct {
	Status         string    `json:"status"`
	Uptime         float64   `json:"uptime"`
	Timestamp      time.Time `json:"timestamp"`
	Provider       string    `json:"provider,omitempty"`
	ActiveSessions int       `json:"active_sessions"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
