package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pdeepam/ai-test-tool/pkg/testcase"
	"github.com/pdeepam/ai-test-tool/pkg/tracker"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "AI Browser Test Engine",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"start":          "POST /test/start",
			"status":         "GET /test/status/{session_id}",
			"results":        "GET /test/results/{session_id}",
			"stop":           "POST /test/stop/{session_id}",
			"watch":          "GET /test/watch/{session_id}",
			"health":         "GET /health",
			"service_status": "GET /service/status",
			"service_reset":  "POST /service/reset",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		Uptime:         time.Since(s.startTime).Seconds(),
		Timestamp:      time.Now(),
		Provider:       s.options.ProviderName,
		ActiveSessions: s.tracker.Stats().ActiveSessions,
	})
}

func (s *Server) handleServiceStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.tracker.Stats()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "running",
		"uptime":          time.Since(s.startTime).Seconds(),
		"provider":        s.options.ProviderName,
		"active_sessions": stats.ActiveSessions,
		"total_results":   stats.TotalResults,
		"session_ids":     stats.SessionIDs,
	})
}

func (s *Server) handleServiceReset(w http.ResponseWriter, r *http.Request) {
	cleared := s.tracker.Reset()
	s.writeJSON(w, http.StatusOK, ResetResponse{
		Status:          "reset",
		SessionsCleared: cleared,
		Message:         "All sessions stopped and cleared",
	})
}

// handleStart validates the submitted batch, registers a session, and
// launches its driver in the background. The response returns before
// any test executes.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := testcase.ValidateStartPayload(body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req StartRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	applyServiceDefaults(&req.Config, s.options.Defaults)
	req.Config.ApplyDefaults()
	for i := range req.TestCases {
		req.TestCases[i].ApplyDefaults()
		if err := req.TestCases[i].Validate(); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	sessionID := s.tracker.CreateSession(req.TestCases, req.Config)
	s.options.Metrics.IncSessions()
	s.drivers.New(sessionID).Start(s.baseCtx)

	s.logger.Info().
		Str("session_id", sessionID).
		Int("test_count", len(req.TestCases)).
		Bool("parallel", req.Config.Parallel).
		Msg("Test session started")

	s.writeJSON(w, http.StatusOK, StartResponse{
		SessionID:  sessionID,
		Status:     "started",
		TotalTests: len(req.TestCases),
		Message:    "Test execution started",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	snapshot, err := s.tracker.Snapshot(sessionID)
	if err != nil {
		s.writeTrackerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	view, err := s.tracker.Results(sessionID)
	if err != nil {
		s.writeTrackerError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// handleStop flags the session as stopped. Tests not yet dispatched are
// skipped; a test already executing finishes and its result is kept.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	if err := s.tracker.SetStatus(sessionID, tracker.StatusStopped); err != nil {
		s.writeTrackerError(w, err)
		return
	}

	s.options.Metrics.IncStopped()
	s.logger.Info().Str("session_id", sessionID).Msg("Stop requested")
	s.writeJSON(w, http.StatusOK, StopResponse{
		SessionID: sessionID,
		Status:    string(tracker.StatusStopped),
		Message:   "Session stop requested",
	})
}

// applyServiceDefaults overlays service-level browser settings onto
// fields the request left at their zero values. A request can opt into
// existing-browser reuse or headless mode but cannot opt out of a
// service-level default.
func applyServiceDefaults(cfg *testcase.RunConfig, defaults testcase.RunConfig) {
	if defaults.UseExistingBrowser {
		cfg.UseExistingBrowser = true
	}
	if defaults.Headless {
		cfg.Headless = true
	}
	if cfg.CDPURL == "" {
		cfg.CDPURL = defaults.CDPURL
	}
}

func (s *Server) writeTrackerError(w http.ResponseWriter, err error) {
	if tracker.IsNotFound(err) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}
