// Package tracker holds the process-wide registry of test sessions:
// their specs, status, ordered result logs, and progress counters. It
// is the single shared mutable structure between the HTTP layer and
// the per-session drivers, so every path is mutex-guarded.
package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdeepam/ai-test-tool/pkg/testcase"
)

// Status is the lifecycle status of a session.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
	StatusStopped     Status = "stopped"
)

// Terminal reports whether the status freezes the session.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusStopped
}

// statusTransitions lists legal forward moves. StatusStopped is
// reachable from any non-terminal status and handled separately.
var statusTransitions = map[Status][]Status{
	StatusInitialized: {StatusRunning, StatusCompleted, StatusError},
	StatusRunning:     {StatusCompleted, StatusError},
}

// session is one tracked run. Specs and config are immutable after
// creation; results grow append-only until the session is terminal.
type session struct {
	id             string
	status         Status
	specs          []testcase.Spec
	config         testcase.RunConfig
	createdAt      time.Time
	updatedAt      time.Time
	totalTests     int
	completedTests int
	results        []testcase.Result
}

// Snapshot is the progress view served by the status endpoint.
type Snapshot struct {
	SessionID          string            `json:"session_id"`
	Status             Status            `json:"status"`
	TotalTests         int               `json:"total_tests"`
	CompletedTests     int               `json:"completed_tests"`
	ProgressPercentage float64           `json:"progress_percentage"`
	CreatedAt          time.Time         `json:"created_at"`
	LatestResults      []testcase.Result `json:"latest_results"`
}

// Summary aggregates result outcomes for a session.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Errors int `json:"errors"`
}

// ResultsView is the full result log served by the results endpoint.
type ResultsView struct {
	SessionID string            `json:"session_id"`
	Results   []testcase.Result `json:"results"`
	Summary   Summary           `json:"summary"`
}

// Stats describes the registry for diagnostics.
type Stats struct {
	ActiveSessions int      `json:"active_sessions"`
	TotalResults   int      `json:"total_results"`
	SessionIDs     []string `json:"session_ids"`
}

// Tracker is the process-wide session registry.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*session
	subs     map[string][]chan Event
	logger   zerolog.Logger
}

// New creates an empty tracker.
func New(logger zerolog.Logger) *Tracker {
	return &Tracker{
		sessions: make(map[string]*session),
		subs:     make(map[string][]chan Event),
		logger:   logger,
	}
}

// CreateSession registers a new session and returns its id.
func (t *Tracker) CreateSession(specs []testcase.Spec, cfg testcase.RunConfig) string {
	id := uuid.NewString()
	now := time.Now()

	t.mu.Lock()
	t.sessions[id] = &session{
		id:         id,
		status:     StatusInitialized,
		specs:      specs,
		config:     cfg,
		createdAt:  now,
		updatedAt:  now,
		totalTests: len(specs),
	}
	t.mu.Unlock()

	t.logger.Info().
		Str("session_id", id).
		Int("total_tests", len(specs)).
		Msg("Session created")

	return id
}

// Specs returns the session's submitted specs and config.
func (t *Tracker) Specs(sessionID string) ([]testcase.Spec, testcase.RunConfig, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[sessionID]
	if !ok {
		return nil, testcase.RunConfig{}, notFound(sessionID)
	}
	return s.specs, s.config, nil
}

// AppendResult appends a result to the session's ordered log and
// advances the completion counter. Appends are refused once the
// session is Completed or Error; a result from a test that was already
// executing when the session was stopped is still recorded.
func (t *Tracker) AppendResult(sessionID string, result testcase.Result) error {
	t.mu.Lock()
	s, ok := t.sessions[sessionID]
	if !ok {
		t.mu.Unlock()
		return notFound(sessionID)
	}
	if s.status == StatusCompleted || s.status == StatusError {
		t.mu.Unlock()
		return &TrackerError{
			Code:    ErrCodeInvalidTransition,
			Message: "cannot append results to a finished session",
		}
	}

	s.results = append(s.results, result)
	s.completedTests++
	s.updatedAt = time.Now()
	event := Event{
		Type:           EventResult,
		SessionID:      sessionID,
		Status:         s.status,
		Result:         &result,
		CompletedTests: s.completedTests,
		TotalTests:     s.totalTests,
	}
	t.mu.Unlock()

	t.publish(sessionID, event)
	return nil
}

// SetStatus moves the session to the requested status. Terminal
// sessions are left untouched; illegal transitions are rejected.
func (t *Tracker) SetStatus(sessionID string, status Status) error {
	t.mu.Lock()
	s, ok := t.sessions[sessionID]
	if !ok {
		t.mu.Unlock()
		return notFound(sessionID)
	}

	if s.status.Terminal() {
		t.mu.Unlock()
		return nil
	}

	if status != StatusStopped && !legalTransition(s.status, status) {
		t.mu.Unlock()
		return &TrackerError{
			Code:    ErrCodeInvalidTransition,
			Message: "illegal status transition " + string(s.status) + " -> " + string(status),
		}
	}

	s.status = status
	s.updatedAt = time.Now()
	event := Event{
		Type:           EventStatus,
		SessionID:      sessionID,
		Status:         status,
		CompletedTests: s.completedTests,
		TotalTests:     s.totalTests,
	}
	t.mu.Unlock()

	t.logger.Info().
		Str("session_id", sessionID).
		Str("status", string(status)).
		Msg("Session status changed")

	t.publish(sessionID, event)
	return nil
}

// Stopped reports whether the session should stop driving new work.
// Unknown sessions (removed by reset or retention) count as stopped so
// orphaned drivers wind down.
func (t *Tracker) Stopped(sessionID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[sessionID]
	if !ok {
		return true
	}
	return s.status == StatusStopped
}

// Snapshot returns the progress view for one session, including at
// most the latest five results.
func (t *Tracker) Snapshot(sessionID string) (Snapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[sessionID]
	if !ok {
		return Snapshot{}, notFound(sessionID)
	}

	progress := 0.0
	if s.totalTests > 0 {
		progress = float64(s.completedTests) / float64(s.totalTests) * 100
	}

	latest := s.results
	if len(latest) > 5 {
		latest = latest[len(latest)-5:]
	}
	latestCopy := make([]testcase.Result, len(latest))
	copy(latestCopy, latest)

	return Snapshot{
		SessionID:          sessionID,
		Status:             s.status,
		TotalTests:         s.totalTests,
		CompletedTests:     s.completedTests,
		ProgressPercentage: progress,
		CreatedAt:          s.createdAt,
		LatestResults:      latestCopy,
	}, nil
}

// Results returns the session's full result log with summary counters.
func (t *Tracker) Results(sessionID string) (ResultsView, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[sessionID]
	if !ok {
		return ResultsView{}, notFound(sessionID)
	}

	results := make([]testcase.Result, len(s.results))
	copy(results, s.results)

	summary := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case testcase.OutcomePassed:
			summary.Passed++
		case testcase.OutcomeFailed:
			summary.Failed++
		default:
			summary.Errors++
		}
	}

	return ResultsView{SessionID: sessionID, Results: results, Summary: summary}, nil
}

// Stats returns registry-level statistics.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := Stats{SessionIDs: make([]string, 0, len(t.sessions))}
	for id, s := range t.sessions {
		stats.SessionIDs = append(stats.SessionIDs, id)
		stats.TotalResults += len(s.results)
		if !s.status.Terminal() {
			stats.ActiveSessions++
		}
	}
	return stats
}

// Reset stops all in-flight sessions and clears the registry. Drivers
// observe the stop either through the stopped status or, once cleared,
// through the unknown-session-counts-as-stopped rule.
func (t *Tracker) Reset() int {
	t.mu.Lock()
	cleared := len(t.sessions)
	for id, s := range t.sessions {
		if !s.status.Terminal() {
			s.status = StatusStopped
			event := Event{
				Type:           EventStatus,
				SessionID:      id,
				Status:         StatusStopped,
				CompletedTests: s.completedTests,
				TotalTests:     s.totalTests,
			}
			for _, ch := range t.subs[id] {
				select {
				case ch <- event:
				default:
				}
			}
		}
	}
	for _, chans := range t.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	t.sessions = make(map[string]*session)
	t.subs = make(map[string][]chan Event)
	t.mu.Unlock()

	t.logger.Info().Int("sessions", cleared).Msg("Tracker reset")
	return cleared
}

// RemoveTerminalBefore deletes terminal sessions whose last update is
// older than cutoff and returns how many were removed. Non-terminal
// sessions are never touched.
func (t *Tracker) RemoveTerminalBefore(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, s := range t.sessions {
		if s.status.Terminal() && s.updatedAt.Before(cutoff) {
			delete(t.sessions, id)
			for _, ch := range t.subs[id] {
				close(ch)
			}
			delete(t.subs, id)
			removed++
		}
	}
	return removed
}

func legalTransition(from, to Status) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func notFound(sessionID string) error {
	return &TrackerError{
		Code:    ErrCodeNotFound,
		Message: "session not found: " + sessionID,
	}
}
