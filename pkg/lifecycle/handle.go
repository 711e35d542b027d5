package lifecycle

import (
	"sync"
	"time"

	"github.com/pdeepam/ai-test-tool/pkg/agent"
	"github.com/pdeepam/ai-test-tool/pkg/browser"
	"github.com/pdeepam/ai-test-tool/pkg/testcase"
)

// State is the lifecycle state of an agent handle.
type State string

const (
	StateInitialized State = "initialized"
	StateReady       State = "ready"
	StateRunning     State = "running"
	StateCompleted   State = "completed"
	StateError       State = "error"
	StateStopped     State = "stopped"
)

// Terminal reports whether no further transitions are allowed.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError || s == StateStopped
}

// transitions lists the legal forward moves. Stopped is reachable from
// any non-terminal state and is handled separately.
var transitions = map[State][]State{
	StateInitialized: {StateReady, StateError},
	StateReady:       {StateRunning},
	StateRunning:     {StateCompleted, StateError},
}

// Handle wraps one execution of a test case spec. It owns the acquired
// browser resource until cleanup and records execution timestamps and
// the final result.
type Handle struct {
	ID     string
	Spec   testcase.Spec
	Config testcase.RunConfig

	mu        sync.Mutex
	state     State
	resource  *browser.Resource
	engine    agent.Engine
	startedAt time.Time
	endedAt   time.Time
	result    *testcase.Result
	released  bool
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Result returns the recorded result once the handle is terminal.
func (h *Handle) Result() *testcase.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// StartedAt returns the execution start time, zero until execution begins.
func (h *Handle) StartedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startedAt
}

// EndedAt returns the execution end time, zero until execution finishes.
func (h *Handle) EndedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.endedAt
}

// Stop moves a non-terminal handle to Stopped. Transitions are one-way,
// so a completed or failed handle is left untouched.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.state.Terminal() {
		h.state = StateStopped
	}
}

// transition moves the handle to the requested state when legal.
func (h *Handle) transition(to State) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if to == StateStopped {
		if h.state.Terminal() {
			return false
		}
		h.state = StateStopped
		return true
	}

	for _, allowed := range transitions[h.state] {
		if allowed == to {
			h.state = to
			return true
		}
	}
	return false
}
