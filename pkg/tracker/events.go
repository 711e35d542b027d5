package tracker

import "github.com/pdeepam/ai-test-tool/pkg/testcase"

// EventType distinguishes progress notifications.
type EventType string

const (
	EventResult EventType = "result"
	EventStatus EventType = "status"
)

// Event is one progress notification for a session. Result is set only
// for EventResult events.
type Event struct {
	Type           EventType        `json:"type"`
	SessionID      string           `json:"session_id"`
	Status         Status           `json:"status"`
	Result         *testcase.Result `json:"result,omitempty"`
	CompletedTests int              `json:"completed_tests"`
	TotalTests     int              `json:"total_tests"`
}

const subscriberBuffer = 16

// Subscribe returns a channel receiving the session's progress events.
// The channel is closed when the session is removed. Slow consumers
// lose events rather than block the registry.
func (t *Tracker) Subscribe(sessionID string) (<-chan Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[sessionID]; !ok {
		return nil, notFound(sessionID)
	}

	ch := make(chan Event, subscriberBuffer)
	t.subs[sessionID] = append(t.subs[sessionID], ch)
	return ch, nil
}

// Unsubscribe detaches and closes a channel returned by Subscribe. It
// is a no-op if the channel was already detached by removal.
func (t *Tracker) Unsubscribe(sessionID string, ch <-chan Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	chans := t.subs[sessionID]
	for i, c := range chans {
		if c == ch {
			t.subs[sessionID] = append(chans[:i], chans[i+1:]...)
			close(c)
			return
		}
	}
}

// publish sends the event to every subscriber of the session. Sends
// happen under the read lock and channel closes under the write lock,
// so a send can never hit a closed channel.
func (t *Tracker) publish(sessionID string, event Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, ch := range t.subs[sessionID] {
		select {
		case ch <- event:
		default:
		}
	}
}
