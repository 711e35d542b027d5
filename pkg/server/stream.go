package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/pdeepam/ai-test-tool/pkg/tracker"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWatch streams the session's progress events over a websocket.
// The stream ends when the session is removed or the client goes away.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	events, err := s.tracker.Subscribe(sessionID)
	if err != nil {
		s.writeTrackerError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.tracker.Unsubscribe(sessionID, events)
		s.logger.Error().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Reader goroutine notices client disconnects; we never expect
	// inbound messages.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer s.tracker.Unsubscribe(sessionID, events)

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Debug().Err(err).Str("session_id", sessionID).Msg("Watch stream write failed")
				return
			}
			if event.Type == tracker.EventStatus && event.Status.Terminal() {
				return
			}
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
