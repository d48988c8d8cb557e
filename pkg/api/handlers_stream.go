package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/pubsub"
)

// handleStream serves GET /session/stream as Server-Sent Events. The first
// event is a "snapshot"; after that every committed iteration is an
// "iteration" event and every state change a "state" event. A slow client
// misses events rather than holding up the session.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		s.respondError(w, http.StatusServiceUnavailable, "event stream is not enabled")
		return
	}

	ctx := r.Context()
	iterations, err := s.events.Subscribe(ctx, pubsub.TopicIteration)
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer iterations.Unsubscribe()
	states, err := s.events.Subscribe(ctx, pubsub.TopicState)
	if err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer states.Unsubscribe()

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	var seq int64
	send := func(event string, v any) bool {
		seq++
		if err := writeEvent(w, seq, event, v); err != nil {
			s.logger.Debug("event stream closed", logging.Error(err))
			return false
		}
		return rc.Flush() == nil
	}

	if !send("snapshot", s.session.Snapshot()) {
		return
	}

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-iterations.Channel():
			if !ok || !send("iteration", msg) {
				return
			}
		case msg, ok := <-states.Channel():
			if !ok || !send("state", msg) {
				return
			}
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil || rc.Flush() != nil {
				return
			}
		}
	}
}

func writeEvent(w io.Writer, id int64, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", id, event, data)
	return err
}
