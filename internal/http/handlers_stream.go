package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const keepAliveInterval = 25 * time.Second

// handleEvents streams expense list changes to the browser over SSE. Each
// update event carries the owner's current expense count; the page reacts by
// refreshing its partials.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	uid := userID(r)
	snapshots, cancel := s.hub.Subscribe(r.Context(), uid)
	defer cancel()

	s.logger.DebugContext(r.Context(), "event stream opened", "user_id", uid)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.DebugContext(r.Context(), "event stream closed", "user_id", uid)
			return

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case snap, open := <-snapshots:
			if !open {
				return
			}
			if snap.Err != nil {
				fmt.Fprint(w, "event: stream-error\ndata: {}\n\n")
				flusher.Flush()
				continue
			}
			payload, err := json.Marshal(struct {
				Count int `json:"count"`
			}{Count: len(snap.Expenses)})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: expenses\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
