// Package event streams lifecycle events to HTTP clients as server-sent
// events.
package event

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/questdesk/questdesk/internal/eventbus"
)

// keepaliveInterval is how often an SSE comment is written so idle
// connections are not reaped by intermediaries.
const keepaliveInterval = 30 * time.Second

type Server struct {
	bus *eventbus.Bus
}

func NewServer(bus *eventbus.Bus) *Server {
	return &Server{bus: bus}
}

func (s *Server) Mount(r chi.Router) {
	r.Get("/events", s.handleStream)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	subID, ch := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(subID)

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", ev.Type, ev.ID, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
