package daemon

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// Handler returns the HTTP API:
//
//	GET /healthz            liveness
//	GET /v1/status          Status
//	GET /v1/events?since=N  retained events after id N
//	GET /v1/stream          server-sent events, honoring Last-Event-ID
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	mux.HandleFunc("GET /v1/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, s.Status())
	})
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return mux
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	since, ok := eventID(r.URL.Query().Get("since"))
	if !ok {
		http.Error(w, "since must be a non-negative event id", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.hub.since(since))
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	lastID, resume := eventID(r.Header.Get("Last-Event-ID"))
	resume = resume && r.Header.Get("Last-Event-ID") != ""

	events, unsubscribe := s.hub.subscribe()
	defer unsubscribe()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	// A reconnecting client gets what it missed; a new one gets the
	// current snapshot without an id.
	if resume {
		for _, ev := range s.hub.since(lastID) {
			writeSSE(w, ev)
			lastID = ev.ID
		}
	} else {
		writeSSE(w, Event{Type: EventSnapshot, Timestamp: s.cfg.Now(), Snapshot: s.Status().Summary})
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if ev.ID <= lastID {
				continue
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

// eventID parses an optional event id; empty means zero.
func eventID(v string) (int64, bool) {
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	return id, err == nil && id >= 0
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}
