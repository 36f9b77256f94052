package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHubKeepsMostRecentEvents(t *testing.T) {
	h := newHub(2)
	for range 3 {
		h.publish(Event{Type: EventSpendingDelta})
	}

	got := h.since(0)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("history = %+v, want ids [2 3]", got)
	}
	if got := h.since(2); len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("since(2) = %+v, want id 3", got)
	}
	if got := h.since(3); len(got) != 0 {
		t.Fatalf("since(3) = %+v, want none", got)
	}
}

func TestHubDropsSlowSubscriberEvents(t *testing.T) {
	h := newHub(100)
	ch, unsubscribe := h.subscribe()

	for range 20 {
		h.publish(Event{})
	}
	if len(ch) != cap(ch) {
		t.Fatalf("buffered = %d, want full buffer of %d", len(ch), cap(ch))
	}
	if _, subs := h.counts(); subs != 1 {
		t.Fatalf("subscribers = %d, want 1", subs)
	}
	unsubscribe()
	if _, subs := h.counts(); subs != 0 {
		t.Fatalf("subscribers = %d after unsubscribe, want 0", subs)
	}
}

func TestEventsEndpointSince(t *testing.T) {
	s, _, _ := newTestService(t, Config{})
	for range 3 {
		s.hub.publish(Event{Type: EventSpendingDelta})
	}
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/events?since=1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ID != 2 {
		t.Fatalf("events = %+v, want ids 2 and 3", events)
	}

	bad, err := http.Get(srv.URL + "/v1/events?since=-4")
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", bad.StatusCode)
	}
}

func TestStreamReplaysAfterLastEventID(t *testing.T) {
	s, _, _ := newTestService(t, Config{})
	s.hub.publish(Event{Type: EventSnapshot})
	s.hub.publish(Event{Type: EventSpendingDelta})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Last-Event-ID", "1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for len(lines) < 2 && sc.Scan() {
		if line := sc.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) != 2 || lines[0] != "id: 2" || !strings.HasPrefix(lines[1], "event: "+EventSpendingDelta) {
		t.Fatalf("stream = %q, want replay of event 2", lines)
	}
}
