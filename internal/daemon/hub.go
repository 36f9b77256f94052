package daemon

import "sync"

// hub numbers events, keeps the most recent limit of them, and fans new
// ones out to stream subscribers. A subscriber whose buffer is full misses
// the event; it can catch up from the history with Last-Event-ID.
type hub struct {
	mu     sync.Mutex
	limit  int
	nextID int64
	ring   []Event
	subs   map[chan Event]struct{}
}

func newHub(limit int) *hub {
	return &hub{limit: limit, subs: make(map[chan Event]struct{})}
}

// publish assigns ev the next id and returns it as stored.
func (h *hub) publish(ev Event) Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ev.ID = h.nextID
	h.ring = append(h.ring, ev)
	if over := len(h.ring) - h.limit; over > 0 {
		h.ring = append(h.ring[:0:0], h.ring[over:]...)
	}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// since returns retained events with an id greater than id, oldest first.
func (h *hub) since(id int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := []Event{}
	for _, ev := range h.ring {
		if ev.ID > id {
			out = append(out, ev)
		}
	}
	return out
}

// subscribe registers a buffered channel; call the returned func to drop it.
func (h *hub) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

func (h *hub) counts() (events, subscribers int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ring), len(h.subs)
}
