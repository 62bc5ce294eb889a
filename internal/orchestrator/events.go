package orchestrator

import (
	"encoding/json"
	"sync"
)

// Event is a generic SSE payload wrapper.
type Event struct {
	Event   string `json:"event"`
	JobID   string `json:"job_id"`
	Payload any    `json:"payload,omitempty"`
}

type subscriber chan []byte

// Hub fans job events out to subscribers. Slow subscribers drop events rather
// than block the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[subscriber]struct{} // jobID -> set of subscribers
}

func NewHub() *Hub { return &Hub{subs: map[string]map[subscriber]struct{}{}} }

// Subscribe returns a channel of JSON-encoded events for jobID. The channel is
// closed by the returned func or by Close, whichever happens first.
func (h *Hub) Subscribe(jobID string) (<-chan []byte, func()) {
	ch := make(subscriber, 16)
	h.mu.Lock()
	set := h.subs[jobID]
	if set == nil {
		set = map[subscriber]struct{}{}
		h.subs[jobID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		set, ok := h.subs[jobID]
		if !ok {
			return
		}
		if _, ok := set[ch]; ok {
			delete(set, ch)
			close(ch)
		}
		if len(set) == 0 {
			delete(h.subs, jobID)
		}
	}
	return ch, unsubscribe
}

func (h *Hub) Publish(jobID string, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[jobID] {
		// non-blocking send
		select {
		case ch <- b:
		default:
		}
	}
}

// Close ends every subscription to jobID.
func (h *Hub) Close(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[jobID] {
		close(ch)
	}
	delete(h.subs, jobID)
}

// Subscribers returns the number of live subscriptions to jobID.
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[jobID])
}
