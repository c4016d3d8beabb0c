// Package notify fans out change events to subscribers that re-pull state.
package notify

import "sync"

// Topic names what changed.
type Topic string

const (
	TasksChanged    Topic = "tasks"
	SegmentsChanged Topic = "segments"
	DayChanged      Topic = "day"
	SettingsChanged Topic = "settings"
)

// Event is published after a successful mutation.
type Event struct {
	Topic Topic
	// Key identifies the affected task id or day key when known.
	Key string
}

// Hub delivers events synchronously in subscription order.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[int]func(Event){}}
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub) Subscribe(fn func(Event)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.order = append(h.order, id)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
		for i, v := range h.order {
			if v == id {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
}

// Publish calls every subscriber with ev. A nil hub drops the event.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	fns := make([]func(Event), 0, len(h.order))
	for _, id := range h.order {
		fns = append(fns, h.subs[id])
	}
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}
