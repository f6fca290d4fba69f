package notify

import (
	"context"
	"sync"
)

// Hub is an in-process Publisher for single-node deployments and tests.
// Subscribers that fall behind drop events rather than block the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string][]chan Event)}
}

// Subscribe returns a buffered channel receiving every event published to
// the named channel, and a cancel func that removes the subscription.
func (h *Hub) Subscribe(channel string) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[channel] = append(h.subs[channel], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		list := h.subs[channel]
		for i, c := range list {
			if c == ch {
				h.subs[channel] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

func (h *Hub) Publish(_ context.Context, channel string, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}
