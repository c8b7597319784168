package realtime

import (
	"context"
	"sync"
)

// LocalHub is an in-process Channel and Sink, used when no redis is
// configured and in tests.
type LocalHub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

func NewLocalHub() *LocalHub {
	return &LocalHub{subs: make(map[string]map[int]Handler)}
}

func (h *LocalHub) Subscribe(_ context.Context, resolutionID string, handler Handler) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	if h.subs[resolutionID] == nil {
		h.subs[resolutionID] = make(map[int]Handler)
	}
	h.subs[resolutionID][id] = handler
	return localSubscription{hub: h, room: resolutionID, id: id}, nil
}

// Publish delivers ev synchronously to every subscriber of its room.
func (h *LocalHub) Publish(_ context.Context, ev Event) error {
	h.mu.RLock()
	handlers := make([]Handler, 0, len(h.subs[ev.ResolutionID]))
	for _, fn := range h.subs[ev.ResolutionID] {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
	return nil
}

func (h *LocalHub) Subscribers(resolutionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[resolutionID])
}

type localSubscription struct {
	hub  *LocalHub
	room string
	id   int
}

func (s localSubscription) Close() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	delete(s.hub.subs[s.room], s.id)
	if len(s.hub.subs[s.room]) == 0 {
		delete(s.hub.subs, s.room)
	}
	return nil
}
