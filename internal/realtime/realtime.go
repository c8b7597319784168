// Package realtime carries resolution updates to open views. A view joins
// the room of one resolution and leaves it when it is torn down.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

type EventType string

const (
	EventNewInteraction EventType = "newInteraction"
	EventNewProgress    EventType = "newProgress"
	EventStatusChanged  EventType = "statusChanged"
)

// Event is the wire form pushed into a room.
type Event struct {
	Type         EventType       `json:"type"`
	ResolutionID string          `json:"resolution_id"`
	Payload      json.RawMessage `json:"payload"`
}

func NewEvent(t EventType, resolutionID string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{Type: t, ResolutionID: resolutionID, Payload: raw}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s event has no payload", e.Type)
	}
	return json.Unmarshal(e.Payload, v)
}

type Handler func(Event)

type Subscription interface {
	Close() error
}

// Channel is a transport able to deliver the events of one resolution.
type Channel interface {
	Subscribe(ctx context.Context, resolutionID string, handler Handler) (Subscription, error)
}

// Adapter tracks the rooms a process has joined.
type Adapter struct {
	channel Channel
	logger  *slog.Logger

	mu    sync.Mutex
	rooms map[string]Subscription
}

func NewAdapter(channel Channel, lg *slog.Logger) *Adapter {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Adapter{
		channel: channel,
		logger:  lg,
		rooms:   make(map[string]Subscription),
	}
}

// Join subscribes handler to the room of resolutionID. Joining a room that
// is already joined replaces the previous handler.
func (a *Adapter) Join(ctx context.Context, resolutionID string, handler Handler) error {
	if err := a.Leave(resolutionID); err != nil {
		a.logger.Warn("failed to leave room before rejoin", "resolution_id", resolutionID, "error", err)
	}

	sub, err := a.channel.Subscribe(ctx, resolutionID, handler)
	if err != nil {
		return fmt.Errorf("join room %s: %w", resolutionID, err)
	}

	a.mu.Lock()
	a.rooms[resolutionID] = sub
	a.mu.Unlock()

	a.logger.Debug("joined room", "resolution_id", resolutionID)
	return nil
}

// Leave is a no-op for rooms that were never joined.
func (a *Adapter) Leave(resolutionID string) error {
	a.mu.Lock()
	sub, ok := a.rooms[resolutionID]
	delete(a.rooms, resolutionID)
	a.mu.Unlock()

	if !ok {
		return nil
	}
	a.logger.Debug("left room", "resolution_id", resolutionID)
	return sub.Close()
}

func (a *Adapter) Joined(resolutionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.rooms[resolutionID]
	return ok
}

// Close leaves every room.
func (a *Adapter) Close() error {
	a.mu.Lock()
	ids := make([]string, 0, len(a.rooms))
	for id := range a.rooms {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := a.Leave(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
