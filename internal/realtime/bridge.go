package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/resolution-tracker/internal/core/events"
)

// Sink is anything able to push an event into a room.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

var busTypes = map[string]EventType{
	events.EventTypeInteractionCreated:      EventNewInteraction,
	events.EventTypeProgressCreated:         EventNewProgress,
	events.EventTypeResolutionStatusChanged: EventStatusChanged,
}

// Bridge forwards the workflow events raised on bus to sink.
func Bridge(bus *events.EventBus, sink Sink) {
	for busType, roomType := range busTypes {
		roomType := roomType
		bus.Subscribe(busType, func(ctx context.Context, e events.Event) error {
			re, ok := e.(*events.ResolutionEvent)
			if !ok {
				return fmt.Errorf("unexpected event %T for %s", e, e.EventType())
			}
			ev, err := NewEvent(roomType, re.ResolutionID, re.Body)
			if err != nil {
				return err
			}
			return sink.Publish(ctx, ev)
		})
	}
}

// BridgeRedis bridges bus to the Redis rooms of client. Without a client
// there is no process that could watch a room, so nothing is subscribed and
// false is returned.
func BridgeRedis(bus *events.EventBus, client *redis.Client, prefix string, lg *slog.Logger) bool {
	if client == nil {
		lg.Warn("realtime.redis_url not set, live room updates are disabled")
		return false
	}
	Bridge(bus, NewPublisher(client, prefix))
	return true
}
