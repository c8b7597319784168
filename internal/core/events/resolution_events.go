package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeResolutionCreated       = "resolution.created"
	EventTypeResolutionStatusChanged = "resolution.status_changed"
	EventTypeInteractionCreated      = "interaction.created"
	EventTypeProgressCreated         = "progress.created"
)

// ResolutionEvent is raised by the workflow service whenever something a
// viewer of the resolution should see has been persisted. Body is the
// record as the API returns it.
type ResolutionEvent struct {
	BaseEvent
	ResolutionID string      `json:"resolution_id"`
	ActorID      int64       `json:"actor_id"`
	Body         interface{} `json:"body"`
}

func NewResolutionEvent(eventType, resolutionID string, actorID int64, body interface{}) *ResolutionEvent {
	return &ResolutionEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"resolution_id": resolutionID,
				"actor_id":      actorID,
			},
		},
		ResolutionID: resolutionID,
		ActorID:      actorID,
		Body:         body,
	}
}

func NewInteractionCreatedEvent(resolutionID string, actorID int64, body interface{}) *ResolutionEvent {
	return NewResolutionEvent(EventTypeInteractionCreated, resolutionID, actorID, body)
}

func NewProgressCreatedEvent(resolutionID string, actorID int64, body interface{}) *ResolutionEvent {
	return NewResolutionEvent(EventTypeProgressCreated, resolutionID, actorID, body)
}

func NewStatusChangedEvent(resolutionID string, actorID int64, body interface{}) *ResolutionEvent {
	return NewResolutionEvent(EventTypeResolutionStatusChanged, resolutionID, actorID, body)
}
