package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SESSION_CLEANED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent carries the common fields of concrete events.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewSessionCleanedEvent records one cleanup pass over a user's sessions.
func NewSessionCleanedEvent(userID, strategy string, entriesCleaned int, memoryFreedMB float64) Event {
	return BaseEvent{
		Type: "SESSION_CLEANED",
		Data: map[string]interface{}{
			"event_id":        uuid.NewString(),
			"user_id":         userID,
			"strategy":        strategy,
			"entries_cleaned": entriesCleaned,
			"memory_freed_mb": memoryFreedMB,
		},
		OccurredAt: time.Now(),
	}
}
