package events

import "time"

// Event is what crosses the bus: a type code plus a loose payload.
type Event interface {
	// EventType returns the event's code, e.g. "SESSION_DELETED".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

// BaseEvent is the plain implementation every constructor in this
// package returns.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string               { return e.Type }
func (e BaseEvent) Payload() map[string]interface{} { return e.Data }
func (e BaseEvent) Timestamp() time.Time            { return e.OccurredAt }
