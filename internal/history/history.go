package history

import (
	"context"
	"time"
)

// EventType defines the kind of registry lifecycle event.
type EventType string

const (
	// EventSignal records a successful signal delivery.
	EventSignal EventType = "signal"
	// EventSelfHeal records a record healed to the -1 return code after
	// its process vanished.
	EventSelfHeal EventType = "self_heal"
	// EventRemove records an entry removed from the registry.
	EventRemove EventType = "remove"
)

// Event represents a registry lifecycle event to be exported to
// external audit or statistics systems.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Name       string    `json:"name"`
	PID        int       `json:"pid"`
	ReturnCode *int      `json:"returncode,omitempty"`
}

// Sink is a destination for history events. Implementations must be
// safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
