package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name,omitempty"`
}

// ActorFromID returns nil for anonymous/system actions.
func ActorFromID(id *uuid.UUID) *ActorRef {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return &ActorRef{UserID: *id}
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
