package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the frame published over Redis and forwarded verbatim to
// websocket clients.
type Envelope struct {
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	ProjectID     *uuid.UUID      `json:"project_id,omitempty"`
	RecipientID   *uuid.UUID      `json:"recipient_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}
