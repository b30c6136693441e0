package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"chatter-server/internal/domain/outbox"
	"chatter-server/internal/repository"
)

// recordEvent appends a realtime event to the outbox inside the
// caller's transaction. Delivery happens after commit via the outbox
// processor, so a failed push can never roll back the write.
func recordEvent(ctx context.Context, r repository.Repositories, eventType, aggregateType, aggregateID string, projectID, recipientID *uuid.UUID, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	now := time.Now()
	return r.Outbox.Create(ctx, &outbox.Event{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		ProjectID:     projectID,
		RecipientID:   recipientID,
		Payload:       body,
		Status:        outbox.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}
