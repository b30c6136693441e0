package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatter-server/internal/domain/outbox"
)

const maxOutboxRetries = 10

type gormOutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &gormOutboxRepository{db: db}
}

func (r *gormOutboxRepository) Create(ctx context.Context, e *outbox.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// GetPending returns unprocessed events in creation order. The single
// sequential scan is what preserves per-project commit order on the
// realtime channel.
func (r *gormOutboxRepository) GetPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	var events []outbox.Event
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", outbox.StatusPending, maxOutboxRetries).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *gormOutboxRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&outbox.Event{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       outbox.StatusCompleted,
			"processed_at": now,
			"updated_at":   now,
		}).Error
}

func (r *gormOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.db.WithContext(ctx).
		Model(&outbox.Event{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count": gorm.Expr("retry_count + 1"),
			"error":       errorMsg,
			"updated_at":  time.Now(),
		}).Error
}
