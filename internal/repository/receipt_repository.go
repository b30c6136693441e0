package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatter-server/internal/domain/chatter"
)

type gormReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) ReceiptRepository {
	return &gormReceiptRepository{db: db}
}

// Upsert moves ReadAt forward for an existing (thread, user) pair and
// never duplicates a receipt.
func (r *gormReceiptRepository) Upsert(ctx context.Context, threadID, userID uuid.UUID, at time.Time) error {
	receipt := chatter.ReadReceipt{ThreadID: threadID, UserID: userID, ReadAt: at}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"read_at": at}),
		}).
		Create(&receipt).Error
}

func (r *gormReceiptRepository) ListByThread(ctx context.Context, threadID uuid.UUID) ([]chatter.ReadReceipt, error) {
	var receipts []chatter.ReadReceipt
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("read_at DESC").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}
