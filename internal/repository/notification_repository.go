package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatter-server/internal/domain/notification"
)

type gormNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{db: db}
}

func (r *gormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *gormNotificationRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]notification.Notification, error) {
	var items []notification.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gormNotificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = false", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormNotificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *gormNotificationRepository) Delete(ctx context.Context, id, recipientID uuid.UUID) (bool, bool, error) {
	var n notification.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		First(&n).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, false, nil
		}
		return false, false, err
	}

	res := r.db.WithContext(ctx).Delete(&notification.Notification{}, "id = ?", id)
	if res.Error != nil {
		return false, false, res.Error
	}
	return res.RowsAffected > 0, !n.IsRead, nil
}

func (r *gormNotificationRepository) DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var unread int64
	err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Count(&unread).Error
	if err != nil {
		return 0, err
	}

	if err := r.db.WithContext(ctx).
		Delete(&notification.Notification{}, "recipient_id = ?", recipientID).Error; err != nil {
		return 0, err
	}
	return unread, nil
}

func (r *gormNotificationRepository) IncrementUnread(ctx context.Context, userID uuid.UUID, n int64) error {
	if n <= 0 {
		return nil
	}
	counter := notification.UnreadCounter{UserID: userID, Unread: n, UpdatedAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"unread":     gorm.Expr("notification_counters.unread + ?", n),
				"updated_at": time.Now(),
			}),
		}).
		Create(&counter).Error
}

func (r *gormNotificationRepository) DecrementUnread(ctx context.Context, userID uuid.UUID, n int64) error {
	if n <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&notification.UnreadCounter{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"unread":     gorm.Expr("GREATEST(unread - ?, 0)", n),
			"updated_at": time.Now(),
		}).Error
}

func (r *gormNotificationRepository) GetUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var counter notification.UnreadCounter
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&counter).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return counter.Unread, nil
}
