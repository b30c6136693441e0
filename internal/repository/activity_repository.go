package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatter-server/internal/domain/activity"
)

type gormActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &gormActivityRepository{db: db}
}

func (r *gormActivityRepository) Create(ctx context.Context, e *activity.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *gormActivityRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int, actionType string) ([]activity.Entry, bool, error) {
	q := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if actionType != "" {
		q = q.Where("action_type = ?", actionType)
	}

	var entries []activity.Entry
	err := q.Order("created_at DESC").Offset(offset).Limit(limit + 1).Find(&entries).Error
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	return entries, hasMore, nil
}
