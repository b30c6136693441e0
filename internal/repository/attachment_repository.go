package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatter-server/internal/domain/chatter"
)

type gormAttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &gormAttachmentRepository{db: db}
}

func (r *gormAttachmentRepository) Create(ctx context.Context, a *chatter.AttachmentRef) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *gormAttachmentRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]chatter.AttachmentRef, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var refs []chatter.AttachmentRef
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *gormAttachmentRepository) GetByMessage(ctx context.Context, messageID uuid.UUID) ([]chatter.AttachmentRef, error) {
	var refs []chatter.AttachmentRef
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *gormAttachmentRepository) Link(ctx context.Context, ids []uuid.UUID, messageID, threadID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&chatter.AttachmentRef{}).
		Where("id IN ? AND message_id IS NULL", ids).
		Updates(map[string]interface{}{
			"message_id": messageID,
			"thread_id":  threadID,
		}).Error
}

func (r *gormAttachmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int, mimeType string) ([]chatter.AttachmentRef, bool, error) {
	q := r.db.WithContext(ctx).
		Where("project_id = ? AND message_id IS NOT NULL", projectID)
	if mimeType != "" {
		q = q.Where("mime_type = ?", mimeType)
	}

	// Fetch one extra row to learn whether another page exists.
	var refs []chatter.AttachmentRef
	err := q.Order("created_at DESC").Offset(offset).Limit(limit + 1).Find(&refs).Error
	if err != nil {
		return nil, false, err
	}

	hasMore := len(refs) > limit
	if hasMore {
		refs = refs[:limit]
	}
	return refs, hasMore, nil
}
