package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatter-server/internal/domain/chatter"
	chatter_errors "chatter-server/pkg/errors"
)

type gormMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(ctx context.Context, m *chatter.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return chatter_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *gormMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (chatter.Message, error) {
	var m chatter.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chatter.Message{}, chatter_errors.ErrNotFound
		}
		return chatter.Message{}, err
	}
	return m, nil
}

func (r *gormMessageRepository) Update(ctx context.Context, m *chatter.Message) error {
	res := r.db.WithContext(ctx).
		Model(&chatter.Message{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"content":    m.Content,
			"plain_text": m.PlainText,
			"state":      m.State,
			"is_edited":  m.IsEdited,
			"updated_at": m.UpdatedAt,
			"deleted_at": m.DeletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chatter_errors.ErrNotFound
	}
	return nil
}

func (r *gormMessageRepository) ListThreads(ctx context.Context, projectID uuid.UUID, cursor *ThreadCursor, limit int) ([]chatter.Message, error) {
	q := r.db.WithContext(ctx).
		Where("project_id = ? AND kind = ? AND deleted_at IS NULL", projectID, chatter.KindThread)

	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.Before, cursor.BeforeID)
	}

	var threads []chatter.Message
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&threads).Error
	if err != nil {
		return nil, err
	}
	return threads, nil
}

func (r *gormMessageRepository) ListReplies(ctx context.Context, threadID uuid.UUID) ([]chatter.Message, error) {
	var replies []chatter.Message
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}

func (r *gormMessageRepository) CountReplies(ctx context.Context, threadID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&chatter.Message{}).
		Where("thread_id = ? AND state = ?", threadID, chatter.StateLive).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *gormMessageRepository) TombstoneReplies(ctx context.Context, threadID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&chatter.Message{}).
		Where("thread_id = ? AND state = ?", threadID, chatter.StateLive).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	res := r.db.WithContext(ctx).
		Model(&chatter.Message{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"state":      chatter.StateTombstoned,
			"content":    "",
			"plain_text": "",
			"deleted_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return ids, nil
}

func (r *gormMessageRepository) ReplaceMentions(ctx context.Context, messageID uuid.UUID, mentions []chatter.Mention) error {
	if err := r.db.WithContext(ctx).
		Delete(&chatter.Mention{}, "message_id = ?", messageID).Error; err != nil {
		return err
	}
	if len(mentions) == 0 {
		return nil
	}
	for i := range mentions {
		mentions[i].MessageID = messageID
	}
	return r.db.WithContext(ctx).Create(&mentions).Error
}

func (r *gormMessageRepository) GetMentions(ctx context.Context, messageID uuid.UUID) ([]chatter.Mention, error) {
	var mentions []chatter.Mention
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&mentions).Error
	if err != nil {
		return nil, err
	}
	return mentions, nil
}

func (r *gormMessageRepository) DistinctReplyAuthors(ctx context.Context, threadID uuid.UUID) ([]uuid.UUID, error) {
	var authors []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&chatter.Message{}).
		Distinct("author_id").
		Where("thread_id = ? AND state = ?", threadID, chatter.StateLive).
		Pluck("author_id", &authors).Error
	if err != nil {
		return nil, err
	}
	return authors, nil
}
