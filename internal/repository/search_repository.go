package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatter-server/internal/domain/search"
)

type gormSearchRepository struct {
	db *gorm.DB
}

func NewSearchRepository(db *gorm.DB) SearchRepository {
	return &gormSearchRepository{db: db}
}

func (r *gormSearchRepository) Upsert(ctx context.Context, e *search.Entry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "message_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"plain_text": e.PlainText,
			}),
		}).
		Create(e).Error
}

func (r *gormSearchRepository) Remove(ctx context.Context, messageIDs []uuid.UUID, at time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}

	deletions := make([]search.Deletion, len(messageIDs))
	for i, id := range messageIDs {
		deletions[i] = search.Deletion{MessageID: id, DeletedAt: at}
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&deletions).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Delete(&search.Entry{}, "message_id IN ?", messageIDs).Error
}

func (r *gormSearchRepository) Query(ctx context.Context, projectID uuid.UUID, q string, limit int) ([]search.Entry, error) {
	var entries []search.Entry
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND plain_text ILIKE ?", projectID, "%"+escapeLike(q)+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// escapeLike neutralizes LIKE metacharacters so a query containing "%"
// or "_" matches them literally.
func escapeLike(q string) string {
	out := make([]byte, 0, len(q))
	for i := 0; i < len(q); i++ {
		switch q[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, q[i])
	}
	return string(out)
}
