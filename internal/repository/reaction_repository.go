package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatter-server/internal/domain/chatter"
)

type gormReactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &gormReactionRepository{db: db}
}

// Add relies on ON CONFLICT DO NOTHING so concurrent reactors on the
// same emoji commute: each insert touches only its own
// (message, user, emoji) row, never the whole reaction list.
func (r *gormReactionRepository) Add(ctx context.Context, reaction *chatter.Reaction) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(reaction)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormReactionRepository) Remove(ctx context.Context, messageID, userID uuid.UUID, emoji string) (bool, error) {
	res := r.db.WithContext(ctx).
		Delete(&chatter.Reaction{}, "message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormReactionRepository) GroupsByMessage(ctx context.Context, messageID uuid.UUID) ([]chatter.ReactionGroup, error) {
	var rows []chatter.Reaction
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make([]chatter.ReactionGroup, 0, 4)
	index := make(map[string]int, 4)
	for _, row := range rows {
		i, ok := index[row.Emoji]
		if !ok {
			i = len(grouped)
			index[row.Emoji] = i
			grouped = append(grouped, chatter.ReactionGroup{Emoji: row.Emoji})
		}
		grouped[i].Users = append(grouped[i].Users, row.UserID)
	}
	return grouped, nil
}
