package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatter-server/internal/domain/chatter"
	chatter_errors "chatter-server/pkg/errors"
)

type gormRosterRepository struct {
	db *gorm.DB
}

func NewRosterRepository(db *gorm.DB) RosterRepository {
	return &gormRosterRepository{db: db}
}

func (r *gormRosterRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]chatter.RosterUser, error) {
	var roster []chatter.RosterUser
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&roster).Error
	if err != nil {
		return nil, err
	}
	return roster, nil
}

func (r *gormRosterRepository) Get(ctx context.Context, projectID, userID uuid.UUID) (chatter.RosterUser, error) {
	var member chatter.RosterUser
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chatter.RosterUser{}, chatter_errors.ErrNotFound
		}
		return chatter.RosterUser{}, err
	}
	return member, nil
}
