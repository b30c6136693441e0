package repository

import (
	"context"

	"gorm.io/gorm"
)

type gormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func buildRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Messages:      NewMessageRepository(db),
		Reactions:     NewReactionRepository(db),
		Receipts:      NewReceiptRepository(db),
		Attachments:   NewAttachmentRepository(db),
		Roster:        NewRosterRepository(db),
		Notifications: NewNotificationRepository(db),
		Search:        NewSearchRepository(db),
		Activity:      NewActivityRepository(db),
		Outbox:        NewOutboxRepository(db),
	}
}

func (u *gormUnitOfWork) Repos() Repositories {
	return buildRepositories(u.db)
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(r Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepositories(tx))
	})
}
