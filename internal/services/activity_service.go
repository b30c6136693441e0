package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chatter-server/internal/domain/activity"
	"chatter-server/internal/events"
	"chatter-server/internal/repository"
	chatter_errors "chatter-server/pkg/errors"
)

const (
	defaultActivityPageSize = 25
	maxActivityPageSize     = 100
)

// ActivityService keeps the append-only audit trail of project actions
// alongside the feed. Entries never mutate after insert.
type ActivityService struct {
	uow repository.UnitOfWork
}

func NewActivityService(uow repository.UnitOfWork) *ActivityService {
	return &ActivityService{uow: uow}
}

type RecordActivityInput struct {
	ProjectID  uuid.UUID
	ActorID    uuid.UUID
	ActionType string
	Field      string
	OldValue   string
	NewValue   string
}

func (s *ActivityService) Record(ctx context.Context, in RecordActivityInput) (activity.Entry, error) {
	if in.ActionType == "" {
		return activity.Entry{}, chatter_errors.ErrInvalidInput
	}

	entry := activity.Entry{
		ID:         uuid.New(),
		ProjectID:  in.ProjectID,
		ActorID:    in.ActorID,
		ActionType: in.ActionType,
		Field:      in.Field,
		OldValue:   in.OldValue,
		NewValue:   in.NewValue,
		CreatedAt:  time.Now(),
	}
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		if err := r.Activity.Create(ctx, &entry); err != nil {
			return err
		}
		return recordEvent(ctx, r, events.EventActivityRecorded, events.AggregateActivity, entry.ID.String(), &entry.ProjectID, nil, entry)
	})
	if err != nil {
		return activity.Entry{}, err
	}
	return entry, nil
}

func (s *ActivityService) List(ctx context.Context, projectID uuid.UUID, limit, offset int, actionType string) ([]activity.Entry, bool, error) {
	if limit <= 0 {
		limit = defaultActivityPageSize
	}
	if limit > maxActivityPageSize {
		limit = maxActivityPageSize
	}
	if offset < 0 {
		offset = 0
	}
	entries, hasMore, err := s.uow.Repos().Activity.ListByProject(ctx, projectID, limit, offset, actionType)
	if err != nil {
		return nil, false, err
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return entries, hasMore, nil
}
