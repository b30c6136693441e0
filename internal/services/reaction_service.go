package services

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/events"
	"chatter-server/internal/repository"
	chatter_errors "chatter-server/pkg/errors"
	"chatter-server/pkg/logger"
)

const maxEmojiLen = 32

// ReactionService implements toggle semantics: the same user reacting
// with the same emoji twice ends at the starting state. Insert and
// remove are both conditional single statements, so two concurrent
// toggles from different users never clobber each other.
type ReactionService struct {
	uow      repository.UnitOfWork
	notifier *NotificationService
	log      *logger.Logger
}

func NewReactionService(uow repository.UnitOfWork, notifier *NotificationService, log *logger.Logger) *ReactionService {
	return &ReactionService{uow: uow, notifier: notifier, log: log}
}

// Toggle flips the (message, user, emoji) reaction and returns the
// message's reaction groups after the flip.
func (s *ReactionService) Toggle(ctx context.Context, messageID, userID uuid.UUID, emoji string) ([]chatter.ReactionGroup, error) {
	if emoji == "" || utf8.RuneCountInString(emoji) > maxEmojiLen {
		return nil, chatter_errors.ErrInvalidInput
	}

	var groups []chatter.ReactionGroup
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		msg, err := r.Messages.GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if !msg.IsLive() {
			return chatter_errors.ErrNotFound
		}

		inserted, err := r.Reactions.Add(ctx, &chatter.Reaction{
			MessageID: messageID,
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			if _, err := r.Reactions.Remove(ctx, messageID, userID, emoji); err != nil {
				return err
			}
		}

		groups, err = r.Reactions.GroupsByMessage(ctx, messageID)
		if err != nil {
			return err
		}

		if err := recordEvent(ctx, r, events.EventReactionUpdated, events.AggregateReaction, messageID.String(), &msg.ProjectID, nil, map[string]interface{}{
			"message_id": messageID,
			"thread_id":  msg.ThreadID,
			"reactions":  groups,
		}); err != nil {
			return err
		}

		if inserted {
			return s.notifier.fanoutReaction(ctx, r, msg, userID, emoji)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []chatter.ReactionGroup{}
	}
	return groups, nil
}
