package services

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/domain/notification"
	"chatter-server/internal/events"
	"chatter-server/internal/repository"
	"chatter-server/pkg/logger"
)

const (
	defaultNotificationLimit = 50
	previewLen               = 120
)

// NotificationService synthesizes per-recipient notifications from
// mention, reply and reaction events and serves the inbox endpoints.
// The unread badge is a materialized counter updated with atomic
// increments, never recomputed by scanning.
type NotificationService struct {
	uow repository.UnitOfWork
	log *logger.Logger
}

func NewNotificationService(uow repository.UnitOfWork, log *logger.Logger) *NotificationService {
	return &NotificationService{uow: uow, log: log}
}

func (s *NotificationService) List(ctx context.Context, recipientID uuid.UUID, limit int) ([]notification.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultNotificationLimit
	}
	items, err := s.uow.Repos().Notifications.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []notification.Notification{}
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.uow.Repos().Notifications.GetUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.uow.Do(ctx, func(r repository.Repositories) error {
		flipped, err := r.Notifications.MarkRead(ctx, id, recipientID)
		if err != nil {
			return err
		}
		if flipped {
			return r.Notifications.DecrementUnread(ctx, recipientID, 1)
		}
		return nil
	})
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) error {
	return s.uow.Do(ctx, func(r repository.Repositories) error {
		flipped, err := r.Notifications.MarkAllRead(ctx, recipientID)
		if err != nil {
			return err
		}
		return r.Notifications.DecrementUnread(ctx, recipientID, flipped)
	})
}

// Clear removes one notification independently of its source message.
func (s *NotificationService) Clear(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.uow.Do(ctx, func(r repository.Repositories) error {
		deleted, wasUnread, err := r.Notifications.Delete(ctx, id, recipientID)
		if err != nil {
			return err
		}
		if deleted && wasUnread {
			return r.Notifications.DecrementUnread(ctx, recipientID, 1)
		}
		return nil
	})
}

func (s *NotificationService) ClearAll(ctx context.Context, recipientID uuid.UUID) error {
	return s.uow.Do(ctx, func(r repository.Repositories) error {
		unread, err := r.Notifications.DeleteAll(ctx, recipientID)
		if err != nil {
			return err
		}
		return r.Notifications.DecrementUnread(ctx, recipientID, unread)
	})
}

// fanoutMentions notifies every resolved mention except the author.
// Runs inside the message write's transaction.
func (s *NotificationService) fanoutMentions(ctx context.Context, r repository.Repositories, msg chatter.Message, resolved []chatter.Mention) error {
	for _, m := range resolved {
		if m.UserID == msg.AuthorID {
			continue
		}
		if err := s.deliver(ctx, r, notification.TypeMention, m.UserID, msg); err != nil {
			return err
		}
	}
	return nil
}

// fanoutReply notifies the thread author and all prior distinct reply
// authors. A user already receiving a mention notification for this
// reply gets nothing extra: at most one notification per user per
// event, and never one for your own action.
func (s *NotificationService) fanoutReply(ctx context.Context, r repository.Repositories, thread, reply chatter.Message, resolved []chatter.Mention) error {
	if err := s.fanoutMentions(ctx, r, reply, resolved); err != nil {
		return err
	}

	mentioned := make(map[uuid.UUID]struct{}, len(resolved))
	for _, m := range resolved {
		mentioned[m.UserID] = struct{}{}
	}

	recipients := make(map[uuid.UUID]struct{})
	recipients[thread.AuthorID] = struct{}{}
	authors, err := r.Messages.DistinctReplyAuthors(ctx, thread.ID)
	if err != nil {
		return err
	}
	for _, a := range authors {
		recipients[a] = struct{}{}
	}

	for recipient := range recipients {
		if recipient == reply.AuthorID {
			continue
		}
		if _, already := mentioned[recipient]; already {
			continue
		}
		if err := s.deliver(ctx, r, notification.TypeReply, recipient, reply); err != nil {
			return err
		}
	}
	return nil
}

// fanoutReaction notifies the message author about a toggle-on.
// Self-reactions stay silent.
func (s *NotificationService) fanoutReaction(ctx context.Context, r repository.Repositories, msg chatter.Message, reactorID uuid.UUID, emoji string) error {
	if msg.AuthorID == reactorID {
		return nil
	}
	n := s.build(notification.TypeReaction, msg.AuthorID, msg)
	n.ActorID = reactorID
	n.Preview = emoji
	return s.persist(ctx, r, n)
}

func (s *NotificationService) deliver(ctx context.Context, r repository.Repositories, kind notification.Type, recipientID uuid.UUID, msg chatter.Message) error {
	return s.persist(ctx, r, s.build(kind, recipientID, msg))
}

func (s *NotificationService) build(kind notification.Type, recipientID uuid.UUID, msg chatter.Message) *notification.Notification {
	threadID := msg.ID
	if msg.ThreadID != nil {
		threadID = *msg.ThreadID
	}
	return &notification.Notification{
		ID:              uuid.New(),
		RecipientID:     recipientID,
		Type:            kind,
		ProjectID:       msg.ProjectID,
		SourceThreadID:  threadID,
		SourceMessageID: msg.ID,
		ActorID:         msg.AuthorID,
		Preview:         truncatePreview(msg.PlainText),
		CreatedAt:       time.Now(),
	}
}

func (s *NotificationService) persist(ctx context.Context, r repository.Repositories, n *notification.Notification) error {
	if err := r.Notifications.Create(ctx, n); err != nil {
		return err
	}
	if err := r.Notifications.IncrementUnread(ctx, n.RecipientID, 1); err != nil {
		return err
	}
	recipient := n.RecipientID
	return recordEvent(ctx, r, events.EventNotificationNew, events.AggregateNotification, n.ID.String(), &n.ProjectID, &recipient, n)
}

func truncatePreview(text string) string {
	if utf8.RuneCountInString(text) <= previewLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLen]) + "…"
}
