package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/events"
	"chatter-server/internal/mentions"
	"chatter-server/internal/repository"
	"chatter-server/pkg/logger"

	chatter_errors "chatter-server/pkg/errors"
)

const (
	defaultThreadPageSize = 20
	maxThreadPageSize     = 100
)

// ChatterService owns the thread/reply entity graph: creation, edits,
// soft deletes and feed listing. Every successful write appends its
// realtime event and keeps the search projection in step inside the
// same transaction.
type ChatterService struct {
	uow      repository.UnitOfWork
	notifier *NotificationService
	log      *logger.Logger
}

func NewChatterService(uow repository.UnitOfWork, notifier *NotificationService, log *logger.Logger) *ChatterService {
	return &ChatterService{uow: uow, notifier: notifier, log: log}
}

// CreateThreadInput carries the editor's output: sanitized HTML plus
// its plain-text extraction. Mentions are resolved server-side from
// the plain text; any client-proposed mention list is advisory only.
type CreateThreadInput struct {
	ProjectID     uuid.UUID
	AuthorID      uuid.UUID
	Content       string
	PlainText     string
	AttachmentIDs []uuid.UUID
}

type CreateReplyInput struct {
	ThreadID      uuid.UUID
	AuthorID      uuid.UUID
	Content       string
	PlainText     string
	AttachmentIDs []uuid.UUID
}

func (s *ChatterService) CreateThread(ctx context.Context, in CreateThreadInput) (ThreadView, error) {
	if err := validateContent(in.Content, chatter.MaxThreadContentLen); err != nil {
		return ThreadView{}, err
	}

	var view ThreadView
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		if _, err := r.Roster.Get(ctx, in.ProjectID, in.AuthorID); err != nil {
			if errors.Is(err, chatter_errors.ErrNotFound) {
				return chatter_errors.ErrUnauthorized
			}
			return err
		}

		roster, err := r.Roster.ListByProject(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		resolved := mentions.Resolve(in.PlainText, roster)

		now := time.Now()
		msg := chatter.Message{
			ID:        uuid.New(),
			ProjectID: in.ProjectID,
			AuthorID:  in.AuthorID,
			Kind:      chatter.KindThread,
			State:     chatter.StateLive,
			Content:   in.Content,
			PlainText: in.PlainText,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.Messages.Create(ctx, &msg); err != nil {
			return err
		}
		if err := r.Messages.ReplaceMentions(ctx, msg.ID, resolved); err != nil {
			return err
		}
		if err := linkAttachments(ctx, r, in.AttachmentIDs, &msg, msg.ID); err != nil {
			return err
		}
		if err := indexMessage(ctx, r, msg); err != nil {
			return err
		}

		view, err = loadThreadView(ctx, r, msg)
		if err != nil {
			return err
		}
		if err := recordEvent(ctx, r, events.EventThreadCreated, events.AggregateMessage, msg.ID.String(), &msg.ProjectID, nil, view); err != nil {
			return err
		}
		return s.notifier.fanoutMentions(ctx, r, msg, resolved)
	})
	if err != nil {
		return ThreadView{}, err
	}
	return view, nil
}

func (s *ChatterService) CreateReply(ctx context.Context, in CreateReplyInput) (MessageView, error) {
	if err := validateContent(in.Content, chatter.MaxReplyContentLen); err != nil {
		return MessageView{}, err
	}

	var view MessageView
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		thread, err := r.Messages.GetByID(ctx, in.ThreadID)
		if err != nil {
			return err
		}
		if thread.Kind != chatter.KindThread {
			return chatter_errors.ErrInvalidInput
		}
		if !thread.IsLive() {
			return chatter_errors.ErrThreadDeleted
		}
		if _, err := r.Roster.Get(ctx, thread.ProjectID, in.AuthorID); err != nil {
			if errors.Is(err, chatter_errors.ErrNotFound) {
				return chatter_errors.ErrUnauthorized
			}
			return err
		}

		count, err := r.Messages.CountReplies(ctx, thread.ID)
		if err != nil {
			return err
		}
		if count >= chatter.MaxRepliesPerThread {
			return chatter_errors.ErrReplyLimitReached
		}

		roster, err := r.Roster.ListByProject(ctx, thread.ProjectID)
		if err != nil {
			return err
		}
		resolved := mentions.Resolve(in.PlainText, roster)

		now := time.Now()
		msg := chatter.Message{
			ID:        uuid.New(),
			ProjectID: thread.ProjectID,
			ThreadID:  &thread.ID,
			AuthorID:  in.AuthorID,
			Kind:      chatter.KindReply,
			State:     chatter.StateLive,
			Content:   in.Content,
			PlainText: in.PlainText,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := r.Messages.Create(ctx, &msg); err != nil {
			return err
		}
		if err := r.Messages.ReplaceMentions(ctx, msg.ID, resolved); err != nil {
			return err
		}
		if err := linkAttachments(ctx, r, in.AttachmentIDs, &msg, thread.ID); err != nil {
			return err
		}
		if err := indexMessage(ctx, r, msg); err != nil {
			return err
		}

		view, err = loadMessageView(ctx, r, msg)
		if err != nil {
			return err
		}
		if err := recordEvent(ctx, r, events.EventReplyCreated, events.AggregateMessage, msg.ID.String(), &msg.ProjectID, nil, view); err != nil {
			return err
		}
		return s.notifier.fanoutReply(ctx, r, thread, msg, resolved)
	})
	if err != nil {
		return MessageView{}, err
	}
	return view, nil
}

// EditMessage replaces the whole content field, last writer wins. No
// merge is attempted between concurrent editors.
func (s *ChatterService) EditMessage(ctx context.Context, messageID, editorID uuid.UUID, content, plainText string) (MessageView, error) {
	var view MessageView
	err := s.uow.Do(ctx, func(r repository.Repositories) error {
		msg, err := r.Messages.GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if !msg.IsLive() {
			return chatter_errors.ErrNotFound
		}
		if msg.AuthorID != editorID {
			return chatter_errors.ErrNotOwner
		}

		limit := chatter.MaxThreadContentLen
		if msg.Kind == chatter.KindReply {
			limit = chatter.MaxReplyContentLen
		}
		if err := validateContent(content, limit); err != nil {
			return err
		}

		if content == msg.Content && plainText == msg.PlainText {
			// No real change; IsEdited stays as it was.
			view, err = loadMessageView(ctx, r, msg)
			return err
		}

		previous, err := r.Messages.GetMentions(ctx, msg.ID)
		if err != nil {
			return err
		}

		roster, err := r.Roster.ListByProject(ctx, msg.ProjectID)
		if err != nil {
			return err
		}
		resolved := mentions.Resolve(plainText, roster)

		msg.Content = content
		msg.PlainText = plainText
		msg.IsEdited = true
		msg.UpdatedAt = time.Now()
		if err := r.Messages.Update(ctx, &msg); err != nil {
			return err
		}
		if err := r.Messages.ReplaceMentions(ctx, msg.ID, resolved); err != nil {
			return err
		}
		if err := indexMessage(ctx, r, msg); err != nil {
			return err
		}

		view, err = loadMessageView(ctx, r, msg)
		if err != nil {
			return err
		}

		eventType := events.EventThreadUpdated
		if msg.Kind == chatter.KindReply {
			eventType = events.EventReplyUpdated
		}
		if err := recordEvent(ctx, r, eventType, events.AggregateMessage, msg.ID.String(), &msg.ProjectID, nil, view); err != nil {
			return err
		}

		// Only users mentioned for the first time get notified.
		added := mentionsAdded(previous, resolved)
		return s.notifier.fanoutMentions(ctx, r, msg, added)
	})
	if err != nil {
		return MessageView{}, err
	}
	return view, nil
}

// DeleteMessage soft-deletes. Deleting a thread cascades tombstones to
// its replies and purges all of them from the search index in the same
// transaction. Deleting twice is not an error.
func (s *ChatterService) DeleteMessage(ctx context.Context, messageID, actorID uuid.UUID) error {
	return s.uow.Do(ctx, func(r repository.Repositories) error {
		msg, err := r.Messages.GetByID(ctx, messageID)
		if err != nil {
			if errors.Is(err, chatter_errors.ErrNotFound) {
				return nil
			}
			return err
		}
		if !msg.IsLive() {
			return nil
		}

		if msg.AuthorID != actorID {
			member, err := r.Roster.Get(ctx, msg.ProjectID, actorID)
			if err != nil || member.Role != chatter.RoleModerator {
				return chatter_errors.ErrNotOwner
			}
		}

		now := time.Now()
		removed := []uuid.UUID{msg.ID}
		if msg.Kind == chatter.KindThread {
			replyIDs, err := r.Messages.TombstoneReplies(ctx, msg.ID, now)
			if err != nil {
				return err
			}
			removed = append(removed, replyIDs...)
		}

		msg.Tombstone(now)
		if err := r.Messages.Update(ctx, &msg); err != nil {
			return err
		}
		if err := r.Search.Remove(ctx, removed, now); err != nil {
			return err
		}

		eventType := events.EventThreadDeleted
		if msg.Kind == chatter.KindReply {
			eventType = events.EventReplyDeleted
		}
		return recordEvent(ctx, r, eventType, events.AggregateMessage, msg.ID.String(), &msg.ProjectID, nil, map[string]interface{}{
			"id":         msg.ID,
			"thread_id":  msg.ThreadID,
			"project_id": msg.ProjectID,
			"deleted_at": now,
		})
	})
}

// ListThreads returns the project feed newest-first. Replies come back
// in full; threads are keyset-paginated.
func (s *ChatterService) ListThreads(ctx context.Context, projectID uuid.UUID, cursor string, pageSize int) ([]ThreadView, string, error) {
	decoded, err := decodeThreadCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	if pageSize <= 0 {
		pageSize = defaultThreadPageSize
	}
	if pageSize > maxThreadPageSize {
		pageSize = maxThreadPageSize
	}

	r := s.uow.Repos()
	threads, err := r.Messages.ListThreads(ctx, projectID, decoded, pageSize)
	if err != nil {
		return nil, "", err
	}

	views := make([]ThreadView, 0, len(threads))
	for _, thread := range threads {
		view, err := loadThreadView(ctx, r, thread)
		if err != nil {
			return nil, "", err
		}
		views = append(views, view)
	}

	next := ""
	if len(threads) == pageSize {
		last := threads[len(threads)-1]
		next = encodeThreadCursor(last.CreatedAt, last.ID)
	}
	return views, next, nil
}

func (s *ChatterService) GetThread(ctx context.Context, threadID uuid.UUID) (ThreadView, error) {
	r := s.uow.Repos()
	thread, err := r.Messages.GetByID(ctx, threadID)
	if err != nil {
		return ThreadView{}, err
	}
	if thread.Kind != chatter.KindThread || !thread.IsLive() {
		return ThreadView{}, chatter_errors.ErrNotFound
	}
	return loadThreadView(ctx, r, thread)
}

func validateContent(content string, limit int) error {
	if content == "" {
		return chatter_errors.ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > limit {
		return chatter_errors.ErrContentTooLong
	}
	return nil
}

func linkAttachments(ctx context.Context, r repository.Repositories, ids []uuid.UUID, msg *chatter.Message, threadID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	refs, err := r.Attachments.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(refs) != len(ids) {
		return chatter_errors.ErrInvalidInput
	}
	for _, ref := range refs {
		if ref.ProjectID != msg.ProjectID || ref.MessageID != nil {
			return chatter_errors.ErrInvalidInput
		}
	}
	return r.Attachments.Link(ctx, ids, msg.ID, threadID)
}

func mentionsAdded(previous, current []chatter.Mention) []chatter.Mention {
	known := make(map[uuid.UUID]struct{}, len(previous))
	for _, m := range previous {
		known[m.UserID] = struct{}{}
	}
	var added []chatter.Mention
	for _, m := range current {
		if _, ok := known[m.UserID]; !ok {
			added = append(added, m)
		}
	}
	return added
}
