package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chatter-server/internal/domain/activity"
	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/domain/notification"
	"chatter-server/internal/domain/outbox"
	"chatter-server/internal/domain/search"
)

// ThreadCursor is a keyset position in the newest-first thread listing.
type ThreadCursor struct {
	Before   time.Time
	BeforeID uuid.UUID
}

type MessageRepository interface {
	Create(ctx context.Context, m *chatter.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (chatter.Message, error)
	Update(ctx context.Context, m *chatter.Message) error
	ListThreads(ctx context.Context, projectID uuid.UUID, cursor *ThreadCursor, limit int) ([]chatter.Message, error)
	ListReplies(ctx context.Context, threadID uuid.UUID) ([]chatter.Message, error)
	CountReplies(ctx context.Context, threadID uuid.UUID) (int64, error)
	// TombstoneReplies strips all live replies of a thread and returns
	// the ids it touched so the caller can purge the search index.
	TombstoneReplies(ctx context.Context, threadID uuid.UUID, at time.Time) ([]uuid.UUID, error)
	ReplaceMentions(ctx context.Context, messageID uuid.UUID, mentions []chatter.Mention) error
	GetMentions(ctx context.Context, messageID uuid.UUID) ([]chatter.Mention, error)
	// DistinctReplyAuthors returns the authors of live replies under a
	// thread, excluding none; ordering is unspecified.
	DistinctReplyAuthors(ctx context.Context, threadID uuid.UUID) ([]uuid.UUID, error)
}

type ReactionRepository interface {
	// Add inserts the (message, user, emoji) row and reports whether a
	// new row was written; an existing row is left untouched.
	Add(ctx context.Context, r *chatter.Reaction) (bool, error)
	Remove(ctx context.Context, messageID, userID uuid.UUID, emoji string) (bool, error)
	GroupsByMessage(ctx context.Context, messageID uuid.UUID) ([]chatter.ReactionGroup, error)
}

type ReceiptRepository interface {
	Upsert(ctx context.Context, threadID, userID uuid.UUID, at time.Time) error
	ListByThread(ctx context.Context, threadID uuid.UUID) ([]chatter.ReadReceipt, error)
}

type AttachmentRepository interface {
	Create(ctx context.Context, a *chatter.AttachmentRef) error
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]chatter.AttachmentRef, error)
	GetByMessage(ctx context.Context, messageID uuid.UUID) ([]chatter.AttachmentRef, error)
	// Link binds already-registered refs to a persisted message.
	Link(ctx context.Context, ids []uuid.UUID, messageID, threadID uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int, mimeType string) ([]chatter.AttachmentRef, bool, error)
}

type RosterRepository interface {
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]chatter.RosterUser, error)
	Get(ctx context.Context, projectID, userID uuid.UUID) (chatter.RosterUser, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) error
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]notification.Notification, error)
	// MarkRead flips IsRead and reports whether the row actually changed.
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) (bool, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	// Delete removes one notification and reports whether it existed and
	// whether it was still unread at removal time.
	Delete(ctx context.Context, id, recipientID uuid.UUID) (deleted bool, wasUnread bool, err error)
	// DeleteAll clears the recipient's notifications and returns how many
	// unread rows were removed.
	DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error)
	// Counter mutations are single atomic UPDATE statements, never
	// read-modify-write.
	IncrementUnread(ctx context.Context, userID uuid.UUID, n int64) error
	DecrementUnread(ctx context.Context, userID uuid.UUID, n int64) error
	GetUnread(ctx context.Context, userID uuid.UUID) (int64, error)
}

type SearchRepository interface {
	Upsert(ctx context.Context, e *search.Entry) error
	// Remove drops entries from the index and appends them to the
	// deletion log in the same statement batch.
	Remove(ctx context.Context, messageIDs []uuid.UUID, at time.Time) error
	Query(ctx context.Context, projectID uuid.UUID, q string, limit int) ([]search.Entry, error)
}

type ActivityRepository interface {
	Create(ctx context.Context, e *activity.Entry) error
	ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int, actionType string) ([]activity.Entry, bool, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, e *outbox.Event) error
	GetPending(ctx context.Context, limit int) ([]outbox.Event, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error
}

// Repositories bundles every repository over one database handle, so a
// unit of work can hand services a transactional view of all of them.
type Repositories struct {
	Messages      MessageRepository
	Reactions     ReactionRepository
	Receipts      ReceiptRepository
	Attachments   AttachmentRepository
	Roster        RosterRepository
	Notifications NotificationRepository
	Search        SearchRepository
	Activity      ActivityRepository
	Outbox        OutboxRepository
}

// UnitOfWork runs a function against repositories bound to a single
// transaction. Repos() returns non-transactional repositories for plain
// reads.
type UnitOfWork interface {
	Repos() Repositories
	Do(ctx context.Context, fn func(r Repositories) error) error
}
