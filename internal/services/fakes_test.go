package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chatter-server/internal/domain/activity"
	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/domain/notification"
	"chatter-server/internal/domain/outbox"
	"chatter-server/internal/domain/search"
	"chatter-server/internal/repository"
	chatter_errors "chatter-server/pkg/errors"
	"chatter-server/pkg/logger"
)

// memStore backs the in-memory repositories used by service tests. All
// repositories share one store, mirroring how the real ones share one
// database handle.
type memStore struct {
	mu sync.Mutex

	messages      map[uuid.UUID]chatter.Message
	mentions      map[uuid.UUID][]chatter.Mention
	reactions     []chatter.Reaction
	receipts      map[uuid.UUID]map[uuid.UUID]time.Time
	attachments   map[uuid.UUID]chatter.AttachmentRef
	roster        []chatter.RosterUser
	notifications map[uuid.UUID]notification.Notification
	counters      map[uuid.UUID]int64
	searchEntries map[uuid.UUID]search.Entry
	searchDeleted map[uuid.UUID]time.Time
	activities    []activity.Entry
	outbox        []outbox.Event
}

func newMemStore() *memStore {
	return &memStore{
		messages:      map[uuid.UUID]chatter.Message{},
		mentions:      map[uuid.UUID][]chatter.Mention{},
		receipts:      map[uuid.UUID]map[uuid.UUID]time.Time{},
		attachments:   map[uuid.UUID]chatter.AttachmentRef{},
		notifications: map[uuid.UUID]notification.Notification{},
		counters:      map[uuid.UUID]int64{},
		searchEntries: map[uuid.UUID]search.Entry{},
		searchDeleted: map[uuid.UUID]time.Time{},
	}
}

// memUnitOfWork satisfies repository.UnitOfWork; Do runs the function
// directly since the in-memory store has no transactions to manage.
type memUnitOfWork struct {
	repos repository.Repositories
}

func newMemUnitOfWork(st *memStore) *memUnitOfWork {
	return &memUnitOfWork{repos: repository.Repositories{
		Messages:      &memMessageRepo{st: st},
		Reactions:     &memReactionRepo{st: st},
		Receipts:      &memReceiptRepo{st: st},
		Attachments:   &memAttachmentRepo{st: st},
		Roster:        &memRosterRepo{st: st},
		Notifications: &memNotificationRepo{st: st},
		Search:        &memSearchRepo{st: st},
		Activity:      &memActivityRepo{st: st},
		Outbox:        &memOutboxRepo{st: st},
	}}
}

func (u *memUnitOfWork) Repos() repository.Repositories { return u.repos }

func (u *memUnitOfWork) Do(ctx context.Context, fn func(r repository.Repositories) error) error {
	return fn(u.repos)
}

func testLogger() *logger.Logger {
	return logger.New(logger.DevelopmentMode)
}

// --- messages ---

type memMessageRepo struct{ st *memStore }

func (r *memMessageRepo) Create(ctx context.Context, m *chatter.Message) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.messages[m.ID]; ok {
		return chatter_errors.ErrAlreadyExists
	}
	r.st.messages[m.ID] = *m
	return nil
}

func (r *memMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (chatter.Message, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	m, ok := r.st.messages[id]
	if !ok {
		return chatter.Message{}, chatter_errors.ErrNotFound
	}
	return m, nil
}

func (r *memMessageRepo) Update(ctx context.Context, m *chatter.Message) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	stored, ok := r.st.messages[m.ID]
	if !ok {
		return chatter_errors.ErrNotFound
	}
	stored.Content = m.Content
	stored.PlainText = m.PlainText
	stored.State = m.State
	stored.IsEdited = m.IsEdited
	stored.UpdatedAt = m.UpdatedAt
	stored.DeletedAt = m.DeletedAt
	r.st.messages[m.ID] = stored
	return nil
}

func (r *memMessageRepo) ListThreads(ctx context.Context, projectID uuid.UUID, cursor *repository.ThreadCursor, limit int) ([]chatter.Message, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var threads []chatter.Message
	for _, m := range r.st.messages {
		if m.ProjectID != projectID || m.Kind != chatter.KindThread || m.DeletedAt != nil {
			continue
		}
		if cursor != nil {
			if m.CreatedAt.After(cursor.Before) {
				continue
			}
			if m.CreatedAt.Equal(cursor.Before) && m.ID.String() >= cursor.BeforeID.String() {
				continue
			}
		}
		threads = append(threads, m)
	}
	sort.Slice(threads, func(i, j int) bool {
		if !threads[i].CreatedAt.Equal(threads[j].CreatedAt) {
			return threads[i].CreatedAt.After(threads[j].CreatedAt)
		}
		return threads[i].ID.String() > threads[j].ID.String()
	})
	if len(threads) > limit {
		threads = threads[:limit]
	}
	return threads, nil
}

func (r *memMessageRepo) ListReplies(ctx context.Context, threadID uuid.UUID) ([]chatter.Message, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var replies []chatter.Message
	for _, m := range r.st.messages {
		if m.ThreadID != nil && *m.ThreadID == threadID {
			replies = append(replies, m)
		}
	}
	sort.Slice(replies, func(i, j int) bool {
		if !replies[i].CreatedAt.Equal(replies[j].CreatedAt) {
			return replies[i].CreatedAt.Before(replies[j].CreatedAt)
		}
		return replies[i].ID.String() < replies[j].ID.String()
	})
	return replies, nil
}

func (r *memMessageRepo) CountReplies(ctx context.Context, threadID uuid.UUID) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var count int64
	for _, m := range r.st.messages {
		if m.ThreadID != nil && *m.ThreadID == threadID && m.State == chatter.StateLive {
			count++
		}
	}
	return count, nil
}

func (r *memMessageRepo) TombstoneReplies(ctx context.Context, threadID uuid.UUID, at time.Time) ([]uuid.UUID, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var ids []uuid.UUID
	for id, m := range r.st.messages {
		if m.ThreadID != nil && *m.ThreadID == threadID && m.State == chatter.StateLive {
			m.Tombstone(at)
			r.st.messages[id] = m
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memMessageRepo) ReplaceMentions(ctx context.Context, messageID uuid.UUID, mentions []chatter.Mention) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	out := make([]chatter.Mention, len(mentions))
	for i, m := range mentions {
		m.MessageID = messageID
		out[i] = m
	}
	r.st.mentions[messageID] = out
	return nil
}

func (r *memMessageRepo) GetMentions(ctx context.Context, messageID uuid.UUID) ([]chatter.Mention, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return append([]chatter.Mention(nil), r.st.mentions[messageID]...), nil
}

func (r *memMessageRepo) DistinctReplyAuthors(ctx context.Context, threadID uuid.UUID) ([]uuid.UUID, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	seen := map[uuid.UUID]struct{}{}
	var authors []uuid.UUID
	for _, m := range r.st.messages {
		if m.ThreadID != nil && *m.ThreadID == threadID && m.State == chatter.StateLive {
			if _, ok := seen[m.AuthorID]; !ok {
				seen[m.AuthorID] = struct{}{}
				authors = append(authors, m.AuthorID)
			}
		}
	}
	return authors, nil
}

// --- reactions ---

type memReactionRepo struct{ st *memStore }

func (r *memReactionRepo) Add(ctx context.Context, rx *chatter.Reaction) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, existing := range r.st.reactions {
		if existing.MessageID == rx.MessageID && existing.UserID == rx.UserID && existing.Emoji == rx.Emoji {
			return false, nil
		}
	}
	r.st.reactions = append(r.st.reactions, *rx)
	return true, nil
}

func (r *memReactionRepo) Remove(ctx context.Context, messageID, userID uuid.UUID, emoji string) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for i, existing := range r.st.reactions {
		if existing.MessageID == messageID && existing.UserID == userID && existing.Emoji == emoji {
			r.st.reactions = append(r.st.reactions[:i], r.st.reactions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memReactionRepo) GroupsByMessage(ctx context.Context, messageID uuid.UUID) ([]chatter.ReactionGroup, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var groups []chatter.ReactionGroup
	index := map[string]int{}
	for _, rx := range r.st.reactions {
		if rx.MessageID != messageID {
			continue
		}
		i, ok := index[rx.Emoji]
		if !ok {
			i = len(groups)
			index[rx.Emoji] = i
			groups = append(groups, chatter.ReactionGroup{Emoji: rx.Emoji})
		}
		groups[i].Users = append(groups[i].Users, rx.UserID)
	}
	return groups, nil
}

// --- receipts ---

type memReceiptRepo struct{ st *memStore }

func (r *memReceiptRepo) Upsert(ctx context.Context, threadID, userID uuid.UUID, at time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.receipts[threadID] == nil {
		r.st.receipts[threadID] = map[uuid.UUID]time.Time{}
	}
	r.st.receipts[threadID][userID] = at
	return nil
}

func (r *memReceiptRepo) ListByThread(ctx context.Context, threadID uuid.UUID) ([]chatter.ReadReceipt, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []chatter.ReadReceipt
	for userID, at := range r.st.receipts[threadID] {
		out = append(out, chatter.ReadReceipt{ThreadID: threadID, UserID: userID, ReadAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReadAt.After(out[j].ReadAt) })
	return out, nil
}

// --- attachments ---

type memAttachmentRepo struct{ st *memStore }

func (r *memAttachmentRepo) Create(ctx context.Context, a *chatter.AttachmentRef) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.attachments[a.ID] = *a
	return nil
}

func (r *memAttachmentRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]chatter.AttachmentRef, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []chatter.AttachmentRef
	for _, id := range ids {
		if a, ok := r.st.attachments[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAttachmentRepo) GetByMessage(ctx context.Context, messageID uuid.UUID) ([]chatter.AttachmentRef, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []chatter.AttachmentRef
	for _, a := range r.st.attachments {
		if a.MessageID != nil && *a.MessageID == messageID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAttachmentRepo) Link(ctx context.Context, ids []uuid.UUID, messageID, threadID uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, id := range ids {
		a, ok := r.st.attachments[id]
		if !ok || a.MessageID != nil {
			continue
		}
		msgID := messageID
		thrID := threadID
		a.MessageID = &msgID
		a.ThreadID = &thrID
		r.st.attachments[id] = a
	}
	return nil
}

func (r *memAttachmentRepo) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int, mimeType string) ([]chatter.AttachmentRef, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var all []chatter.AttachmentRef
	for _, a := range r.st.attachments {
		if a.ProjectID != projectID || a.MessageID == nil {
			continue
		}
		if mimeType != "" && !strings.HasPrefix(a.MimeType, mimeType) {
			continue
		}
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []chatter.AttachmentRef{}, false, nil
	}
	all = all[offset:]
	hasMore := len(all) > limit
	if hasMore {
		all = all[:limit]
	}
	return all, hasMore, nil
}

// --- roster ---

type memRosterRepo struct{ st *memStore }

func (r *memRosterRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]chatter.RosterUser, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []chatter.RosterUser
	for _, u := range r.st.roster {
		if u.ProjectID == projectID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memRosterRepo) Get(ctx context.Context, projectID, userID uuid.UUID) (chatter.RosterUser, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, u := range r.st.roster {
		if u.ProjectID == projectID && u.UserID == userID {
			return u, nil
		}
	}
	return chatter.RosterUser{}, chatter_errors.ErrNotFound
}

// --- notifications ---

type memNotificationRepo struct{ st *memStore }

func (r *memNotificationRepo) Create(ctx context.Context, n *notification.Notification) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.notifications[n.ID] = *n
	return nil
}

func (r *memNotificationRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]notification.Notification, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []notification.Notification
	for _, n := range r.st.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memNotificationRepo) MarkRead(ctx context.Context, id, recipientID uuid.UUID) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	n, ok := r.st.notifications[id]
	if !ok || n.RecipientID != recipientID || n.IsRead {
		return false, nil
	}
	n.IsRead = true
	r.st.notifications[id] = n
	return true, nil
}

func (r *memNotificationRepo) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var flipped int64
	for id, n := range r.st.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			r.st.notifications[id] = n
			flipped++
		}
	}
	return flipped, nil
}

func (r *memNotificationRepo) Delete(ctx context.Context, id, recipientID uuid.UUID) (bool, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	n, ok := r.st.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return false, false, nil
	}
	delete(r.st.notifications, id)
	return true, !n.IsRead, nil
}

func (r *memNotificationRepo) DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var unread int64
	for id, n := range r.st.notifications {
		if n.RecipientID == recipientID {
			if !n.IsRead {
				unread++
			}
			delete(r.st.notifications, id)
		}
	}
	return unread, nil
}

func (r *memNotificationRepo) IncrementUnread(ctx context.Context, userID uuid.UUID, n int64) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.counters[userID] += n
	return nil
}

func (r *memNotificationRepo) DecrementUnread(ctx context.Context, userID uuid.UUID, n int64) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.counters[userID] -= n
	if r.st.counters[userID] < 0 {
		r.st.counters[userID] = 0
	}
	return nil
}

func (r *memNotificationRepo) GetUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.counters[userID], nil
}

// --- search ---

type memSearchRepo struct{ st *memStore }

func (r *memSearchRepo) Upsert(ctx context.Context, e *search.Entry) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.searchEntries[e.MessageID] = *e
	return nil
}

func (r *memSearchRepo) Remove(ctx context.Context, messageIDs []uuid.UUID, at time.Time) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, id := range messageIDs {
		delete(r.st.searchEntries, id)
		if _, ok := r.st.searchDeleted[id]; !ok {
			r.st.searchDeleted[id] = at
		}
	}
	return nil
}

func (r *memSearchRepo) Query(ctx context.Context, projectID uuid.UUID, q string, limit int) ([]search.Entry, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	needle := strings.ToLower(q)
	var out []search.Entry
	for _, e := range r.st.searchEntries {
		if e.ProjectID == projectID && strings.Contains(strings.ToLower(e.PlainText), needle) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- activity ---

type memActivityRepo struct{ st *memStore }

func (r *memActivityRepo) Create(ctx context.Context, e *activity.Entry) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.activities = append(r.st.activities, *e)
	return nil
}

func (r *memActivityRepo) ListByProject(ctx context.Context, projectID uuid.UUID, limit, offset int, actionType string) ([]activity.Entry, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var all []activity.Entry
	for _, e := range r.st.activities {
		if e.ProjectID != projectID {
			continue
		}
		if actionType != "" && e.ActionType != actionType {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []activity.Entry{}, false, nil
	}
	all = all[offset:]
	hasMore := len(all) > limit
	if hasMore {
		all = all[:limit]
	}
	return all, hasMore, nil
}

// --- outbox ---

type memOutboxRepo struct{ st *memStore }

func (r *memOutboxRepo) Create(ctx context.Context, e *outbox.Event) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.outbox = append(r.st.outbox, *e)
	return nil
}

func (r *memOutboxRepo) GetPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []outbox.Event
	for _, e := range r.st.outbox {
		if e.Status == outbox.StatusPending {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memOutboxRepo) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for i, e := range r.st.outbox {
		if e.ID == id {
			r.st.outbox[i].Status = outbox.StatusCompleted
		}
	}
	return nil
}

func (r *memOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for i, e := range r.st.outbox {
		if e.ID == id {
			r.st.outbox[i].Status = outbox.StatusFailed
			r.st.outbox[i].Error = errorMsg
			r.st.outbox[i].RetryCount++
		}
	}
	return nil
}

// eventsOfType collects outbox payload types for assertions.
func (st *memStore) eventsOfType(eventType string) []outbox.Event {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []outbox.Event
	for _, e := range st.outbox {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
