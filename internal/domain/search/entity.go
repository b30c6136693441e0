package search

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindThread Kind = "thread"
	KindReply  Kind = "reply"
)

// Entry is the searchable projection of one live message. Rows are
// upserted on create/edit and removed inside the same transaction that
// tombstones the message, so the index never serves deleted content.
type Entry struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey" json:"message_id"`
	ThreadID  uuid.UUID `gorm:"type:uuid;not null" json:"thread_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_search_project" json:"project_id"`
	Kind      Kind      `gorm:"type:varchar(16);not null" json:"kind"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	PlainText string    `gorm:"type:text;not null" json:"plain_text"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Entry) TableName() string { return "search_entries" }

// Deletion is the audit log of index removals. Deleted content is
// excluded from queries but its removal stays traceable.
type Deletion struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey" json:"message_id"`
	DeletedAt time.Time `gorm:"not null" json:"deleted_at"`
}

func (Deletion) TableName() string { return "search_deletions" }

// Result is one search hit with the context a client needs to jump to
// the source thread.
type Result struct {
	Kind      Kind      `json:"type"`
	MessageID uuid.UUID `json:"uuid"`
	ThreadID  uuid.UUID `json:"thread_uuid"`
	AuthorID  uuid.UUID `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Highlight string    `json:"highlight"`
}
