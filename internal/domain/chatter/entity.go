package chatter

import (
	"time"

	"github.com/google/uuid"
)

// MessageKind distinguishes thread roots from replies.
type MessageKind string

const (
	KindThread MessageKind = "THREAD"
	KindReply  MessageKind = "REPLY"
)

// MessageState is the Live/Tombstoned variant of a message. A tombstoned
// message keeps its authorship and timestamps for audit but its content
// is stripped at deletion time.
type MessageState string

const (
	StateLive       MessageState = "LIVE"
	StateTombstoned MessageState = "TOMBSTONED"
)

// Content caps. Threads get more room as discussion topics, replies less
// as responses.
const (
	MaxThreadContentLen = 5000
	MaxReplyContentLen  = 2000
)

// MaxRepliesPerThread bounds a thread so that "replies returned in full"
// stays cheap. Creation beyond the cap is rejected.
const MaxRepliesPerThread = 500

// Message is a thread root or a reply in a project's chatter feed.
// Content holds sanitized HTML produced by the external editor; the
// service never interprets it beyond length. PlainText is the editor's
// text extraction, used for mention resolution and search.
type Message struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID    `gorm:"type:uuid;not null;index:idx_messages_project" json:"project_id"`
	ThreadID  *uuid.UUID   `gorm:"type:uuid;index:idx_messages_thread" json:"thread_id,omitempty"`
	AuthorID  uuid.UUID    `gorm:"type:uuid;not null" json:"author_id"`
	Kind      MessageKind  `gorm:"type:varchar(16);not null" json:"kind"`
	State     MessageState `gorm:"type:varchar(16);not null;default:'LIVE'" json:"state"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	PlainText string       `gorm:"type:text;not null" json:"plain_text"`
	IsEdited  bool         `gorm:"default:false" json:"is_edited"`
	CreatedAt time.Time    `gorm:"default:CURRENT_TIMESTAMP;index:idx_messages_project,sort:desc" json:"created_at"`
	UpdatedAt time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt *time.Time   `json:"deleted_at,omitempty"`

	// Relations
	Mentions    []Mention       `gorm:"foreignKey:MessageID" json:"mentions,omitempty"`
	Reactions   []Reaction      `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`
	Attachments []AttachmentRef `gorm:"foreignKey:MessageID" json:"attachments,omitempty"`
}

func (Message) TableName() string { return "chatter_messages" }

// IsLive reports whether the message is readable.
func (m *Message) IsLive() bool { return m.State == StateLive }

// Tombstone strips the content and marks the message deleted. Authorship
// and timestamps survive for audit.
func (m *Message) Tombstone(at time.Time) {
	m.State = StateTombstoned
	m.Content = ""
	m.PlainText = ""
	m.DeletedAt = &at
	m.UpdatedAt = at
}

// Mention is a resolved reference from message text to a roster user,
// recorded at send/edit time. Later roster changes never rewrite it.
type Mention struct {
	MessageID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"message_id"`
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	DisplayName string    `gorm:"type:text;not null" json:"display_name"`
}

func (Mention) TableName() string { return "chatter_mentions" }

// Reaction is one user's emoji on a message. Uniqueness on
// (message_id, user_id, emoji) makes the toggle idempotent and lets
// concurrent reactors commute.
type Reaction struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Emoji     string    `gorm:"type:varchar(64);primaryKey" json:"emoji"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Reaction) TableName() string { return "chatter_reactions" }

// ReactionGroup is the aggregated per-emoji view returned to clients.
type ReactionGroup struct {
	Emoji string      `json:"emoji"`
	Users []uuid.UUID `json:"users"`
}

// AttachmentRef points at a file held by the external upload service.
// The record is immutable once linked to a message.
type AttachmentRef struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_attachments_project" json:"project_id"`
	ThreadID   *uuid.UUID `gorm:"type:uuid" json:"thread_id,omitempty"`
	MessageID  *uuid.UUID `gorm:"type:uuid;index:idx_attachments_message" json:"message_id,omitempty"`
	UploaderID uuid.UUID  `gorm:"type:uuid;not null" json:"uploader_id"`
	FileName   string     `gorm:"type:text;not null" json:"file_name"`
	URL        string     `gorm:"type:text;not null" json:"url"`
	MimeType   string     `gorm:"type:text;not null" json:"mime_type"`
	FileSize   int64      `gorm:"not null" json:"file_size"`
	CreatedAt  time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AttachmentRef) TableName() string { return "chatter_attachments" }

// ReadReceipt marks a thread as viewed by a user. At most one row per
// (thread, user); re-viewing moves ReadAt forward.
type ReadReceipt struct {
	ThreadID uuid.UUID `gorm:"type:uuid;primaryKey" json:"thread_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	ReadAt   time.Time `gorm:"not null" json:"read_at"`
}

func (ReadReceipt) TableName() string { return "chatter_read_receipts" }

// RosterRole controls moderation rights within a project.
type RosterRole string

const (
	RoleMember    RosterRole = "MEMBER"
	RoleModerator RosterRole = "MODERATOR"
)

// RosterUser is a mentionable member of a project. Rows are maintained
// by the surrounding application; this service only reads them.
type RosterUser struct {
	ProjectID   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"project_id"`
	UserID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	DisplayName string     `gorm:"type:text;not null" json:"display_name"`
	Role        RosterRole `gorm:"type:varchar(16);not null;default:'MEMBER'" json:"role"`
}

func (RosterUser) TableName() string { return "chatter_roster" }
