package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeMention  Type = "mention"
	TypeReply    Type = "reply"
	TypeReaction Type = "reaction"
)

// Notification is a per-recipient record derived from a mention, reply
// or reaction event. Its lifecycle is independent of the source message:
// deleting the message does not retract delivered notifications.
type Notification struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID     uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_recipient" json:"recipient_id"`
	Type            Type      `gorm:"type:varchar(16);not null" json:"type"`
	ProjectID       uuid.UUID `gorm:"type:uuid;not null" json:"project_id"`
	SourceThreadID  uuid.UUID `gorm:"type:uuid;not null" json:"source_thread_id"`
	SourceMessageID uuid.UUID `gorm:"type:uuid;not null" json:"source_message_id"`
	ActorID         uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`
	Preview         string    `gorm:"type:text" json:"preview"`
	IsRead          bool      `gorm:"default:false" json:"is_read"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_notifications_recipient,sort:desc" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// UnreadCounter is the materialized per-user badge count. It is only
// ever mutated with atomic increment/decrement updates, never by
// read-modify-write, so concurrent fanouts cannot under-count.
type UnreadCounter struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Unread    int64     `gorm:"not null;default:0" json:"unread"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (UnreadCounter) TableName() string { return "notification_counters" }
