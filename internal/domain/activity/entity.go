package activity

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one append-only record of a structural project change
// (status flips, field edits). Entries are never updated or deleted.
type Entry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_project" json:"project_id"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null" json:"actor_id"`
	ActionType string    `gorm:"type:varchar(64);not null" json:"action_type"`
	Field      string    `gorm:"type:varchar(128)" json:"field,omitempty"`
	OldValue   string    `gorm:"type:text" json:"old_value,omitempty"`
	NewValue   string    `gorm:"type:text" json:"new_value,omitempty"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_activity_project,sort:desc" json:"created_at"`
}

func (Entry) TableName() string { return "activity_entries" }
