package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the processing state of an outbox event
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Event stores domain events waiting to be published to Redis. Rows are
// written in the same transaction as the state change they describe, so
// a committed write is never lost even when the realtime push fails.
type Event struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	EventType     string     `gorm:"type:varchar(50);not null"`
	AggregateType string     `gorm:"type:varchar(50);not null"`
	AggregateID   string     `gorm:"type:varchar(36);not null"`
	ProjectID     *uuid.UUID `gorm:"type:uuid"`
	RecipientID   *uuid.UUID `gorm:"type:uuid"`
	Payload       []byte     `gorm:"type:jsonb;not null"`
	Status        Status     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	RetryCount    int        `gorm:"default:0"`
	Error         string     `gorm:"type:text"`
	CreatedAt     time.Time  `gorm:"not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"not null;default:now()"`
	ProcessedAt   *time.Time
}

// TableName returns the database table name
func (Event) TableName() string {
	return "outbox_events"
}
