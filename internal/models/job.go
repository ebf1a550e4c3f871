package models

import "time"

// Job statuses
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusDead      = "dead"
)

// Job types
const (
	JobTypeOrderNotify    = "order.notify"
	JobTypeProviderCancel = "provider.cancel"
)

// Job is a durable background task. Enqueue persists the row before the
// caller returns; workers claim rows with SKIP LOCKED and retry failures with
// exponential backoff until MaxAttempts, after which the job is parked in the
// dead state for manual inspection rather than dropped.
type Job struct {
	ID          uint      `gorm:"primarykey"`
	Type        string    `gorm:"index;not null"`
	Payload     JSON      `gorm:"type:jsonb"`
	Status      string    `gorm:"index;not null;default:'pending'"`
	Attempts    int       `gorm:"not null;default:0"`
	MaxAttempts int       `gorm:"not null;default:5"`
	NextRunAt   time.Time `gorm:"index;not null"`
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}
