package models

import "time"

type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueCompleted  QueueStatus = "completed"
	QueueFailed     QueueStatus = "failed"
)

// PaymentQueue is a durable charge awaiting asynchronous submission to the
// payment provider. Rows are mutated only by services.PaymentQueueService.
type PaymentQueue struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Reference   string      `gorm:"type:varchar(36);uniqueIndex;not null" json:"reference"`
	SessionID   *uint       `gorm:"index" json:"session_id,omitempty"`
	TableName   string      `gorm:"type:varchar(100);not null" json:"table_name"`
	AmountCents int64       `gorm:"not null" json:"amount_cents"`
	TipCents    int64       `gorm:"not null;default:0" json:"tip_cents"`
	Status      QueueStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RetryCount  int         `gorm:"not null;default:0" json:"retry_count"`
	LastError   string      `gorm:"type:text" json:"last_error,omitempty"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty"`
	CreatedAt   time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updated_at"`
}
