package models

import "time"

type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableMaintenance TableStatus = "maintenance"
)

// Table is a physical billing unit (one pool table). HourlyRateCents is the
// per-table rate; when zero the venue default from Settings applies.
type Table struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	Name             string      `gorm:"type:varchar(100);not null" json:"name"`
	TableNumber      int         `gorm:"uniqueIndex;not null" json:"table_number"`
	Status           TableStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	HourlyRateCents  int64       `gorm:"not null;default:1500" json:"hourly_rate_cents"`
	TimeLimitMinutes *int        `json:"time_limit_minutes,omitempty"`
	CreatedAt        time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"not null" json:"updated_at"`
}
