package models

import "time"

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are permitted.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// Session is one timed occupancy of a Table.
//
// Invariants maintained by services.SessionService:
//   - active => PausedAt unset; paused => PausedAt set.
//   - TotalPausedMs only grows, and only when leaving the paused state.
//   - TotalMinutes/TotalChargeCents are written exactly once, on completion.
type Session struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	TableID          uint            `gorm:"not null;index" json:"table_id"`
	Table            Table           `gorm:"foreignKey:TableID" json:"table"`
	Status           SessionStatus   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	StartTime        time.Time       `gorm:"not null" json:"start_time"`
	EndTime          *time.Time      `json:"end_time,omitempty"`
	PausedAt         *time.Time      `json:"paused_at,omitempty"`
	TotalPausedMs    int64           `gorm:"not null;default:0" json:"total_paused_ms"`
	TotalMinutes     *float64        `json:"total_minutes,omitempty"`
	TotalChargeCents *int64          `json:"total_charge_cents,omitempty"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Players          []SessionPlayer `gorm:"foreignKey:SessionID" json:"players,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}
