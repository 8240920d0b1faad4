package models

import "time"

type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistNotified  WaitlistStatus = "notified"
	WaitlistSeated    WaitlistStatus = "seated"
	WaitlistCancelled WaitlistStatus = "cancelled"
	WaitlistNoShow    WaitlistStatus = "no_show"
)

type WaitlistEntry struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(100);not null" json:"name"`
	PartySize   int            `gorm:"not null;default:1" json:"party_size"`
	Phone       string         `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Notes       string         `gorm:"type:text" json:"notes,omitempty"`
	Status      WaitlistStatus `gorm:"type:varchar(20);not null;default:'waiting'" json:"status"`
	SeatedAt    *time.Time     `json:"seated_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}
