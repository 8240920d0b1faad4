package models

import (
	"time"

	"github.com/cuetime/poolhall-app/pricing"
)

// Settings is the per-venue singleton billing configuration. The pricing
// engine reads it at charge time; a Table's own rate overrides the default.
type Settings struct {
	ID                    uint              `gorm:"primaryKey" json:"id"`
	VenueName             string            `gorm:"type:varchar(100);not null;default:'Pool Hall'" json:"venue_name"`
	DefaultHourlyRateCents int64            `gorm:"not null;default:1500" json:"default_hourly_rate_cents"`
	MinimumChargeCents    int64             `gorm:"not null;default:500" json:"minimum_charge_cents"`
	GracePeriodMinutes    int               `gorm:"not null;default:0" json:"grace_period_minutes"`
	BillingIncrement      pricing.Increment `gorm:"type:varchar(20);not null;default:'MINUTE'" json:"billing_increment"`
	CreatedAt             time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time         `gorm:"not null" json:"updated_at"`
}

// DefaultSettings returns the configuration a fresh install starts with.
func DefaultSettings() *Settings {
	return &Settings{
		VenueName:              "Pool Hall",
		DefaultHourlyRateCents: 1500,
		MinimumChargeCents:     500,
		GracePeriodMinutes:     0,
		BillingIncrement:       pricing.IncrementMinute,
	}
}
