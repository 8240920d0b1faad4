package models

import "time"

// CloverToken stores the OAuth credentials for one Clover merchant.
type CloverToken struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	MerchantID   string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"merchant_id"`
	AccessToken  string     `gorm:"type:text;not null" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}
