package models

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment records a settled or in-flight charge against the payment provider.
type Payment struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	SessionID       *uint         `gorm:"index" json:"session_id,omitempty"`
	Session         *Session      `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	CloverOrderID   string        `gorm:"type:varchar(64);index" json:"clover_order_id,omitempty"`
	CloverPaymentID string        `gorm:"type:varchar(64)" json:"clover_payment_id,omitempty"`
	AmountCents     int64         `gorm:"not null" json:"amount_cents"`
	TipCents        int64         `gorm:"not null;default:0" json:"tip_cents"`
	TotalCents      int64         `gorm:"not null" json:"total_cents"`
	RefundedCents   int64         `gorm:"not null;default:0" json:"refunded_cents"`
	Status          PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod   string        `gorm:"type:varchar(20);not null;default:'card'" json:"payment_method"`
	CustomerEmail   string        `gorm:"type:varchar(255)" json:"customer_email,omitempty"`
	CustomerPhone   string        `gorm:"type:varchar(30)" json:"customer_phone,omitempty"`
	ReceiptSent     bool          `gorm:"not null;default:false" json:"receipt_sent"`
	CreatedAt       time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updated_at"`
}
