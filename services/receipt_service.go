package services

import (
	"fmt"

	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/utils"
	"gorm.io/gorm"
)

// ReceiptService records where a receipt was sent. Actual delivery is a stub:
// the email/SMS provider integration is out of scope, so it logs the send and
// marks the payment.
type ReceiptService struct {
	db *gorm.DB
}

func NewReceiptService(db *gorm.DB) *ReceiptService {
	return &ReceiptService{db: db}
}

// Send stamps the customer contact on the payment and marks the receipt sent.
func (rs *ReceiptService) Send(paymentID uint, email, phone string) error {
	if email == "" && phone == "" {
		return fmt.Errorf("email or phone required")
	}

	var payment models.Payment
	if err := rs.db.First(&payment, paymentID).Error; err != nil {
		return err
	}

	updates := map[string]interface{}{"receipt_sent": true}
	if email != "" {
		updates["customer_email"] = email
	}
	if phone != "" {
		updates["customer_phone"] = phone
	}
	if err := rs.db.Model(&payment).Updates(updates).Error; err != nil {
		return err
	}

	dest := email
	if dest == "" {
		dest = phone
	}
	utils.InfoLogger.Printf("Receipt for payment %d (%s) sent to %s", payment.ID, utils.FormatCents(payment.TotalCents), dest)
	return nil
}
