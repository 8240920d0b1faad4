package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cuetime/poolhall-app/live"
	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/services"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaymentController struct {
	DB       *gorm.DB
	clover   *services.CloverService
	receipts *services.ReceiptService
}

func NewPaymentController(db *gorm.DB, clover *services.CloverService) *PaymentController {
	return &PaymentController{
		DB:       db,
		clover:   clover,
		receipts: services.NewReceiptService(db),
	}
}

// GetPayments lists payments newest-first with optional session/status
// filters, plus a total count for paging.
func (pc *PaymentController) GetPayments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	q := pc.DB.Model(&models.Payment{})
	if v := c.Query("session_id"); v != "" {
		q = q.Where("session_id = ?", v)
	}
	if v := c.Query("status"); v != "" {
		q = q.Where("status = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var payments []models.Payment
	err := q.Preload("Session").Preload("Session.Table").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&payments).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of payments", gin.H{
		"payments": payments,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (pc *PaymentController) GetPaymentByID(c *gin.Context) {
	var payment models.Payment
	err := pc.DB.Preload("Session").Preload("Session.Table").First(&payment, c.Param("payment_id")).Error
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("payment not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment detail", payment)
}

// CreatePayment records a charge that was (or will be) settled through the
// provider.
func (pc *PaymentController) CreatePayment(c *gin.Context) {
	var req struct {
		SessionID       *uint  `json:"session_id"`
		CloverOrderID   string `json:"clover_order_id"`
		CloverPaymentID string `json:"clover_payment_id"`
		AmountCents     int64  `json:"amount_cents" binding:"required"`
		TipCents        int64  `json:"tip_cents"`
		PaymentMethod   string `json:"payment_method"`
		CustomerEmail   string `json:"customer_email"`
		CustomerPhone   string `json:"customer_phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	method := req.PaymentMethod
	if method == "" {
		method = "card"
	}
	payment := models.Payment{
		SessionID:       req.SessionID,
		CloverOrderID:   req.CloverOrderID,
		CloverPaymentID: req.CloverPaymentID,
		AmountCents:     req.AmountCents,
		TipCents:        req.TipCents,
		TotalCents:      req.AmountCents + req.TipCents,
		Status:          models.PaymentPending,
		PaymentMethod:   method,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
	}
	if err := pc.DB.Create(&payment).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.Broadcast(live.EventPaymentUpdate, payment)
	utils.InfoLogger.Printf("Payment %d recorded: %s", payment.ID, utils.FormatCents(payment.TotalCents))
	utils.RespondJSON(c, http.StatusCreated, "Payment recorded", payment)
}

// RefundPayment issues a full or partial refund through the provider and
// tracks the refunded amount locally.
func (pc *PaymentController) RefundPayment(c *gin.Context) {
	var req struct {
		AmountCents int64  `json:"amount_cents"`
		Reason      string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var payment models.Payment
	if err := pc.DB.First(&payment, c.Param("payment_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("payment not found"))
		return
	}
	if payment.CloverPaymentID == "" {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("payment has no provider payment id"))
		return
	}

	amount := req.AmountCents
	if amount <= 0 {
		amount = payment.TotalCents - payment.RefundedCents
	}
	if amount <= 0 || payment.RefundedCents+amount > payment.TotalCents {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("refund amount exceeds remaining balance"))
		return
	}

	refundID, err := pc.clover.CreateRefund(payment.CloverPaymentID, amount, req.Reason)
	if err != nil {
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}

	payment.RefundedCents += amount
	if payment.RefundedCents >= payment.TotalCents {
		payment.Status = models.PaymentRefunded
	}
	if err := pc.DB.Save(&payment).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.Broadcast(live.EventPaymentUpdate, payment)
	utils.InfoLogger.Printf("Refund %s issued for payment %d: %s", refundID, payment.ID, utils.FormatCents(amount))
	utils.RespondJSON(c, http.StatusOK, "Refund issued", gin.H{
		"refund_id": refundID,
		"payment":   payment,
	})
}

// SendReceipt delivers a receipt to the customer. Delivery itself is stubbed;
// the contact and send are recorded.
func (pc *PaymentController) SendReceipt(c *gin.Context) {
	id, ok := parseUintParam(c, "payment_id")
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := pc.receipts.Send(id, req.Email, req.Phone); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	dest := req.Email
	if dest == "" {
		dest = req.Phone
	}
	utils.RespondJSON(c, http.StatusOK, "Receipt sent", gin.H{"sent_to": dest})
}
