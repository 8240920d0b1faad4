package controllers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/cuetime/poolhall-app/live"
	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/services"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CloverController struct {
	DB     *gorm.DB
	clover *services.CloverService
}

func NewCloverController(db *gorm.DB, clover *services.CloverService) *CloverController {
	return &CloverController{DB: db, clover: clover}
}

// StartOAuth redirects the operator to Clover's authorization page.
func (cc *CloverController) StartOAuth(c *gin.Context) {
	redirectURI := os.Getenv("CLOVER_REDIRECT_URI")
	if redirectURI == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		redirectURI = fmt.Sprintf("%s://%s/clover/oauth/callback", scheme, c.Request.Host)
	}
	c.Redirect(http.StatusFound, cc.clover.AuthURL(redirectURI))
}

// OAuthCallback exchanges the authorization code and stores the tokens.
func (cc *CloverController) OAuthCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("missing authorization code"))
		return
	}
	merchantID := c.Query("merchant_id")

	if err := cc.clover.ExchangeCode(code, merchantID); err != nil {
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}

	utils.InfoLogger.Printf("Clover connected for merchant %s", merchantID)
	utils.RespondJSON(c, http.StatusOK, "Clover connected", gin.H{"connected": true})
}

// GetStatus reports whether a usable Clover connection exists.
func (cc *CloverController) GetStatus(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Clover connection status", gin.H{
		"connected": cc.clover.Connected(),
	})
}

// Disconnect drops the stored tokens.
func (cc *CloverController) Disconnect(c *gin.Context) {
	merchantID := os.Getenv("CLOVER_MERCHANT_ID")
	if err := cc.clover.Tokens().Delete(merchantID); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Clover disconnected", gin.H{"connected": false})
}

// cloverWebhook is the envelope Clover posts: a map of merchant id to events.
type cloverWebhook struct {
	Type      string `json:"type"`
	Merchants map[string][]struct {
		ObjectID string `json:"objectId"`
		Type     string `json:"type"`
		TS       int64  `json:"ts"`
	} `json:"merchants"`
}

// HandleWebhook ingests Clover webhook events, syncing payment results back
// onto local payment records. Unknown events are logged and acknowledged.
func (cc *CloverController) HandleWebhook(c *gin.Context) {
	var hook cloverWebhook
	if err := c.ShouldBindJSON(&hook); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if hook.Type == "" || len(hook.Merchants) == 0 {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	for merchantID, events := range hook.Merchants {
		for _, event := range events {
			cc.handleEvent(merchantID, hook.Type, event.ObjectID, event.Type)
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (cc *CloverController) handleEvent(merchantID, hookType, objectID, eventType string) {
	utils.InfoLogger.Printf("Clover webhook: %s %s for merchant %s", hookType, objectID, merchantID)

	switch hookType {
	case "PAYMENT":
		cc.syncPayment(objectID)
	case "ORDER":
		cc.syncOrder(objectID)
	case "APP":
		if eventType == "UNINSTALL" {
			if err := cc.clover.Tokens().Delete(merchantID); err != nil {
				utils.ErrorLogger.Printf("Error dropping tokens for uninstalled merchant %s: %v", merchantID, err)
			}
		}
	default:
		// acknowledged but ignored
	}
}

// syncPayment pulls the payment result from Clover and updates the matching
// local record.
func (cc *CloverController) syncPayment(cloverPaymentID string) {
	remote, err := cc.clover.GetPayment(cloverPaymentID)
	if err != nil {
		utils.ErrorLogger.Printf("Error fetching Clover payment %s: %v", cloverPaymentID, err)
		return
	}

	var payment models.Payment
	err = cc.DB.Where("clover_payment_id = ? OR clover_order_id = ?", cloverPaymentID, remote.OrderID).First(&payment).Error
	if err != nil {
		utils.InfoLogger.Printf("Clover payment %s has no local record", cloverPaymentID)
		return
	}

	payment.CloverPaymentID = remote.ID
	switch remote.Result {
	case "SUCCESS":
		payment.Status = models.PaymentCompleted
	case "FAIL":
		payment.Status = models.PaymentFailed
	}
	if remote.TipAmount > 0 {
		payment.TipCents = remote.TipAmount
		payment.TotalCents = payment.AmountCents + payment.TipCents
	}

	if err := cc.DB.Save(&payment).Error; err != nil {
		utils.ErrorLogger.Printf("Error updating payment %d from webhook: %v", payment.ID, err)
		return
	}
	live.Broadcast(live.EventPaymentUpdate, payment)
}

// syncOrder refreshes payments attached to a Clover order.
func (cc *CloverController) syncOrder(cloverOrderID string) {
	payments, err := cc.clover.OrderPayments(cloverOrderID)
	if err != nil {
		utils.ErrorLogger.Printf("Error fetching payments for Clover order %s: %v", cloverOrderID, err)
		return
	}
	for _, p := range payments {
		cc.syncPayment(p.ID)
	}
}
