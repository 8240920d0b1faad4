package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cuetime/poolhall-app/live"
	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type WaitlistController struct {
	DB *gorm.DB
}

func NewWaitlistController(db *gorm.DB) *WaitlistController {
	return &WaitlistController{DB: db}
}

// GetWaitlist lists parties still waiting or notified, oldest first.
func (wc *WaitlistController) GetWaitlist(c *gin.Context) {
	var entries []models.WaitlistEntry
	err := wc.DB.
		Where("status IN ?", []models.WaitlistStatus{models.WaitlistWaiting, models.WaitlistNotified}).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waitlist", entries)
}

// AddToWaitlist registers a waiting party.
func (wc *WaitlistController) AddToWaitlist(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		PartySize int    `json:"party_size"`
		Phone     string `json:"phone"`
		Notes     string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.PartySize <= 0 {
		req.PartySize = 1
	}

	entry := models.WaitlistEntry{
		Name:      req.Name,
		PartySize: req.PartySize,
		Phone:     req.Phone,
		Notes:     req.Notes,
		Status:    models.WaitlistWaiting,
	}
	if err := wc.DB.Create(&entry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.Broadcast(live.EventWaitlistUpdate, entry)
	utils.InfoLogger.Printf("Waitlist: %s (party of %d) added", entry.Name, entry.PartySize)
	utils.RespondJSON(c, http.StatusCreated, "Added to waitlist", entry)
}

// UpdateWaitlistEntry edits party details or moves the entry through its
// statuses, stamping seated/cancelled times.
func (wc *WaitlistController) UpdateWaitlistEntry(c *gin.Context) {
	var req struct {
		Name      *string                `json:"name"`
		PartySize *int                   `json:"party_size"`
		Phone     *string                `json:"phone"`
		Notes     *string                `json:"notes"`
		Status    *models.WaitlistStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var entry models.WaitlistEntry
	if err := wc.DB.First(&entry, c.Param("entry_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("waitlist entry not found"))
		return
	}

	if req.Name != nil {
		entry.Name = *req.Name
	}
	if req.PartySize != nil {
		entry.PartySize = *req.PartySize
	}
	if req.Phone != nil {
		entry.Phone = *req.Phone
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}
	if req.Status != nil {
		now := time.Now()
		switch *req.Status {
		case models.WaitlistWaiting, models.WaitlistNotified:
			entry.Status = *req.Status
		case models.WaitlistSeated:
			entry.Status = *req.Status
			entry.SeatedAt = &now
		case models.WaitlistCancelled, models.WaitlistNoShow:
			entry.Status = *req.Status
			entry.CancelledAt = &now
		default:
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown waitlist status %q", *req.Status))
			return
		}
	}

	if err := wc.DB.Save(&entry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.Broadcast(live.EventWaitlistUpdate, entry)
	utils.RespondJSON(c, http.StatusOK, "Waitlist entry updated", entry)
}

// DeleteWaitlistEntry removes an entry entirely.
func (wc *WaitlistController) DeleteWaitlistEntry(c *gin.Context) {
	var entry models.WaitlistEntry
	if err := wc.DB.First(&entry, c.Param("entry_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, fmt.Errorf("waitlist entry not found"))
		return
	}

	if err := wc.DB.Delete(&entry).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	live.Broadcast(live.EventWaitlistUpdate, gin.H{"entry_id": entry.ID, "deleted": true})
	utils.RespondJSON(c, http.StatusOK, "Waitlist entry removed", gin.H{"id": entry.ID})
}
