package controllers

import (
	"net/http"

	"github.com/cuetime/poolhall-app/pricing"
	"github.com/cuetime/poolhall-app/services"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SettingsController struct {
	settings *services.SettingsService
}

func NewSettingsController(db *gorm.DB) *SettingsController {
	return &SettingsController{settings: services.NewSettingsService(db)}
}

// GetSettings returns the venue settings, creating defaults on first call.
func (sc *SettingsController) GetSettings(c *gin.Context) {
	settings, err := sc.settings.Get()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Venue settings", settings)
}

// UpdateSettings edits the billing configuration.
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var req struct {
		VenueName              *string            `json:"venue_name"`
		DefaultHourlyRateCents *int64             `json:"default_hourly_rate_cents"`
		MinimumChargeCents     *int64             `json:"minimum_charge_cents"`
		GracePeriodMinutes     *int               `json:"grace_period_minutes"`
		BillingIncrement       *pricing.Increment `json:"billing_increment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	settings, err := sc.settings.Update(services.SettingsUpdate{
		VenueName:              req.VenueName,
		DefaultHourlyRateCents: req.DefaultHourlyRateCents,
		MinimumChargeCents:     req.MinimumChargeCents,
		GracePeriodMinutes:     req.GracePeriodMinutes,
		BillingIncrement:       req.BillingIncrement,
	})
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	utils.InfoLogger.Printf("Venue settings updated: rate=%s min=%s grace=%dm increment=%s",
		utils.FormatCents(settings.DefaultHourlyRateCents), utils.FormatCents(settings.MinimumChargeCents),
		settings.GracePeriodMinutes, settings.BillingIncrement)
	utils.RespondJSON(c, http.StatusOK, "Settings updated", settings)
}
