package services

import (
	"errors"
	"fmt"

	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/pricing"
	"gorm.io/gorm"
)

// SettingsService manages the venue's singleton billing configuration.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Get returns the venue settings, creating the defaults row on first use.
func (s *SettingsService) Get() (*models.Settings, error) {
	return getOrCreateSettings(s.db)
}

// SettingsUpdate carries the fields an admin may change; nil means unchanged.
type SettingsUpdate struct {
	VenueName              *string
	DefaultHourlyRateCents *int64
	MinimumChargeCents     *int64
	GracePeriodMinutes     *int
	BillingIncrement       *pricing.Increment
}

func (s *SettingsService) Update(update SettingsUpdate) (*models.Settings, error) {
	settings, err := getOrCreateSettings(s.db)
	if err != nil {
		return nil, err
	}

	if update.VenueName != nil {
		settings.VenueName = *update.VenueName
	}
	if update.DefaultHourlyRateCents != nil {
		settings.DefaultHourlyRateCents = *update.DefaultHourlyRateCents
	}
	if update.MinimumChargeCents != nil {
		settings.MinimumChargeCents = *update.MinimumChargeCents
	}
	if update.GracePeriodMinutes != nil {
		settings.GracePeriodMinutes = *update.GracePeriodMinutes
	}
	if update.BillingIncrement != nil {
		if !update.BillingIncrement.Valid() {
			return nil, fmt.Errorf("unknown billing increment %q", *update.BillingIncrement)
		}
		settings.BillingIncrement = *update.BillingIncrement
	}

	if err := s.db.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func getOrCreateSettings(db *gorm.DB) (*models.Settings, error) {
	var settings models.Settings
	err := db.First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	defaults := models.DefaultSettings()
	if err := db.Create(defaults).Error; err != nil {
		return nil, err
	}
	return defaults, nil
}
