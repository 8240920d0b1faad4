package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/utils"
	"gorm.io/gorm"
)

// tokenRefreshBuffer refreshes tokens this long before they expire.
const tokenRefreshBuffer = 5 * time.Minute

// CloverTokenService persists Clover OAuth tokens per merchant and refreshes
// them ahead of expiry.
type CloverTokenService struct {
	db         *gorm.DB
	config     *CloverConfig
	httpClient *http.Client
}

func NewCloverTokenService(db *gorm.DB, config *CloverConfig) *CloverTokenService {
	return &CloverTokenService{
		db:     db,
		config: config,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Save upserts the tokens for a merchant. expiresIn is in seconds; zero means
// the token does not expire.
func (ts *CloverTokenService) Save(merchantID, accessToken, refreshToken string, expiresIn int) error {
	var expiresAt *time.Time
	if expiresIn > 0 {
		t := time.Now().Add(time.Duration(expiresIn) * time.Second)
		expiresAt = &t
	}

	var token models.CloverToken
	err := ts.db.Where("merchant_id = ?", merchantID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ts.db.Create(&models.CloverToken{
			MerchantID:   merchantID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    expiresAt,
		}).Error
	}
	if err != nil {
		return err
	}

	token.AccessToken = accessToken
	if refreshToken != "" {
		token.RefreshToken = refreshToken
	}
	token.ExpiresAt = expiresAt
	return ts.db.Save(&token).Error
}

// ValidToken returns the merchant's access token, refreshing it first when it
// expires within the buffer window. An empty string with nil error means the
// merchant has never connected.
func (ts *CloverTokenService) ValidToken(merchantID string) (string, error) {
	if merchantID == "" {
		return "", nil
	}

	var token models.CloverToken
	err := ts.db.Where("merchant_id = ?", merchantID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if token.ExpiresAt != nil && token.RefreshToken != "" {
		if time.Now().After(token.ExpiresAt.Add(-tokenRefreshBuffer)) {
			return ts.refresh(merchantID, token.RefreshToken)
		}
	}
	return token.AccessToken, nil
}

// Delete drops the merchant's tokens (logout / app uninstall).
func (ts *CloverTokenService) Delete(merchantID string) error {
	return ts.db.Where("merchant_id = ?", merchantID).Delete(&models.CloverToken{}).Error
}

func (ts *CloverTokenService) refresh(merchantID, refreshToken string) (string, error) {
	params := url.Values{}
	params.Set("client_id", ts.config.AppID)
	params.Set("client_secret", ts.config.AppSecret)
	params.Set("refresh_token", refreshToken)

	resp, err := ts.httpClient.Post(
		fmt.Sprintf("%s/oauth/v2/refresh?%s", ts.config.webBase(), params.Encode()),
		"application/json", nil)
	if err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		utils.ErrorLogger.Printf("Clover token refresh failed for merchant %s: %d", merchantID, resp.StatusCode)
		return "", fmt.Errorf("token refresh failed with status %d", resp.StatusCode)
	}

	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"access_token_expiration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}

	if err := ts.Save(merchantID, data.AccessToken, data.RefreshToken, data.ExpiresIn); err != nil {
		return "", err
	}
	return data.AccessToken, nil
}
