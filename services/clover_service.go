package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cuetime/poolhall-app/utils"
	"gorm.io/gorm"
)

// CloverConfig holds the Clover app credentials and environment.
type CloverConfig struct {
	AppID       string
	AppSecret   string
	MerchantID  string
	Environment string // "sandbox" or "production"
}

func loadCloverConfig() *CloverConfig {
	env := os.Getenv("CLOVER_ENVIRONMENT")
	if env == "" {
		env = "sandbox"
	}
	return &CloverConfig{
		AppID:       os.Getenv("CLOVER_APP_ID"),
		AppSecret:   os.Getenv("CLOVER_APP_SECRET"),
		MerchantID:  os.Getenv("CLOVER_MERCHANT_ID"),
		Environment: env,
	}
}

func (c *CloverConfig) apiBase() string {
	if c.Environment == "production" {
		return "https://api.clover.com"
	}
	return "https://sandbox.dev.clover.com"
}

func (c *CloverConfig) webBase() string {
	if c.Environment == "production" {
		return "https://www.clover.com"
	}
	return "https://sandbox.dev.clover.com"
}

// CloverOrder mirrors the order resource returned by the Clover API.
type CloverOrder struct {
	ID           string `json:"id"`
	Currency     string `json:"currency"`
	Total        int64  `json:"total"`
	State        string `json:"state"`
	CreatedTime  int64  `json:"createdTime"`
	ModifiedTime int64  `json:"modifiedTime"`
}

type CloverLineItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
	UnitQty int64  `json:"unitQty"`
}

type CloverPayment struct {
	ID        string `json:"id"`
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	TipAmount int64  `json:"tipAmount"`
	Result    string `json:"result"` // SUCCESS, FAIL, PENDING
}

// CloverGateway is the slice of the Clover API the payment queue needs.
type CloverGateway interface {
	CreateOrder(note string) (*CloverOrder, error)
	AddLineItem(orderID, name string, priceCents int64, quantity int) (*CloverLineItem, error)
	AddTip(orderID string, tipCents int64) error
}

// CloverService talks to the Clover order/payment/refund API using tokens
// persisted by CloverTokenService. Remote calls are bounded by the client
// timeout so a hung provider cannot stall a queue sweep.
type CloverService struct {
	config     *CloverConfig
	tokens     *CloverTokenService
	httpClient *http.Client
}

func NewCloverService(db *gorm.DB) *CloverService {
	config := loadCloverConfig()
	return &CloverService{
		config: config,
		tokens: NewCloverTokenService(db, config),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Tokens exposes the token store for the OAuth controllers.
func (cs *CloverService) Tokens() *CloverTokenService {
	return cs.tokens
}

// Connected reports whether a usable access token exists for the merchant.
func (cs *CloverService) Connected() bool {
	token, err := cs.tokens.ValidToken(cs.config.MerchantID)
	return err == nil && token != ""
}

// AuthURL builds the OAuth authorization URL the operator is redirected to.
func (cs *CloverService) AuthURL(redirectURI string) string {
	params := url.Values{}
	params.Set("client_id", cs.config.AppID)
	params.Set("redirect_uri", redirectURI)
	return fmt.Sprintf("%s/oauth/v2/authorize?%s", cs.config.webBase(), params.Encode())
}

// ExchangeCode trades an authorization code for tokens and persists them.
func (cs *CloverService) ExchangeCode(code, merchantID string) error {
	params := url.Values{}
	params.Set("client_id", cs.config.AppID)
	params.Set("client_secret", cs.config.AppSecret)
	params.Set("code", code)

	resp, err := cs.httpClient.Post(
		fmt.Sprintf("%s/oauth/v2/token?%s", cs.config.webBase(), params.Encode()),
		"application/json", nil)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("clover token exchange failed: %d - %s", resp.StatusCode, string(body))
	}

	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"access_token_expiration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return err
	}

	if merchantID == "" {
		merchantID = cs.config.MerchantID
	}
	return cs.tokens.Save(merchantID, data.AccessToken, data.RefreshToken, data.ExpiresIn)
}

// CreateOrder opens a Clover order for one table session.
func (cs *CloverService) CreateOrder(note string) (*CloverOrder, error) {
	var order CloverOrder
	err := cs.request("POST", "/orders", map[string]interface{}{
		"state": "open",
		"note":  note,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AddLineItem attaches a priced line to an order. Clover expresses quantity
// in thousandths.
func (cs *CloverService) AddLineItem(orderID, name string, priceCents int64, quantity int) (*CloverLineItem, error) {
	var item CloverLineItem
	err := cs.request("POST", fmt.Sprintf("/orders/%s/line_items", orderID), map[string]interface{}{
		"name":    name,
		"price":   priceCents,
		"unitQty": int64(quantity) * 1000,
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddTip sets the tip amount on an order.
func (cs *CloverService) AddTip(orderID string, tipCents int64) error {
	return cs.request("POST", fmt.Sprintf("/orders/%s", orderID), map[string]interface{}{
		"tipAmount": tipCents,
	}, nil)
}

// UpdateOrderTotal overwrites the order total, used for time-based pricing.
func (cs *CloverService) UpdateOrderTotal(orderID string, totalCents int64) error {
	return cs.request("POST", fmt.Sprintf("/orders/%s", orderID), map[string]interface{}{
		"total": totalCents,
	}, nil)
}

func (cs *CloverService) GetOrder(orderID string) (*CloverOrder, error) {
	var order CloverOrder
	if err := cs.request("GET", fmt.Sprintf("/orders/%s", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (cs *CloverService) CloseOrder(orderID string) error {
	return cs.request("POST", fmt.Sprintf("/orders/%s", orderID), map[string]interface{}{
		"state": "closed",
	}, nil)
}

func (cs *CloverService) DeleteOrder(orderID string) error {
	return cs.request("DELETE", fmt.Sprintf("/orders/%s", orderID), nil, nil)
}

func (cs *CloverService) GetPayment(paymentID string) (*CloverPayment, error) {
	var payment CloverPayment
	if err := cs.request("GET", fmt.Sprintf("/payments/%s", paymentID), nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// OrderPayments lists the payments recorded against an order.
func (cs *CloverService) OrderPayments(orderID string) ([]CloverPayment, error) {
	var out struct {
		Elements []CloverPayment `json:"elements"`
	}
	if err := cs.request("GET", fmt.Sprintf("/orders/%s/payments", orderID), nil, &out); err != nil {
		return nil, err
	}
	return out.Elements, nil
}

// CreateRefund refunds part or all of a payment.
func (cs *CloverService) CreateRefund(paymentID string, amountCents int64, reason string) (string, error) {
	if reason == "" {
		reason = "Customer refund"
	}
	var out struct {
		ID string `json:"id"`
	}
	err := cs.request("POST", "/refunds", map[string]interface{}{
		"payment": map[string]string{"id": paymentID},
		"amount":  amountCents,
		"reason":  reason,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

// PaymentURL returns the operator-facing URL for an order. Sandbox has no
// public payment page, so it links to the merchant dashboard instead.
func (cs *CloverService) PaymentURL(orderID string) string {
	if cs.config.Environment == "sandbox" {
		return fmt.Sprintf("%s/dashboard/m/%s/orders/%s", cs.config.webBase(), cs.config.MerchantID, orderID)
	}
	return fmt.Sprintf("%s/m/%s/orders/%s/pay", cs.config.webBase(), cs.config.MerchantID, orderID)
}

func (cs *CloverService) request(method, endpoint string, body interface{}, out interface{}) error {
	token, err := cs.tokens.ValidToken(cs.config.MerchantID)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("clover not connected, complete the OAuth flow first")
	}

	reqURL := fmt.Sprintf("%s/v3/merchants/%s%s", cs.config.apiBase(), cs.config.MerchantID, endpoint)

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, reqURL, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := cs.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clover request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		utils.ErrorLogger.Printf("Clover API error %d on %s %s: %s", resp.StatusCode, method, endpoint, string(respBody))
		return fmt.Errorf("clover API error: %d - %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
