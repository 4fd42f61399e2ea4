package payprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/consultdesk/consultdesk-backend/pkg/config"
	"github.com/consultdesk/consultdesk-backend/pkg/logger"
)

const defaultTimeout = 10 * time.Second

var (
	errKeyIDRequired     = errors.New("provider key id is required")
	errKeySecretRequired = errors.New("provider key secret is required")
	errBaseURLRequired   = errors.New("provider base url is required")
)

// httpDoer lets tests substitute the transport.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the hosted payment provider. Only order creation is
// trusted; everything else arrives via signed confirmations or webhooks.
type Client struct {
	http          httpDoer
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
}

// OrderRequest is the payload for a provider-hosted order.
type OrderRequest struct {
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// Order is the provider's view of a created order.
type Order struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

// NewClient validates the configured credentials and returns a provider client.
func NewClient(ctx context.Context, cfg config.ProviderConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if logg != nil {
		logg.Info(ctx, "payment provider client initialized")
	}

	return &Client{
		http:          &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
	}, nil
}

// CreateOrder registers a hosted order with the provider. The call is bounded
// by the client timeout and never retried here; callers may retry safely
// because nothing is persisted locally until this returns.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("order amount must be positive")
	}
	if req.Currency == "" {
		return nil, fmt.Errorf("order currency is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider order call: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var order Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("decode provider order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("provider order id missing in response")
	}
	return &order, nil
}

// CheckoutKey returns the public key id browsers embed in hosted checkouts.
func (c *Client) CheckoutKey() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// OrderSecret returns the secret used to verify client-side confirmations.
func (c *Client) OrderSecret() string {
	if c == nil {
		return ""
	}
	return c.keySecret
}

// WebhookSecret returns the secret used to verify asynchronous callbacks.
// Empty means webhooks are unconfigured and must be rejected.
func (c *Client) WebhookSecret() string {
	if c == nil {
		return ""
	}
	return c.webhookSecret
}
