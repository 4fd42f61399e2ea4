package payprovider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consultdesk/consultdesk-backend/pkg/config"
)

func providerConfig(baseURL string) config.ProviderConfig {
	return config.ProviderConfig{
		BaseURL:       baseURL,
		KeyID:         "key_test",
		KeySecret:     "secret_test",
		WebhookSecret: "hook_test",
		Timeout:       2 * time.Second,
	}
}

func TestNewClientValidation(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.ProviderConfig{KeyID: "k", KeySecret: "s"}, nil)
	assert.ErrorIs(t, err, errBaseURLRequired)

	_, err = NewClient(ctx, config.ProviderConfig{BaseURL: "https://pay.test", KeySecret: "s"}, nil)
	assert.ErrorIs(t, err, errKeyIDRequired)

	_, err = NewClient(ctx, config.ProviderConfig{BaseURL: "https://pay.test", KeyID: "k"}, nil)
	assert.ErrorIs(t, err, errKeySecretRequired)
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key_test", user)
		require.Equal(t, "secret_test", pass)

		var req OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, int64(10000), req.AmountCents)

		json.NewEncoder(w).Encode(Order{
			ID:          "order_abc123",
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
			Receipt:     req.Receipt,
			Status:      "created",
		})
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), providerConfig(srv.URL), nil)
	require.NoError(t, err)

	order, err := client.CreateOrder(context.Background(), OrderRequest{
		AmountCents: 10000,
		Currency:    "INR",
		Receipt:     "ticket-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc123", order.ID)
	assert.Equal(t, int64(10000), order.AmountCents)
}

func TestCreateOrderProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), providerConfig(srv.URL), nil)
	require.NoError(t, err)

	_, err = client.CreateOrder(context.Background(), OrderRequest{AmountCents: 500, Currency: "INR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	client, err := NewClient(context.Background(), providerConfig("https://pay.test"), nil)
	require.NoError(t, err)

	_, err = client.CreateOrder(context.Background(), OrderRequest{AmountCents: 0, Currency: "INR"})
	assert.Error(t, err)

	_, err = client.CreateOrder(context.Background(), OrderRequest{AmountCents: 100})
	assert.Error(t, err)
}
