package bog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qripge/qrip-backend/internal/config"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
)

type staticTokenProvider struct{}

func (staticTokenProvider) GetAccessToken(context.Context) (string, error) {
	return "test-token", nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.BOGConfig{
		ProductID:  "prod-1",
		APIBaseURL: srv.URL,
		BackendURL: "https://api.qrip.ge",
	}, staticTokenProvider{}, logger.GetLogger())
}

func TestCreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ecommerce/orders", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://api.qrip.ge/api/payments/callback", body["callback_url"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"ord-1","_links":{"redirect":{"href":"https://pay.bog.ge/ord-1"}}}`)
	})

	order, err := client.CreateOrder(context.Background(), decimal.NewFromInt(10), "https://site/success", "https://site/fail")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", order.ID)
	assert.Equal(t, "https://pay.bog.ge/ord-1", order.RedirectURL)
}

func TestChargeRecurring(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ecommerce/orders/rec-1/subscribe", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"txn-1","_links":{"details":{"href":"https://api.bog.ge/receipt/txn-1"}}}`)
	})

	result, err := client.ChargeRecurring(context.Background(), "rec-1", decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, "txn-1", result.TransactionID)
	assert.Equal(t, "https://api.bog.ge/receipt/txn-1", result.ReceiptURL)
}

func TestChargeRecurringDeclined(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"message":"insufficient funds","key":"card_declined"}`)
	})

	_, err := client.ChargeRecurring(context.Background(), "rec-1", decimal.NewFromInt(10))
	require.Error(t, err)
	assert.True(t, ierr.IsHTTPClient(err))
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestRequestCardSave(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/orders/ord-1/subscriptions", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
	})

	err := client.RequestCardSave(context.Background(), "ord-1")
	assert.NoError(t, err)
}

func TestGetReceipt(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/receipt/ord-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"order_status":{"key":"completed"}}`)
	})

	receipt, err := client.GetReceipt(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", receipt.OrderStatus)
}

func TestGetReceiptNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetReceipt(context.Background(), "ord-missing")
	require.Error(t, err)
	assert.True(t, ierr.IsNotFound(err))
}
