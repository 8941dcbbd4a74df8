package bog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qripge/qrip-backend/internal/config"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/logger"
)

// Client defines the interface for BOG gateway operations the billing
// core depends on.
type Client interface {
	// CreateOrder creates a hosted-checkout order and returns the id
	// plus the payer redirect URL.
	CreateOrder(ctx context.Context, amount decimal.Decimal, successURL, failURL string) (*Order, error)

	// RequestCardSave asks BOG to store the payer's card against the
	// order so recurring charges can be issued later.
	RequestCardSave(ctx context.Context, orderID string) error

	// ChargeRecurring issues a recurring charge against a previously
	// established subscription or initial order.
	ChargeRecurring(ctx context.Context, chargeTargetID string, amount decimal.Decimal) (*ChargeResult, error)

	// GetReceipt looks up the settlement status of an order.
	GetReceipt(ctx context.Context, orderID string) (*Receipt, error)
}

type client struct {
	cfg           config.BOGConfig
	tokenProvider TokenProvider
	logger        *logger.Logger
	httpClient    *http.Client
}

// NewClient creates a new BOG gateway client. Mutating calls (orders,
// charges) deliberately do not auto-retry: the subscribe endpoint is
// not idempotent per attempt and a blind retry risks a double charge.
func NewClient(cfg config.BOGConfig, tokenProvider TokenProvider, log *logger.Logger) Client {
	return &client{
		cfg:           cfg,
		tokenProvider: tokenProvider,
		logger:        log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateOrder creates an e-commerce order on the hosted checkout.
func (c *client) CreateOrder(ctx context.Context, amount decimal.Decimal, successURL, failURL string) (*Order, error) {
	req := &CreateOrderRequest{
		CallbackURL: c.cfg.CallbackURL(),
		PurchaseUnits: PurchaseUnits{
			Currency:    DefaultCurrency,
			TotalAmount: amount.InexactFloat64(),
			Basket: []BasketItem{{
				Quantity:  1,
				UnitPrice: amount.InexactFloat64(),
				ProductID: c.cfg.ProductID,
			}},
		},
		RedirectURLs: RedirectURLs{
			Success: successURL,
			Fail:    failURL,
		},
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.APIBaseURL+"/ecommerce/orders", req, &resp); err != nil {
		return nil, err
	}

	c.logger.Infow("created BOG order",
		"order_id", resp.ID,
		"amount", amount)

	return &Order{
		ID:          resp.ID,
		RedirectURL: resp.Links.Redirect.Href,
	}, nil
}

// RequestCardSave requests card-on-file storage for the order.
func (c *client) RequestCardSave(ctx context.Context, orderID string) error {
	if err := c.do(ctx, http.MethodPut, c.cfg.APIBaseURL+"/orders/"+orderID+"/subscriptions", struct{}{}, nil); err != nil {
		return err
	}
	c.logger.Infow("requested BOG card save", "order_id", orderID)
	return nil
}

// ChargeRecurring charges the saved card behind chargeTargetID.
func (c *client) ChargeRecurring(ctx context.Context, chargeTargetID string, amount decimal.Decimal) (*ChargeResult, error) {
	req := &chargeRequest{
		CallbackURL: c.cfg.CallbackURL(),
		PurchaseUnits: chargeUnits{
			TotalAmount:  amount.InexactFloat64(),
			CurrencyCode: DefaultCurrency,
			Basket: []BasketItem{{
				Quantity:  1,
				UnitPrice: amount.InexactFloat64(),
				ProductID: c.cfg.ProductID,
			}},
		},
	}

	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.APIBaseURL+"/ecommerce/orders/"+chargeTargetID+"/subscribe", req, &resp); err != nil {
		return nil, err
	}

	c.logger.Infow("issued BOG recurring charge",
		"charge_target_id", chargeTargetID,
		"transaction_id", resp.ID,
		"amount", amount)

	return &ChargeResult{
		TransactionID: resp.ID,
		ReceiptURL:    resp.Links.Details.Href,
	}, nil
}

// GetReceipt looks up an order's settlement status.
func (c *client) GetReceipt(ctx context.Context, orderID string) (*Receipt, error) {
	var resp receiptResponse
	if err := c.do(ctx, http.MethodGet, c.cfg.APIBaseURL+"/receipt/"+orderID, nil, &resp); err != nil {
		return nil, err
	}
	return &Receipt{OrderStatus: resp.OrderStatus.Key}, nil
}

// do executes one authenticated request against the BOG API and
// decodes the response into out (when out is non-nil).
func (c *client) do(ctx context.Context, method, url string, in, out interface{}) error {
	token, err := c.tokenProvider.GetAccessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to marshal BOG request").
				Mark(ierr.ErrInternal)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to build BOG request").
			Mark(ierr.ErrInternal)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorw("BOG API call failed", "method", method, "url", url, "error", err)
		return ierr.WithError(err).
			WithHint("Unable to reach BOG API").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read BOG response").
			Mark(ierr.ErrHTTPClient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil && errResp.Message != "" {
			c.logger.Errorw("BOG API error",
				"status", resp.StatusCode,
				"message", errResp.Message,
				"key", errResp.Key)
			return ierr.NewError(errResp.Message).
				WithHint("BOG rejected the request").
				WithReportableDetails(map[string]interface{}{
					"key": errResp.Key,
				}).
				Mark(ierr.ErrHTTPClient)
		}
		if resp.StatusCode == http.StatusNotFound {
			return ierr.NewError("BOG resource not found").
				WithHintf("HTTP status %d", resp.StatusCode).
				Mark(ierr.ErrNotFound)
		}
		return ierr.NewError("BOG API error").
			WithHintf("HTTP status %d", resp.StatusCode).
			Mark(ierr.ErrHTTPClient)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to parse BOG response").
				Mark(ierr.ErrHTTPClient)
		}
	}
	return nil
}
