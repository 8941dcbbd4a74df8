package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/qripge/qrip-backend/internal/domain/subscription"
	"github.com/qripge/qrip-backend/internal/types"
	"github.com/qripge/qrip-backend/internal/validator"
)

// InitiateSubscriptionPaymentRequest starts the hosted-checkout flow
// for a paid plan.
type InitiateSubscriptionPaymentRequest struct {
	UserID   string         `json:"user_id" validate:"required"`
	PlanID   string         `json:"plan_id" validate:"required"`
	Duration types.Duration `json:"duration,omitempty"`
}

func (r *InitiateSubscriptionPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return nil
}

// InitiateSubscriptionPaymentResponse carries the gateway order and
// the redirect URL the payer must be sent to.
type InitiateSubscriptionPaymentResponse struct {
	SubscriptionID string `json:"subscription_id"`
	OrderID        string `json:"order_id"`
	RedirectURL    string `json:"redirect_url"`
}

// CancelSubscriptionRequest cancels an active subscription at the end
// of its paid period.
type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
}

func (r *CancelSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ResumeSubscriptionRequest reverses a cancellation before the paid
// period runs out.
type ResumeSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
}

func (r *ResumeSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// RetryPaymentRequest triggers an immediate charge attempt on a
// subscription in payment_failed.
type RetryPaymentRequest struct {
	SubscriptionID string `json:"subscription_id" validate:"required"`
}

func (r *RetryPaymentRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// TransactionResponse is one entry of a subscription's payment log.
type TransactionResponse struct {
	ID                   string          `json:"id"`
	GatewayTransactionID string          `json:"gateway_transaction_id"`
	Amount               decimal.Decimal `json:"amount"`
	Status               string          `json:"status"`
	Date                 time.Time       `json:"date"`
	ReceiptURL           string          `json:"receipt_url,omitempty"`
}

// SubscriptionResponse is the API shape of a subscription.
type SubscriptionResponse struct {
	ID                 string                `json:"id"`
	UserID             string                `json:"user_id"`
	PlanID             string                `json:"plan_id"`
	SubscriptionStatus string                `json:"subscription_status"`
	Duration           types.Duration        `json:"duration,omitempty"`
	DurationPrice      decimal.Decimal       `json:"duration_price"`
	StartDate          *time.Time            `json:"start_date,omitempty"`
	EndDate            *time.Time            `json:"end_date,omitempty"`
	NextBillingDate    *time.Time            `json:"next_billing_date,omitempty"`
	LastPaymentDate    *time.Time            `json:"last_payment_date,omitempty"`
	RetryAttemptCount  int                   `json:"retry_attempt_count"`
	TransactionHistory []TransactionResponse `json:"transaction_history"`
}

// SubscriptionResponseFromDomain maps a domain subscription to its API
// shape.
func SubscriptionResponseFromDomain(sub *subscription.Subscription) *SubscriptionResponse {
	resp := &SubscriptionResponse{
		ID:                 sub.ID,
		UserID:             sub.UserID,
		PlanID:             sub.PlanID,
		SubscriptionStatus: sub.SubscriptionStatus.String(),
		Duration:           sub.Duration,
		DurationPrice:      sub.DurationPrice,
		StartDate:          sub.StartDate,
		EndDate:            sub.EndDate,
		NextBillingDate:    sub.NextBillingDate,
		LastPaymentDate:    sub.LastPaymentDate,
		RetryAttemptCount:  sub.RetryAttemptCount,
	}
	for _, txn := range sub.TransactionHistory {
		resp.TransactionHistory = append(resp.TransactionHistory, TransactionResponse{
			ID:                   txn.ID,
			GatewayTransactionID: txn.GatewayTransactionID,
			Amount:               txn.Amount,
			Status:               string(txn.Status),
			Date:                 txn.Date,
			ReceiptURL:           txn.ReceiptURL,
		})
	}
	return resp
}
