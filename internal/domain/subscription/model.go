package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/types"
)

// Transaction is one entry in a subscription's append-only payment log.
// Entries are never mutated or removed once recorded.
type Transaction struct {
	ID                   string                  `json:"id" bson:"id"`
	GatewayTransactionID string                  `json:"gateway_transaction_id" bson:"gateway_transaction_id"`
	GatewayOrderID       string                  `json:"gateway_order_id" bson:"gateway_order_id"`
	Amount               decimal.Decimal         `json:"amount" bson:"amount"`
	Status               types.TransactionStatus `json:"status" bson:"status"`
	Date                 time.Time               `json:"date" bson:"date"`
	ReceiptURL           string                  `json:"receipt_url,omitempty" bson:"receipt_url,omitempty"`
}

// FailedAttemptTransactionID is recorded when a charge attempt fails
// and the gateway never issued a transaction id.
const FailedAttemptTransactionID = "N/A_Failed_Attempt"

// Subscription is a user's billing relationship to a plan.
type Subscription struct {
	ID     string `json:"id" bson:"_id"`
	UserID string `json:"user_id" bson:"user_id"`
	PlanID string `json:"plan_id" bson:"plan_id"`

	Duration      types.Duration  `json:"duration" bson:"duration"`
	DurationPrice decimal.Decimal `json:"duration_price" bson:"duration_price"`

	// GatewayOrderID is the order id of the very first payment; unique.
	GatewayOrderID string `json:"gateway_order_id" bson:"gateway_order_id"`
	// GatewayRecurringID is the id the gateway issues once a card is
	// saved; empty until the first successful charge establishes it.
	GatewayRecurringID string `json:"gateway_recurring_id,omitempty" bson:"gateway_recurring_id,omitempty"`

	SubscriptionStatus types.SubscriptionStatus `json:"subscription_status" bson:"subscription_status"`

	StartDate       *time.Time `json:"start_date,omitempty" bson:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty" bson:"next_billing_date,omitempty"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty" bson:"last_payment_date,omitempty"`

	RetryAttemptCount  int        `json:"retry_attempt_count" bson:"retry_attempt_count"`
	LastRetryAttemptAt *time.Time `json:"last_retry_attempt_at,omitempty" bson:"last_retry_attempt_at,omitempty"`

	TransactionHistory []Transaction `json:"transaction_history" bson:"transaction_history"`

	types.BaseModel `bson:",inline"`
}

// ChargeTargetID is the gateway resource recurring charges are issued
// against: the recurring id once established, otherwise the initial
// order id (which represents an initial charge attempt).
func (s *Subscription) ChargeTargetID() string {
	if s.GatewayRecurringID != "" {
		return s.GatewayRecurringID
	}
	return s.GatewayOrderID
}

// HasEverCharged reports whether a first successful charge has been
// recorded (the recurring id only exists after one).
func (s *Subscription) HasEverCharged() bool {
	return s.GatewayRecurringID != ""
}

// Validate validates the subscription
func (s *Subscription) Validate() error {
	if s.UserID == "" {
		return ierr.NewError("user_id is required").Mark(ierr.ErrValidation)
	}
	if s.PlanID == "" {
		return ierr.NewError("plan_id is required").Mark(ierr.ErrValidation)
	}
	// Free-tier subscriptions never touch the gateway.
	if s.GatewayOrderID == "" && s.DurationPrice.IsPositive() {
		return ierr.NewError("gateway_order_id is required for paid subscriptions").Mark(ierr.ErrValidation)
	}
	if s.RetryAttemptCount < 0 {
		return ierr.NewError("retry_attempt_count cannot be negative").Mark(ierr.ErrValidation)
	}
	return nil
}
