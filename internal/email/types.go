package email

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentFailureEmail carries everything the payment-failure template
// needs. When NextRetryAt is nil the subscription has expired and the
// email is a final notice.
type PaymentFailureEmail struct {
	To          string
	PlanName    string
	Price       decimal.Decimal
	Attempt     int
	MaxAttempts int
	NextRetryAt *time.Time
}

// ExpiryReminderEmail notifies a memorial owner that the paid access
// window is about to elapse.
type ExpiryReminderEmail struct {
	To            string
	MemorialName  string
	ExpiresAt     time.Time
	DaysRemaining int
}

// Sender is the notification capability the billing engine and the
// memorial reconciler depend on. Delivery is best-effort: both methods
// report success as a boolean and never escalate failures.
type Sender interface {
	SendPaymentFailureEmail(ctx context.Context, req PaymentFailureEmail) bool
	SendMemorialExpiryReminder(ctx context.Context, req ExpiryReminderEmail) bool
}
