package types

// SubscriptionStatus is the lifecycle state of a user subscription.
type SubscriptionStatus string

const (
	// SubscriptionStatusPending is the initial state, created when a user
	// initiates payment and before the first charge settles.
	SubscriptionStatusPending SubscriptionStatus = "pending"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	// SubscriptionStatusPaymentFailed marks a subscription whose last
	// charge attempt failed and which is still eligible for retries.
	SubscriptionStatusPaymentFailed SubscriptionStatus = "payment_failed"
	// SubscriptionStatusProcessingPayment is a transient lock state held
	// only while a charge attempt is in flight. No subscription may
	// remain in this state after a billing pass completes.
	SubscriptionStatusProcessingPayment SubscriptionStatus = "processing_payment"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	// SubscriptionStatusExpired is terminal: retries exhausted or the
	// paid period elapsed after cancellation.
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further billing activity is expected.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusExpired
}

// BillingPeriod is how a plan charges.
type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodOneTime BillingPeriod = "one_time"
	BillingPeriodFree    BillingPeriod = "free"
)

// TransactionStatus is the outcome recorded in a subscription's
// transaction history.
type TransactionStatus string

const (
	TransactionStatusInitialSuccess   TransactionStatus = "initial_payment_success"
	TransactionStatusInitialFailed    TransactionStatus = "initial_payment_failed"
	TransactionStatusRecurringSuccess TransactionStatus = "recurring_payment_success"
	TransactionStatusRecurringFailed  TransactionStatus = "recurring_payment_failed"
)
