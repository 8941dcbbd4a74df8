package subscription

import (
	"context"
	"time"

	"github.com/qripge/qrip-backend/internal/types"
)

// Repository defines the interface for subscription persistence
// operations.
//
// ClaimForProcessing and ReleaseProcessing together implement the
// conditional-update lock the billing engine relies on: a claim
// succeeds only while the record is still in one of the claimable
// states, so two concurrent passes can never both charge the same
// subscription.
type Repository interface {
	// Create creates a new subscription
	Create(ctx context.Context, sub *Subscription) error

	// Get retrieves a subscription by ID
	Get(ctx context.Context, id string) (*Subscription, error)

	// GetByGatewayOrderID retrieves a subscription by its initial
	// gateway order id (unique). Used by the payment webhook.
	GetByGatewayOrderID(ctx context.Context, orderID string) (*Subscription, error)

	// GetByUserAndPlan retrieves a user's subscription to a specific
	// plan, if any. Used for free-tier continuity.
	GetByUserAndPlan(ctx context.Context, userID, planID string) (*Subscription, error)

	// List retrieves subscriptions matching the filter
	List(ctx context.Context, filter *Filter) ([]*Subscription, error)

	// Update persists all mutable fields of the subscription
	Update(ctx context.Context, sub *Subscription) error

	// AppendTransaction appends an entry to the subscription's
	// transaction history. History is append-only.
	AppendTransaction(ctx context.Context, id string, txn Transaction) error

	// ClaimForProcessing atomically transitions the subscription into
	// processing_payment iff its status is currently one of from.
	// Returns the claimed record, or nil when another process already
	// holds the claim (zero records matched).
	ClaimForProcessing(ctx context.Context, id string, from []types.SubscriptionStatus) (*Subscription, error)

	// ReleaseProcessing transitions a subscription out of
	// processing_payment into the given status. No-op if the record is
	// not currently in processing_payment.
	ReleaseProcessing(ctx context.Context, id string, to types.SubscriptionStatus) error
}

// Filter defines query parameters for listing subscriptions. All set
// fields are ANDed.
type Filter struct {
	UserID   string
	PlanIDs  []string
	Statuses []types.SubscriptionStatus

	// NextBillingBefore selects subscriptions whose next-billing date
	// is set and at or before the given instant.
	NextBillingBefore *time.Time

	// RetryAttemptsBelow selects subscriptions with fewer than this
	// many recorded retry attempts.
	RetryAttemptsBelow *int

	// RetryEligibleAt selects subscriptions whose last retry attempt is
	// unset, or at or before the given instant.
	RetryEligibleAt *time.Time

	// EndDateBefore selects subscriptions whose end date is set and
	// strictly before the given instant.
	EndDateBefore *time.Time
}

// Matches reports whether the subscription satisfies the filter. The
// in-memory test store and the Mongo repository must agree on these
// semantics.
func (f *Filter) Matches(s *Subscription) bool {
	if f == nil {
		return true
	}
	if f.UserID != "" && s.UserID != f.UserID {
		return false
	}
	if len(f.PlanIDs) > 0 && !contains(f.PlanIDs, s.PlanID) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if s.SubscriptionStatus == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.NextBillingBefore != nil {
		if s.NextBillingDate == nil || s.NextBillingDate.After(*f.NextBillingBefore) {
			return false
		}
	}
	if f.RetryAttemptsBelow != nil && s.RetryAttemptCount >= *f.RetryAttemptsBelow {
		return false
	}
	if f.RetryEligibleAt != nil {
		if s.LastRetryAttemptAt != nil && s.LastRetryAttemptAt.After(*f.RetryEligibleAt) {
			return false
		}
	}
	if f.EndDateBefore != nil {
		if s.EndDate == nil || !s.EndDate.Before(*f.EndDateBefore) {
			return false
		}
	}
	return true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
