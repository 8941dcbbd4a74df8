package plan

import (
	"context"

	"github.com/qripge/qrip-backend/internal/types"
)

// Repository defines the interface for plan persistence operations
type Repository interface {
	// Create creates a new plan
	Create(ctx context.Context, plan *Plan) error

	// Get retrieves a plan by ID
	Get(ctx context.Context, id string) (*Plan, error)

	// List retrieves plans matching the filter
	List(ctx context.Context, filter *Filter) ([]*Plan, error)

	// GetFreePlan retrieves the always-available free-tier plan
	GetFreePlan(ctx context.Context) (*Plan, error)

	// ListIDsByBillingPeriod returns the IDs of plans with the given
	// billing period. Used by the billing engine's due-renewal query.
	ListIDsByBillingPeriod(ctx context.Context, period types.BillingPeriod) ([]string, error)
}

// Filter defines query parameters for listing plans
type Filter struct {
	BillingPeriods []types.BillingPeriod
	IsActive       *bool
}
