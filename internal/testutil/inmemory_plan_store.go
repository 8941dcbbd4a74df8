package testutil

import (
	"context"

	"github.com/qripge/qrip-backend/internal/domain/plan"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/types"
)

// InMemoryPlanStore implements plan.Repository
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryPlanStore) List(ctx context.Context, filter *plan.Filter) ([]*plan.Plan, error) {
	return s.InMemoryStore.List(ctx, func(p *plan.Plan) bool {
		if filter == nil {
			return true
		}
		if len(filter.BillingPeriods) > 0 {
			found := false
			for _, bp := range filter.BillingPeriods {
				if p.BillingPeriod == bp {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}), nil
}

func (s *InMemoryPlanStore) GetFreePlan(ctx context.Context) (*plan.Plan, error) {
	plans := s.InMemoryStore.List(ctx, func(p *plan.Plan) bool {
		return p.IsFree()
	})
	if len(plans) == 0 {
		return nil, ierr.NewError("free plan not found").Mark(ierr.ErrNotFound)
	}
	return plans[0], nil
}

func (s *InMemoryPlanStore) ListIDsByBillingPeriod(ctx context.Context, period types.BillingPeriod) ([]string, error) {
	plans := s.InMemoryStore.List(ctx, func(p *plan.Plan) bool {
		return p.BillingPeriod == period
	})
	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		ids = append(ids, p.ID)
	}
	return ids, nil
}
