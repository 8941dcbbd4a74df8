package testutil

import (
	"context"

	"github.com/qripge/qrip-backend/internal/domain/purchase"
	ierr "github.com/qripge/qrip-backend/internal/errors"
)

// InMemoryPurchaseStore implements purchase.Repository
type InMemoryPurchaseStore struct {
	*InMemoryStore[*purchase.MemorialPurchase]
}

func NewInMemoryPurchaseStore() *InMemoryPurchaseStore {
	return &InMemoryPurchaseStore{
		InMemoryStore: NewInMemoryStore[*purchase.MemorialPurchase](),
	}
}

func (s *InMemoryPurchaseStore) Create(ctx context.Context, p *purchase.MemorialPurchase) error {
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPurchaseStore) Get(ctx context.Context, id string) (*purchase.MemorialPurchase, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryPurchaseStore) GetByGatewayOrderID(ctx context.Context, orderID string) (*purchase.MemorialPurchase, error) {
	matches := s.InMemoryStore.List(ctx, func(p *purchase.MemorialPurchase) bool {
		return p.GatewayOrderID == orderID
	})
	if len(matches) == 0 {
		return nil, ierr.NewErrorf("no purchase for order %s", orderID).Mark(ierr.ErrNotFound)
	}
	return matches[0], nil
}

func (s *InMemoryPurchaseStore) Update(ctx context.Context, p *purchase.MemorialPurchase) error {
	return s.InMemoryStore.Update(ctx, p.ID, p)
}
