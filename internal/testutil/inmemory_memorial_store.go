package testutil

import (
	"context"
	"time"

	"github.com/qripge/qrip-backend/internal/domain/memorial"
	"github.com/qripge/qrip-backend/internal/types"
)

// InMemoryMemorialStore implements memorial.Repository
type InMemoryMemorialStore struct {
	*InMemoryStore[*memorial.Memorial]
}

func NewInMemoryMemorialStore() *InMemoryMemorialStore {
	return &InMemoryMemorialStore{
		InMemoryStore: NewInMemoryStore[*memorial.Memorial](),
	}
}

func (s *InMemoryMemorialStore) Create(ctx context.Context, m *memorial.Memorial) error {
	return s.InMemoryStore.Create(ctx, m.ID, m)
}

func (s *InMemoryMemorialStore) Get(ctx context.Context, id string) (*memorial.Memorial, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryMemorialStore) ListActiveWithPurchase(ctx context.Context) ([]*memorial.Memorial, error) {
	return s.InMemoryStore.List(ctx, func(m *memorial.Memorial) bool {
		return m.MemorialStatus == types.MemorialStatusActive && m.PurchaseID != ""
	}), nil
}

func (s *InMemoryMemorialStore) UpdateAccess(ctx context.Context, id string, status types.MemorialStatus, paymentStatus types.MemorialPaymentStatus) error {
	m, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return err
	}
	m.MemorialStatus = status
	m.PaymentStatus = paymentStatus
	m.UpdatedAt = time.Now().UTC()
	return s.InMemoryStore.Update(ctx, id, m)
}

func (s *InMemoryMemorialStore) Update(ctx context.Context, m *memorial.Memorial) error {
	return s.InMemoryStore.Update(ctx, m.ID, m)
}
