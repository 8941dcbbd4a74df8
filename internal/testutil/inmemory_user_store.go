package testutil

import (
	"context"

	"github.com/qripge/qrip-backend/internal/domain/user"
)

// InMemoryUserStore implements user.Repository
type InMemoryUserStore struct {
	*InMemoryStore[*user.User]
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		InMemoryStore: NewInMemoryStore[*user.User](),
	}
}

// Add seeds a user into the store.
func (s *InMemoryUserStore) Add(ctx context.Context, u *user.User) error {
	return s.InMemoryStore.Create(ctx, u.ID, u)
}

func (s *InMemoryUserStore) Get(ctx context.Context, id string) (*user.User, error) {
	return s.InMemoryStore.Get(ctx, id)
}
