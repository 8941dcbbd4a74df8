package testutil

import (
	"context"
	"sync"

	"github.com/qripge/qrip-backend/internal/domain/subscription"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository. The
// claim and release operations go through the same mutex as every
// other write, so the store exhibits the same atomicity a conditional
// update gives the real backend.
type InMemorySubscriptionStore struct {
	mu   sync.Mutex
	subs map[string]*subscription.Subscription
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subs: make(map[string]*subscription.Subscription),
	}
}

func cloneSubscription(sub *subscription.Subscription) *subscription.Subscription {
	cp := *sub
	cp.TransactionHistory = append([]subscription.Transaction(nil), sub.TransactionHistory...)
	return &cp
}

func (s *InMemorySubscriptionStore) Create(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subs[sub.ID]; exists {
		return ierr.NewErrorf("subscription %s already exists", sub.ID).Mark(ierr.ErrAlreadyExists)
	}
	s.subs[sub.ID] = cloneSubscription(sub)
	return nil
}

func (s *InMemorySubscriptionStore) Get(_ context.Context, id string) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, exists := s.subs[id]
	if !exists {
		return nil, ierr.NewErrorf("subscription %s not found", id).Mark(ierr.ErrNotFound)
	}
	return cloneSubscription(sub), nil
}

func (s *InMemorySubscriptionStore) GetByGatewayOrderID(_ context.Context, orderID string) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.GatewayOrderID == orderID {
			return cloneSubscription(sub), nil
		}
	}
	return nil, ierr.NewErrorf("no subscription for order %s", orderID).Mark(ierr.ErrNotFound)
}

func (s *InMemorySubscriptionStore) GetByUserAndPlan(_ context.Context, userID, planID string) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.UserID == userID && sub.PlanID == planID {
			return cloneSubscription(sub), nil
		}
	}
	return nil, ierr.NewErrorf("no subscription for user %s on plan %s", userID, planID).Mark(ierr.ErrNotFound)
}

func (s *InMemorySubscriptionStore) List(_ context.Context, filter *subscription.Filter) ([]*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*subscription.Subscription
	for _, sub := range s.subs {
		if filter.Matches(sub) {
			out = append(out, cloneSubscription(sub))
		}
	}
	return out, nil
}

func (s *InMemorySubscriptionStore) Update(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.subs[sub.ID]
	if !exists {
		return ierr.NewErrorf("subscription %s not found", sub.ID).Mark(ierr.ErrNotFound)
	}
	cp := cloneSubscription(sub)
	// History is append-only and owned by AppendTransaction.
	cp.TransactionHistory = stored.TransactionHistory
	s.subs[sub.ID] = cp
	return nil
}

func (s *InMemorySubscriptionStore) AppendTransaction(_ context.Context, id string, txn subscription.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.subs[id]
	if !exists {
		return ierr.NewErrorf("subscription %s not found", id).Mark(ierr.ErrNotFound)
	}
	stored.TransactionHistory = append(stored.TransactionHistory, txn)
	return nil
}

func (s *InMemorySubscriptionStore) ClaimForProcessing(_ context.Context, id string, from []types.SubscriptionStatus) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.subs[id]
	if !exists {
		return nil, nil
	}
	claimable := false
	for _, st := range from {
		if stored.SubscriptionStatus == st {
			claimable = true
			break
		}
	}
	if !claimable {
		return nil, nil
	}
	// The caller gets the pre-claim snapshot, matching the backend's
	// find-and-update returning the prior document.
	snapshot := cloneSubscription(stored)
	stored.SubscriptionStatus = types.SubscriptionStatusProcessingPayment
	return snapshot, nil
}

func (s *InMemorySubscriptionStore) ReleaseProcessing(_ context.Context, id string, to types.SubscriptionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, exists := s.subs[id]
	if !exists {
		return ierr.NewErrorf("subscription %s not found", id).Mark(ierr.ErrNotFound)
	}
	if stored.SubscriptionStatus != types.SubscriptionStatusProcessingPayment {
		return nil
	}
	stored.SubscriptionStatus = to
	return nil
}

// Clear removes all subscriptions.
func (s *InMemorySubscriptionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = make(map[string]*subscription.Subscription)
}
