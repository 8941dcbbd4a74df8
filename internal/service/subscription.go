package service

import (
	"context"
	"time"

	"github.com/qripge/qrip-backend/internal/api/dto"
	"github.com/qripge/qrip-backend/internal/domain/subscription"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/types"
)

// SubscriptionService covers the subscription lifecycle outside of
// charging: cancellation, resumption, free-tier continuity and the
// sweep that expires canceled subscriptions whose paid period ended.
type SubscriptionService interface {
	// Get retrieves a subscription by id.
	Get(ctx context.Context, id string) (*dto.SubscriptionResponse, error)

	// Cancel stops future billing on an active subscription. Paid access
	// continues until the stamped end date; the user's free-tier
	// subscription is reactivated so they never lose the base features.
	Cancel(ctx context.Context, req *dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error)

	// Resume reverses a cancellation, restoring the billing anchor from
	// the stamped end date.
	Resume(ctx context.Context, req *dto.ResumeSubscriptionRequest) (*dto.SubscriptionResponse, error)

	// AssignFreePlan puts the user on the free tier, reactivating their
	// existing free subscription when one exists.
	AssignFreePlan(ctx context.Context, userID string) error

	// ExpireEndedCanceled transitions canceled subscriptions whose paid
	// period has elapsed into the terminal expired state.
	ExpireEndedCanceled(ctx context.Context) (*dto.LifecycleRunResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) Get(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.SubscriptionResponseFromDomain(sub), nil
}

func (s *subscriptionService) Cancel(ctx context.Context, req *dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != req.UserID {
		return nil, ierr.NewError("subscription belongs to another user").
			Mark(ierr.ErrPermissionDenied)
	}

	if sub.SubscriptionStatus != types.SubscriptionStatusActive {
		return nil, ierr.NewError("only active subscriptions can be canceled").
			WithHint("The subscription is not active").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"status":          sub.SubscriptionStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()

	// The paid period keeps running until the would-be next charge.
	sub.SubscriptionStatus = types.SubscriptionStatusCanceled
	sub.EndDate = sub.NextBillingDate
	sub.NextBillingDate = nil
	sub.UpdatedAt = now

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.AssignFreePlan(ctx, sub.UserID); err != nil {
		s.Logger.Errorw("failed to restore free plan after cancel",
			"subscription_id", sub.ID,
			"user_id", sub.UserID,
			"error", err)
	}

	s.Logger.Infow("subscription canceled",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"end_date", sub.EndDate)

	return dto.SubscriptionResponseFromDomain(sub), nil
}

func (s *subscriptionService) Resume(ctx context.Context, req *dto.ResumeSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != req.UserID {
		return nil, ierr.NewError("subscription belongs to another user").
			Mark(ierr.ErrPermissionDenied)
	}

	if sub.SubscriptionStatus != types.SubscriptionStatusCanceled {
		return nil, ierr.NewError("only canceled subscriptions can be resumed").
			WithHint("The subscription is not canceled").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"status":          sub.SubscriptionStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	if s.Config.Billing.EnforceResumeWindow {
		if sub.EndDate == nil || sub.EndDate.Before(now) {
			return nil, ierr.NewError("subscription period has already ended").
				WithHint("The paid period ran out, start a new subscription instead").
				Mark(ierr.ErrInvalidOperation)
		}
	}

	sub.SubscriptionStatus = types.SubscriptionStatusActive
	sub.NextBillingDate = sub.EndDate
	sub.EndDate = nil
	sub.UpdatedAt = now

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	if err := s.deactivateFreePlan(ctx, sub.UserID); err != nil {
		s.Logger.Errorw("failed to park free plan after resume",
			"subscription_id", sub.ID,
			"user_id", sub.UserID,
			"error", err)
	}

	s.Logger.Infow("subscription resumed",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"next_billing_date", sub.NextBillingDate)

	return dto.SubscriptionResponseFromDomain(sub), nil
}

// AssignFreePlan reactivates the user's free-tier subscription, or
// creates one when they never had it.
func (s *subscriptionService) AssignFreePlan(ctx context.Context, userID string) error {
	freePlan, err := s.PlanRepo.GetFreePlan(ctx)
	if err != nil {
		return err
	}

	existing, err := s.SubRepo.GetByUserAndPlan(ctx, userID, freePlan.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return err
	}

	if existing != nil {
		if existing.SubscriptionStatus == types.SubscriptionStatusActive {
			return nil
		}
		now := time.Now().UTC()
		existing.SubscriptionStatus = types.SubscriptionStatusActive
		// Reactivation is a fresh start, not a continuation.
		existing.StartDate = &now
		existing.UpdatedAt = now
		return s.SubRepo.Update(ctx, existing)
	}

	now := time.Now().UTC()
	freeSub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:             userID,
		PlanID:             freePlan.ID,
		SubscriptionStatus: types.SubscriptionStatusActive,
		StartDate:          &now,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if err := freeSub.Validate(); err != nil {
		return err
	}
	return s.SubRepo.Create(ctx, freeSub)
}

// deactivateFreePlan parks the user's free-tier subscription while a
// paid one is active.
func (s *subscriptionService) deactivateFreePlan(ctx context.Context, userID string) error {
	freePlan, err := s.PlanRepo.GetFreePlan(ctx)
	if err != nil {
		return err
	}

	existing, err := s.SubRepo.GetByUserAndPlan(ctx, userID, freePlan.ID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.SubscriptionStatus == types.SubscriptionStatusInactive {
		return nil
	}

	existing.SubscriptionStatus = types.SubscriptionStatusInactive
	existing.UpdatedAt = time.Now().UTC()
	return s.SubRepo.Update(ctx, existing)
}

// ExpireEndedCanceled sweeps canceled subscriptions whose stamped end
// date has passed and retires them. Runs as a cron pass.
func (s *subscriptionService) ExpireEndedCanceled(ctx context.Context) (*dto.LifecycleRunResponse, error) {
	now := time.Now().UTC()

	ended, err := s.SubRepo.List(ctx, &subscription.Filter{
		Statuses:      []types.SubscriptionStatus{types.SubscriptionStatusCanceled},
		EndDateBefore: &now,
	})
	if err != nil {
		return nil, err
	}

	result := &dto.LifecycleRunResponse{}
	for _, sub := range ended {
		sub.SubscriptionStatus = types.SubscriptionStatusExpired
		sub.UpdatedAt = now
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			s.Logger.Errorw("failed to expire ended subscription",
				"subscription_id", sub.ID,
				"error", err)
			continue
		}
		result.Expired++

		if err := s.AssignFreePlan(ctx, sub.UserID); err != nil {
			s.Logger.Errorw("failed to restore free plan after expiry",
				"subscription_id", sub.ID,
				"user_id", sub.UserID,
				"error", err)
		}
	}

	if result.Expired > 0 {
		s.Logger.Infow("expired ended canceled subscriptions", "count", result.Expired)
	}
	return result, nil
}
