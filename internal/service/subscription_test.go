package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/qripge/qrip-backend/internal/api/dto"
	"github.com/qripge/qrip-backend/internal/domain/plan"
	"github.com/qripge/qrip-backend/internal/domain/subscription"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/testutil"
	"github.com/qripge/qrip-backend/internal/types"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
	params  ServiceParams
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

const testFreePlanID = "plan_free"

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		SubRepo:        s.GetStores().SubscriptionRepo,
		PlanRepo:       s.GetStores().PlanRepo,
		MemorialRepo:   s.GetStores().MemorialRepo,
		PurchaseRepo:   s.GetStores().PurchaseRepo,
		UserRepo:       s.GetStores().UserRepo,
		PaymentGateway: s.GetGateway(),
		EmailSender:    s.GetEmailSender(),
	}
	s.service = NewSubscriptionService(s.params)

	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), &plan.Plan{
		ID:            testPlanID,
		Name:          "Premium",
		BillingPeriod: types.BillingPeriodMonthly,
		Price:         decimal.NewFromInt(10),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}))
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), &plan.Plan{
		ID:            testFreePlanID,
		Name:          "Free",
		BillingPeriod: types.BillingPeriodFree,
		Price:         decimal.Zero,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}))
}

func (s *SubscriptionServiceSuite) seedPaidSubscription(status types.SubscriptionStatus, mutate func(*subscription.Subscription)) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:             testUserID,
		PlanID:             testPlanID,
		DurationPrice:      decimal.NewFromInt(10),
		GatewayOrderID:     "order-1",
		GatewayRecurringID: "rec-1",
		SubscriptionStatus: status,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	if mutate != nil {
		mutate(sub)
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *SubscriptionServiceSuite) TestCancelStopsBillingAndKeepsPaidPeriod() {
	nextBilling := time.Now().UTC().Add(20 * 24 * time.Hour)
	sub := s.seedPaidSubscription(types.SubscriptionStatusActive, func(sub *subscription.Subscription) {
		sub.NextBillingDate = &nextBilling
	})

	resp, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.NoError(err)
	s.Equal("canceled", resp.SubscriptionStatus)
	s.Nil(resp.NextBillingDate)
	s.NotNil(resp.EndDate)
	s.True(resp.EndDate.Equal(nextBilling))

	// The free tier is restored so the user keeps base features.
	freeSub, err := s.GetStores().SubscriptionRepo.GetByUserAndPlan(s.GetContext(), testUserID, testFreePlanID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, freeSub.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestCancelReactivatesFreeTierWithFreshStart() {
	oldStart := time.Now().UTC().Add(-90 * 24 * time.Hour)
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:             testUserID,
		PlanID:             testFreePlanID,
		SubscriptionStatus: types.SubscriptionStatusInactive,
		StartDate:          &oldStart,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}))
	nextBilling := time.Now().UTC().Add(20 * 24 * time.Hour)
	sub := s.seedPaidSubscription(types.SubscriptionStatusActive, func(sub *subscription.Subscription) {
		sub.NextBillingDate = &nextBilling
	})

	_, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.NoError(err)

	freeSub, err := s.GetStores().SubscriptionRepo.GetByUserAndPlan(s.GetContext(), testUserID, testFreePlanID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, freeSub.SubscriptionStatus)
	s.NotNil(freeSub.StartDate)
	s.WithinDuration(time.Now().UTC(), *freeSub.StartDate, time.Minute)
}

func (s *SubscriptionServiceSuite) TestCancelRejectsNonActive() {
	sub := s.seedPaidSubscription(types.SubscriptionStatusPaymentFailed, nil)

	_, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestCancelRejectsOtherUsers() {
	sub := s.seedPaidSubscription(types.SubscriptionStatusActive, nil)

	_, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         "user_other",
	})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *SubscriptionServiceSuite) TestResumeRestoresBillingAnchor() {
	endDate := time.Now().UTC().Add(15 * 24 * time.Hour)
	sub := s.seedPaidSubscription(types.SubscriptionStatusCanceled, func(sub *subscription.Subscription) {
		sub.EndDate = &endDate
	})

	resp, err := s.service.Resume(s.GetContext(), &dto.ResumeSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.NoError(err)
	s.Equal("active", resp.SubscriptionStatus)
	s.Nil(resp.EndDate)
	s.NotNil(resp.NextBillingDate)
	s.True(resp.NextBillingDate.Equal(endDate))
}

func (s *SubscriptionServiceSuite) TestResumeParksFreePlanAgain() {
	endDate := time.Now().UTC().Add(15 * 24 * time.Hour)
	sub := s.seedPaidSubscription(types.SubscriptionStatusCanceled, func(sub *subscription.Subscription) {
		sub.EndDate = &endDate
	})
	s.NoError(s.service.AssignFreePlan(s.GetContext(), testUserID))

	_, err := s.service.Resume(s.GetContext(), &dto.ResumeSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.NoError(err)

	freeSub, err := s.GetStores().SubscriptionRepo.GetByUserAndPlan(s.GetContext(), testUserID, testFreePlanID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusInactive, freeSub.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestResumeRejectsElapsedPeriod() {
	endDate := time.Now().UTC().Add(-24 * time.Hour)
	sub := s.seedPaidSubscription(types.SubscriptionStatusCanceled, func(sub *subscription.Subscription) {
		sub.EndDate = &endDate
	})

	_, err := s.service.Resume(s.GetContext(), &dto.ResumeSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestResumeWindowCanBeDisabled() {
	s.GetConfig().Billing.EnforceResumeWindow = false
	endDate := time.Now().UTC().Add(-24 * time.Hour)
	sub := s.seedPaidSubscription(types.SubscriptionStatusCanceled, func(sub *subscription.Subscription) {
		sub.EndDate = &endDate
	})

	resp, err := s.service.Resume(s.GetContext(), &dto.ResumeSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.NoError(err)
	s.Equal("active", resp.SubscriptionStatus)
}

func (s *SubscriptionServiceSuite) TestResumeRejectsNonCanceled() {
	sub := s.seedPaidSubscription(types.SubscriptionStatusActive, nil)

	_, err := s.service.Resume(s.GetContext(), &dto.ResumeSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionServiceSuite) TestCancelThenResumeRoundTrip() {
	nextBilling := time.Now().UTC().Add(20 * 24 * time.Hour)
	sub := s.seedPaidSubscription(types.SubscriptionStatusActive, func(sub *subscription.Subscription) {
		sub.NextBillingDate = &nextBilling
	})

	_, err := s.service.Cancel(s.GetContext(), &dto.CancelSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.NoError(err)

	resp, err := s.service.Resume(s.GetContext(), &dto.ResumeSubscriptionRequest{
		SubscriptionID: sub.ID,
		UserID:         testUserID,
	})
	s.NoError(err)
	s.Equal("active", resp.SubscriptionStatus)
	s.NotNil(resp.NextBillingDate)
	s.True(resp.NextBillingDate.Equal(nextBilling))
	s.Nil(resp.EndDate)
}

func (s *SubscriptionServiceSuite) TestExpireEndedCanceledSweep() {
	pastEnd := time.Now().UTC().Add(-time.Hour)
	ended := s.seedPaidSubscription(types.SubscriptionStatusCanceled, func(sub *subscription.Subscription) {
		sub.EndDate = &pastEnd
	})
	futureEnd := time.Now().UTC().Add(10 * 24 * time.Hour)
	stillRunning := s.seedPaidSubscription(types.SubscriptionStatusCanceled, func(sub *subscription.Subscription) {
		sub.GatewayOrderID = "order-2"
		sub.EndDate = &futureEnd
	})

	result, err := s.service.ExpireEndedCanceled(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.Expired)

	expired, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), ended.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusExpired, expired.SubscriptionStatus)

	untouched, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), stillRunning.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, untouched.SubscriptionStatus)

	freeSub, err := s.GetStores().SubscriptionRepo.GetByUserAndPlan(s.GetContext(), ended.UserID, testFreePlanID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, freeSub.SubscriptionStatus)
}
