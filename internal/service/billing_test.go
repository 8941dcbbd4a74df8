package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/qripge/qrip-backend/internal/api/dto"
	"github.com/qripge/qrip-backend/internal/domain/plan"
	"github.com/qripge/qrip-backend/internal/domain/subscription"
	"github.com/qripge/qrip-backend/internal/domain/user"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/testutil"
	"github.com/qripge/qrip-backend/internal/types"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BillingService
	params  ServiceParams
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
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
	s.service = NewBillingService(s.params)

	s.seedPlan()
	s.seedUser()
}

const (
	testPlanID = "plan_premium"
	testUserID = "user_1"
)

func (s *BillingServiceSuite) seedPlan() {
	err := s.GetStores().PlanRepo.Create(s.GetContext(), &plan.Plan{
		ID:            testPlanID,
		Name:          "Premium",
		BillingPeriod: types.BillingPeriodMonthly,
		Price:         decimal.NewFromInt(10),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	})
	s.NoError(err)
}

func (s *BillingServiceSuite) seedUser() {
	err := s.GetStores().UserRepo.Add(s.GetContext(), &user.User{
		ID:    testUserID,
		Email: "owner@example.com",
	})
	s.NoError(err)
}

func (s *BillingServiceSuite) seedSubscription(mutate func(*subscription.Subscription)) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:             testUserID,
		PlanID:             testPlanID,
		DurationPrice:      decimal.NewFromInt(10),
		GatewayOrderID:     "order-initial",
		GatewayRecurringID: "rec-1",
		SubscriptionStatus: types.SubscriptionStatusActive,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	if mutate != nil {
		mutate(sub)
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *BillingServiceSuite) TestDueSubscriptionIsChargedAndAdvanced() {
	due := time.Now().UTC().Add(-time.Hour)
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.NextBillingDate = &due
	})

	result, err := s.service.ProcessDueSubscriptions(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.Processed)
	s.Equal(1, result.Succeeded)
	s.Equal(0, result.Failed)

	s.Equal(1, s.GetGateway().ChargeCount())
	s.Equal("rec-1", s.GetGateway().ChargeCalls[0].ChargeTargetID)
	s.True(s.GetGateway().ChargeCalls[0].Amount.Equal(decimal.NewFromInt(10)))

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, updated.SubscriptionStatus)
	s.Equal(0, updated.RetryAttemptCount)
	s.Nil(updated.LastRetryAttemptAt)
	s.NotNil(updated.LastPaymentDate)
	s.NotNil(updated.NextBillingDate)
	s.WithinDuration(types.AddCalendarMonths(time.Now().UTC(), 1), *updated.NextBillingDate, time.Minute)

	s.Len(updated.TransactionHistory, 1)
	s.Equal(types.TransactionStatusRecurringSuccess, updated.TransactionHistory[0].Status)
	s.NotEqual(subscription.FailedAttemptTransactionID, updated.TransactionHistory[0].GatewayTransactionID)
}

func (s *BillingServiceSuite) TestPassIsNoOpWhenNothingIsDue() {
	future := time.Now().UTC().Add(10 * 24 * time.Hour)
	s.seedSubscription(func(sub *subscription.Subscription) {
		sub.NextBillingDate = &future
	})

	result, err := s.service.ProcessDueSubscriptions(s.GetContext())
	s.NoError(err)
	s.Equal(0, result.Processed)
	s.Equal(0, s.GetGateway().ChargeCount())
}

func (s *BillingServiceSuite) TestFailedChargeSchedulesRetry() {
	due := time.Now().UTC().Add(-time.Hour)
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.NextBillingDate = &due
	})
	s.GetGateway().FailCharges(true)

	result, err := s.service.ProcessDueSubscriptions(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.Failed)
	s.Equal(0, result.Expired)

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPaymentFailed, updated.SubscriptionStatus)
	s.Equal(1, updated.RetryAttemptCount)
	s.NotNil(updated.LastRetryAttemptAt)

	s.Len(updated.TransactionHistory, 1)
	s.Equal(types.TransactionStatusRecurringFailed, updated.TransactionHistory[0].Status)
	s.Equal(subscription.FailedAttemptTransactionID, updated.TransactionHistory[0].GatewayTransactionID)

	s.Len(s.GetEmailSender().PaymentFailures, 1)
	notice := s.GetEmailSender().PaymentFailures[0]
	s.Equal("owner@example.com", notice.To)
	s.Equal(1, notice.Attempt)
	s.NotNil(notice.NextRetryAt)
	s.WithinDuration(time.Now().UTC().Add(3*24*time.Hour), *notice.NextRetryAt, time.Minute)
}

func (s *BillingServiceSuite) TestFinalFailedAttemptExpiresSubscription() {
	lastRetry := time.Now().UTC().Add(-13 * 24 * time.Hour)
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.SubscriptionStatus = types.SubscriptionStatusPaymentFailed
		sub.RetryAttemptCount = 2
		sub.LastRetryAttemptAt = &lastRetry
	})
	s.GetGateway().FailCharges(true)

	result, err := s.service.ProcessDueSubscriptions(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.Expired)

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusExpired, updated.SubscriptionStatus)
	s.Equal(3, updated.RetryAttemptCount)

	// The paid period ends at the final failed attempt.
	s.NotNil(updated.EndDate)
	s.WithinDuration(time.Now().UTC(), *updated.EndDate, time.Minute)

	s.Len(s.GetEmailSender().PaymentFailures, 1)
	s.Nil(s.GetEmailSender().PaymentFailures[0].NextRetryAt)
}

func (s *BillingServiceSuite) TestRetryWaitsOutExponentialBackoff() {
	// Second attempt needs 6 days since the last one; 4 days is too soon.
	lastRetry := time.Now().UTC().Add(-4 * 24 * time.Hour)
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.SubscriptionStatus = types.SubscriptionStatusPaymentFailed
		sub.RetryAttemptCount = 2
		sub.LastRetryAttemptAt = &lastRetry
	})

	result, err := s.service.ProcessDueSubscriptions(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.Skipped)
	s.Equal(0, s.GetGateway().ChargeCount())

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPaymentFailed, updated.SubscriptionStatus)
	s.Equal(2, updated.RetryAttemptCount)
}

func (s *BillingServiceSuite) TestSuccessfulRetryResetsCounters() {
	lastRetry := time.Now().UTC().Add(-7 * 24 * time.Hour)
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.SubscriptionStatus = types.SubscriptionStatusPaymentFailed
		sub.RetryAttemptCount = 2
		sub.LastRetryAttemptAt = &lastRetry
	})

	result, err := s.service.ProcessDueSubscriptions(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.Succeeded)

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, updated.SubscriptionStatus)
	s.Equal(0, updated.RetryAttemptCount)
	s.Nil(updated.LastRetryAttemptAt)
	s.NotNil(updated.NextBillingDate)
}

func (s *BillingServiceSuite) TestManualRetryBypassesBackoff() {
	lastRetry := time.Now().UTC().Add(-time.Minute)
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.SubscriptionStatus = types.SubscriptionStatusPaymentFailed
		sub.RetryAttemptCount = 1
		sub.LastRetryAttemptAt = &lastRetry
	})

	resp, err := s.service.RetryPayment(s.GetContext(), &dto.RetryPaymentRequest{SubscriptionID: sub.ID})
	s.NoError(err)
	s.Equal("active", resp.SubscriptionStatus)
	s.Equal(0, resp.RetryAttemptCount)
	s.Equal(1, s.GetGateway().ChargeCount())
}

func (s *BillingServiceSuite) TestManualRetryRejectsNonFailedSubscription() {
	sub := s.seedSubscription(nil)

	_, err := s.service.RetryPayment(s.GetContext(), &dto.RetryPaymentRequest{SubscriptionID: sub.ID})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *BillingServiceSuite) TestManualRetryUnknownSubscription() {
	_, err := s.service.RetryPayment(s.GetContext(), &dto.RetryPaymentRequest{SubscriptionID: "subs_missing"})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *BillingServiceSuite) TestClaimIsExclusive() {
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.SubscriptionStatus = types.SubscriptionStatusPaymentFailed
		sub.RetryAttemptCount = 1
	})

	claimed, err := s.GetStores().SubscriptionRepo.ClaimForProcessing(s.GetContext(), sub.ID,
		[]types.SubscriptionStatus{types.SubscriptionStatusPaymentFailed})
	s.NoError(err)
	s.NotNil(claimed)

	// A second claim while the first is held matches nothing.
	again, err := s.GetStores().SubscriptionRepo.ClaimForProcessing(s.GetContext(), sub.ID,
		[]types.SubscriptionStatus{types.SubscriptionStatusActive, types.SubscriptionStatusPaymentFailed})
	s.NoError(err)
	s.Nil(again)

	// Manual retry sees the held claim and refuses.
	_, err = s.service.RetryPayment(s.GetContext(), &dto.RetryPaymentRequest{SubscriptionID: sub.ID})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(0, s.GetGateway().ChargeCount())
}

func (s *BillingServiceSuite) TestFirstChargeEstablishesRecurringTarget() {
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.SubscriptionStatus = types.SubscriptionStatusPaymentFailed
		sub.GatewayRecurringID = ""
	})

	resp, err := s.service.RetryPayment(s.GetContext(), &dto.RetryPaymentRequest{SubscriptionID: sub.ID})
	s.NoError(err)
	s.Equal("active", resp.SubscriptionStatus)
	s.Equal("order-initial", s.GetGateway().ChargeCalls[0].ChargeTargetID)

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal("order-initial", updated.GatewayRecurringID)
	s.NotNil(updated.StartDate)
	s.WithinDuration(time.Now().UTC(), *updated.StartDate, time.Minute)
	s.NotNil(updated.NextBillingDate)
}

func (s *BillingServiceSuite) TestFailedOneTimePaymentIsRetriedByPass() {
	s.NoError(s.GetStores().PlanRepo.Create(s.GetContext(), &plan.Plan{
		ID:            "plan_onetime",
		Name:          "Memorial Year",
		BillingPeriod: types.BillingPeriodOneTime,
		Price:         decimal.NewFromInt(25),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}))
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.PlanID = "plan_onetime"
		sub.Duration = types.Duration1Year
		sub.DurationPrice = decimal.NewFromInt(25)
		sub.GatewayRecurringID = ""
		sub.SubscriptionStatus = types.SubscriptionStatusPaymentFailed
	})

	result, err := s.service.ProcessDueSubscriptions(s.GetContext())
	s.NoError(err)
	s.Equal(1, result.Succeeded)

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, updated.SubscriptionStatus)
	s.Nil(updated.NextBillingDate)
	s.NotNil(updated.EndDate)
	s.WithinDuration(time.Now().UTC().Add(365*24*time.Hour), *updated.EndDate, time.Minute)
}

func (s *BillingServiceSuite) TestPlanLookupFailureKeepsPriorState() {
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.PlanID = "plan_gone"
	})

	bs := &billingService{ServiceParams: s.params}
	outcome, err := bs.chargeSubscription(s.GetContext(), sub.ID, time.Now().UTC())
	s.Error(err)
	s.Equal(outcomeSkipped, outcome)
	s.Equal(0, s.GetGateway().ChargeCount())

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, updated.SubscriptionStatus)
	s.Equal(0, updated.RetryAttemptCount)
	s.Empty(updated.TransactionHistory)
}

func (s *BillingServiceSuite) TestSubscriptionWithoutOrderIsNotCharged() {
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.GatewayOrderID = ""
		sub.GatewayRecurringID = ""
		sub.DurationPrice = decimal.Zero
	})

	bs := &billingService{ServiceParams: s.params}
	outcome, err := bs.chargeSubscription(s.GetContext(), sub.ID, time.Now().UTC())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(outcomeSkipped, outcome)
	s.Equal(0, s.GetGateway().ChargeCount())

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, updated.SubscriptionStatus)
}

func (s *BillingServiceSuite) TestOwnerWithoutEmailIsNotCharged() {
	s.NoError(s.GetStores().UserRepo.Add(s.GetContext(), &user.User{ID: "user_noemail"}))
	sub := s.seedSubscription(func(sub *subscription.Subscription) {
		sub.UserID = "user_noemail"
	})

	bs := &billingService{ServiceParams: s.params}
	outcome, err := bs.chargeSubscription(s.GetContext(), sub.ID, time.Now().UTC())
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal(outcomeSkipped, outcome)
	s.Equal(0, s.GetGateway().ChargeCount())

	updated, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, updated.SubscriptionStatus)
}

func (s *BillingServiceSuite) TestTestModeChargesNominalAmount() {
	s.GetConfig().Billing.PaymentTestMode = true
	due := time.Now().UTC().Add(-time.Hour)
	s.seedSubscription(func(sub *subscription.Subscription) {
		sub.NextBillingDate = &due
	})

	_, err := s.service.ProcessDueSubscriptions(s.GetContext())
	s.NoError(err)
	s.Equal(1, s.GetGateway().ChargeCount())
	s.True(s.GetGateway().ChargeCalls[0].Amount.Equal(decimal.NewFromFloat(0.01)))
}

func (s *BillingServiceSuite) TestRetryBackoffSchedule() {
	bs := &billingService{ServiceParams: s.params}

	s.Equal(3*24*time.Hour, bs.retryBackoff(1))
	s.Equal(6*24*time.Hour, bs.retryBackoff(2))
	s.Equal(12*24*time.Hour, bs.retryBackoff(3))
	s.Equal(24*24*time.Hour, bs.retryBackoff(4))
	// Capped at 30 days no matter how far the attempts go.
	s.Equal(30*24*time.Hour, bs.retryBackoff(5))
	s.Equal(30*24*time.Hour, bs.retryBackoff(10))
}
