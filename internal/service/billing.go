package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/qripge/qrip-backend/internal/api/dto"
	"github.com/qripge/qrip-backend/internal/domain/plan"
	"github.com/qripge/qrip-backend/internal/domain/subscription"
	"github.com/qripge/qrip-backend/internal/email"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/integration/bog"
	"github.com/qripge/qrip-backend/internal/types"
)

// BillingService runs the recurring billing engine: the periodic pass
// over due and retry-eligible subscriptions, and user-triggered
// immediate retries.
type BillingService interface {
	// ProcessDueSubscriptions runs one billing pass. Each selected
	// subscription is claimed, charged once, updated and released; a
	// failure on one never aborts the pass.
	ProcessDueSubscriptions(ctx context.Context) (*dto.BillingRunResponse, error)

	// RetryPayment immediately reattempts the charge on a subscription
	// in payment_failed, bypassing the backoff schedule.
	RetryPayment(ctx context.Context, req *dto.RetryPaymentRequest) (*dto.SubscriptionResponse, error)
}

type billingService struct {
	ServiceParams
}

// NewBillingService creates a new billing service
func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
	}
}

// chargeOutcome is the terminal state of one charge attempt.
type chargeOutcome int

const (
	outcomeSkipped chargeOutcome = iota
	outcomeSucceeded
	outcomeFailed
	outcomeExpired
)

// ProcessDueSubscriptions selects every subscription due for renewal
// or eligible for a retry and attempts one charge on each.
func (s *billingService) ProcessDueSubscriptions(ctx context.Context) (*dto.BillingRunResponse, error) {
	now := time.Now().UTC()

	monthlyPlanIDs, err := s.PlanRepo.ListIDsByBillingPeriod(ctx, types.BillingPeriodMonthly)
	if err != nil {
		return nil, err
	}

	var due []*subscription.Subscription
	if len(monthlyPlanIDs) > 0 {
		due, err = s.SubRepo.List(ctx, &subscription.Filter{
			Statuses:          []types.SubscriptionStatus{types.SubscriptionStatusActive},
			PlanIDs:           monthlyPlanIDs,
			NextBillingBefore: &now,
		})
		if err != nil {
			return nil, err
		}
	}

	// Retries carry no plan restriction: a failed one-time initial
	// payment is reattempted the same way a failed renewal is. The
	// query filters on the base delay only; the per-attempt
	// exponential backoff is checked before claiming.
	baseEligibleAt := now.Add(-s.retryBackoff(1))
	maxAttempts := s.Config.Billing.MaxRetryAttempts
	retryable, err := s.SubRepo.List(ctx, &subscription.Filter{
		Statuses:           []types.SubscriptionStatus{types.SubscriptionStatusPaymentFailed},
		RetryAttemptsBelow: &maxAttempts,
		RetryEligibleAt:    &baseEligibleAt,
	})
	if err != nil {
		return nil, err
	}

	candidates := lo.UniqBy(append(due, retryable...), func(sub *subscription.Subscription) string {
		return sub.ID
	})

	s.Logger.Infow("starting billing pass",
		"due", len(due),
		"retryable", len(retryable),
		"candidates", len(candidates))

	result := &dto.BillingRunResponse{}
	for _, candidate := range candidates {
		result.Processed++

		if !s.retryDue(candidate, now) {
			result.Skipped++
			continue
		}

		outcome, err := s.chargeSubscription(ctx, candidate.ID, now)
		if err != nil {
			s.Logger.Errorw("billing pass item failed",
				"subscription_id", candidate.ID,
				"error", err)
			result.Skipped++
			continue
		}

		switch outcome {
		case outcomeSucceeded:
			result.Succeeded++
		case outcomeFailed:
			result.Failed++
		case outcomeExpired:
			result.Expired++
		default:
			result.Skipped++
		}
	}

	s.Logger.Infow("completed billing pass",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"expired", result.Expired,
		"skipped", result.Skipped)

	return result, nil
}

// RetryPayment reattempts the charge on a failed subscription right
// away. The claim still goes through the conditional update, so a
// concurrent billing pass and a manual retry can never double-charge.
func (s *billingService) RetryPayment(ctx context.Context, req *dto.RetryPaymentRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if sub.SubscriptionStatus != types.SubscriptionStatusPaymentFailed {
		return nil, ierr.NewError("subscription is not awaiting a retry").
			WithHint("Only subscriptions with a failed payment can be retried").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"status":          sub.SubscriptionStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	outcome, err := s.chargeSubscription(ctx, sub.ID, now)
	if err != nil {
		return nil, err
	}
	if outcome == outcomeSkipped {
		return nil, ierr.NewError("payment is already being processed").
			WithHint("A charge attempt for this subscription is in flight").
			Mark(ierr.ErrInvalidOperation)
	}

	updated, err := s.SubRepo.Get(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	return dto.SubscriptionResponseFromDomain(updated), nil
}

// chargeSubscription claims the subscription, issues exactly one
// charge, records the outcome and releases the claim. The release
// always happens: success goes back to active, a declined charge to
// payment_failed or expired, a pre-charge data problem to the state
// the record was claimed from, and any unexpected error after the
// charge to payment_failed so the record is never stranded in the
// lock state.
func (s *billingService) chargeSubscription(ctx context.Context, id string, now time.Time) (chargeOutcome, error) {
	claimed, err := s.SubRepo.ClaimForProcessing(ctx, id, []types.SubscriptionStatus{
		types.SubscriptionStatusActive,
		types.SubscriptionStatusPaymentFailed,
	})
	if err != nil {
		return outcomeSkipped, err
	}
	if claimed == nil {
		// Another pass or a manual retry holds the claim.
		s.Logger.Debugw("subscription already claimed, skipping", "subscription_id", id)
		return outcomeSkipped, nil
	}

	// Data problems are not charge failures: a record that cannot be
	// charged at all goes back to the state it was claimed from and
	// never enters the retry track.
	priorStatus := claimed.SubscriptionStatus

	// The stored record now holds the lock state; keep the snapshot
	// aligned so a later Update cannot clobber the claim guard.
	claimed.SubscriptionStatus = types.SubscriptionStatusProcessingPayment

	if claimed.ChargeTargetID() == "" {
		s.releaseTo(ctx, id, priorStatus)
		return outcomeSkipped, ierr.NewError("subscription has no gateway order to charge").
			WithReportableDetails(map[string]interface{}{"subscription_id": id}).
			Mark(ierr.ErrInvalidOperation)
	}

	owner, err := s.UserRepo.Get(ctx, claimed.UserID)
	if err != nil {
		s.releaseTo(ctx, id, priorStatus)
		return outcomeSkipped, err
	}
	if owner.NormalizedEmail() == "" {
		s.releaseTo(ctx, id, priorStatus)
		return outcomeSkipped, ierr.NewError("subscription owner has no email on file").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": id,
				"user_id":         claimed.UserID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	amount, billingPlan, err := s.resolveChargeAmount(ctx, claimed)
	if err != nil {
		s.releaseTo(ctx, id, priorStatus)
		return outcomeSkipped, err
	}

	chargeResult, chargeErr := s.PaymentGateway.ChargeRecurring(ctx, claimed.ChargeTargetID(), amount)
	if chargeErr != nil {
		return s.recordFailure(ctx, claimed, billingPlan, amount, now, chargeErr)
	}
	return s.recordSuccess(ctx, claimed, billingPlan, amount, chargeResult, now)
}

func (s *billingService) recordSuccess(ctx context.Context, sub *subscription.Subscription, billingPlan *plan.Plan, amount decimal.Decimal, chargeResult *bog.ChargeResult, now time.Time) (chargeOutcome, error) {
	txn := subscription.Transaction{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
		GatewayTransactionID: chargeResult.TransactionID,
		GatewayOrderID:       sub.GatewayOrderID,
		Amount:               amount,
		Status:               types.TransactionStatusRecurringSuccess,
		Date:                 now,
		ReceiptURL:           chargeResult.ReceiptURL,
	}
	if err := s.SubRepo.AppendTransaction(ctx, sub.ID, txn); err != nil {
		s.Logger.Errorw("failed to record successful transaction",
			"subscription_id", sub.ID,
			"transaction_id", chargeResult.TransactionID,
			"error", err)
	}

	if !sub.HasEverCharged() {
		// First successful charge: the initial order becomes the
		// recurring parent and the paid period starts now.
		sub.GatewayRecurringID = sub.GatewayOrderID
		sub.StartDate = &now
	}
	sub.LastPaymentDate = &now
	if billingPlan.BillingPeriod == types.BillingPeriodMonthly {
		nextBilling := types.AddCalendarMonths(now, 1)
		sub.NextBillingDate = &nextBilling
	} else {
		sub.NextBillingDate = nil
		if window, ok := sub.Duration.Window(); ok {
			end := now.Add(window)
			sub.EndDate = &end
		}
	}
	sub.RetryAttemptCount = 0
	sub.LastRetryAttemptAt = nil
	sub.UpdatedAt = now

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		s.releaseTo(ctx, sub.ID, types.SubscriptionStatusPaymentFailed)
		return outcomeSkipped, err
	}

	s.releaseTo(ctx, sub.ID, types.SubscriptionStatusActive)

	s.Logger.Infow("recurring charge succeeded",
		"subscription_id", sub.ID,
		"amount", amount,
		"next_billing_date", sub.NextBillingDate)
	return outcomeSucceeded, nil
}

func (s *billingService) recordFailure(ctx context.Context, sub *subscription.Subscription, billingPlan *plan.Plan, amount decimal.Decimal, now time.Time, chargeErr error) (chargeOutcome, error) {
	attempt := sub.RetryAttemptCount + 1
	maxAttempts := s.Config.Billing.MaxRetryAttempts

	s.Logger.Warnw("recurring charge failed",
		"subscription_id", sub.ID,
		"attempt", attempt,
		"max_attempts", maxAttempts,
		"error", chargeErr)

	txn := subscription.Transaction{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
		GatewayTransactionID: subscription.FailedAttemptTransactionID,
		GatewayOrderID:       sub.GatewayOrderID,
		Amount:               amount,
		Status:               types.TransactionStatusRecurringFailed,
		Date:                 now,
	}
	if err := s.SubRepo.AppendTransaction(ctx, sub.ID, txn); err != nil {
		s.Logger.Errorw("failed to record failed transaction",
			"subscription_id", sub.ID,
			"error", err)
	}

	sub.RetryAttemptCount = attempt
	sub.LastRetryAttemptAt = &now
	if attempt >= maxAttempts {
		// The paid period ends with the final failed attempt.
		sub.EndDate = &now
	}
	sub.UpdatedAt = now
	if err := s.SubRepo.Update(ctx, sub); err != nil {
		s.releaseTo(ctx, sub.ID, types.SubscriptionStatusPaymentFailed)
		return outcomeSkipped, err
	}

	if attempt >= maxAttempts {
		s.releaseTo(ctx, sub.ID, types.SubscriptionStatusExpired)
		s.notifyPaymentFailure(ctx, sub, billingPlan, attempt, nil)
		return outcomeExpired, nil
	}

	s.releaseTo(ctx, sub.ID, types.SubscriptionStatusPaymentFailed)
	nextRetry := now.Add(s.retryBackoff(attempt))
	s.notifyPaymentFailure(ctx, sub, billingPlan, attempt, &nextRetry)
	return outcomeFailed, nil
}

func (s *billingService) releaseTo(ctx context.Context, id string, to types.SubscriptionStatus) {
	if err := s.SubRepo.ReleaseProcessing(ctx, id, to); err != nil {
		s.Logger.Errorw("failed to release subscription claim",
			"subscription_id", id,
			"target_status", to,
			"error", err)
	}
}

// resolveChargeAmount determines the amount for one charge: the
// subscription's stamped duration price, falling back to the plan's
// base price. Test mode substitutes a nominal amount on every call.
func (s *billingService) resolveChargeAmount(ctx context.Context, sub *subscription.Subscription) (decimal.Decimal, *plan.Plan, error) {
	billingPlan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return decimal.Zero, nil, err
	}

	amount := sub.DurationPrice
	if amount.IsZero() {
		amount = billingPlan.Price
	}
	if s.Config.Billing.PaymentTestMode {
		amount = decimal.NewFromFloat(bog.TestModeAmount)
	}
	return amount, billingPlan, nil
}

// retryBackoff is the delay before attempt n may be retried:
// base * 2^(n-1) days, capped.
func (s *billingService) retryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	days := s.Config.Billing.RetryDelayDays << (attempt - 1)
	if days > s.Config.Billing.RetryCapDays {
		days = s.Config.Billing.RetryCapDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// retryDue reports whether a payment_failed candidate has waited out
// its exponential backoff. Subscriptions due for a regular renewal
// always pass.
func (s *billingService) retryDue(sub *subscription.Subscription, now time.Time) bool {
	if sub.SubscriptionStatus != types.SubscriptionStatusPaymentFailed {
		return true
	}
	if sub.LastRetryAttemptAt == nil {
		return true
	}
	return !sub.LastRetryAttemptAt.Add(s.retryBackoff(sub.RetryAttemptCount)).After(now)
}

func (s *billingService) notifyPaymentFailure(ctx context.Context, sub *subscription.Subscription, billingPlan *plan.Plan, attempt int, nextRetryAt *time.Time) {
	if s.EmailSender == nil {
		return
	}

	owner, err := s.UserRepo.Get(ctx, sub.UserID)
	if err != nil {
		s.Logger.Warnw("skipping payment failure email, user lookup failed",
			"subscription_id", sub.ID,
			"user_id", sub.UserID,
			"error", err)
		return
	}

	planName := sub.PlanID
	price := sub.DurationPrice
	if billingPlan != nil {
		planName = billingPlan.Name
		if price.IsZero() {
			price = billingPlan.Price
		}
	}

	s.EmailSender.SendPaymentFailureEmail(ctx, email.PaymentFailureEmail{
		To:          owner.NormalizedEmail(),
		PlanName:    planName,
		Price:       price,
		Attempt:     attempt,
		MaxAttempts: s.Config.Billing.MaxRetryAttempts,
		NextRetryAt: nextRetryAt,
	})
}
