package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/qripge/qrip-backend/internal/api/dto"
	"github.com/qripge/qrip-backend/internal/domain/purchase"
	"github.com/qripge/qrip-backend/internal/domain/subscription"
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/integration/bog"
	"github.com/qripge/qrip-backend/internal/types"
)

// PaymentService owns the hosted-checkout flow: creating gateway
// orders, absorbing the payment callback and exposing order status.
type PaymentService interface {
	// InitiateSubscriptionPayment creates a gateway order for a paid
	// plan, requests card storage for recurring plans, and records a
	// pending subscription keyed by the order id.
	InitiateSubscriptionPayment(ctx context.Context, req *dto.InitiateSubscriptionPaymentRequest) (*dto.InitiateSubscriptionPaymentResponse, error)

	// HandleCallback absorbs the gateway's payment webhook and settles
	// the pending subscription or memorial purchase behind the order.
	HandleCallback(ctx context.Context, req *dto.PaymentCallbackRequest) error

	// CheckPaymentStatus reports an order's settlement status straight
	// from the gateway.
	CheckPaymentStatus(ctx context.Context, orderID string) (*dto.PaymentStatusResponse, error)
}

type paymentService struct {
	ServiceParams
}

// NewPaymentService creates a new payment service
func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
	}
}

func (s *paymentService) InitiateSubscriptionPayment(ctx context.Context, req *dto.InitiateSubscriptionPaymentRequest) (*dto.InitiateSubscriptionPaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	billingPlan, err := s.PlanRepo.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if billingPlan.IsFree() {
		return nil, ierr.NewError("free plans require no payment").
			WithHint("Assign the free plan directly instead of paying for it").
			Mark(ierr.ErrInvalidOperation)
	}

	price := billingPlan.Price
	if req.Duration != "" {
		resolved, ok := billingPlan.PriceForDuration(req.Duration)
		if !ok {
			return nil, ierr.NewErrorf("duration %q is not offered on this plan", req.Duration).
				Mark(ierr.ErrValidation)
		}
		price = resolved
	}

	amount := price
	if s.Config.Billing.PaymentTestMode {
		amount = decimal.NewFromFloat(bog.TestModeAmount)
	}

	successURL := s.Config.BOG.FrontendURL + "/payment/success"
	failURL := s.Config.BOG.FrontendURL + "/payment/fail"

	order, err := s.PaymentGateway.CreateOrder(ctx, amount, successURL, failURL)
	if err != nil {
		return nil, err
	}

	// Recurring plans need the card on file before the first charge
	// settles; one-time purchases skip it.
	if billingPlan.BillingPeriod == types.BillingPeriodMonthly {
		if err := s.PaymentGateway.RequestCardSave(ctx, order.ID); err != nil {
			return nil, err
		}
	}

	sub := &subscription.Subscription{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:             req.UserID,
		PlanID:             billingPlan.ID,
		Duration:           req.Duration,
		DurationPrice:      price,
		GatewayOrderID:     order.ID,
		SubscriptionStatus: types.SubscriptionStatusPending,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := s.SubRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Infow("initiated subscription payment",
		"subscription_id", sub.ID,
		"user_id", req.UserID,
		"plan_id", billingPlan.ID,
		"order_id", order.ID,
		"amount", amount)

	return &dto.InitiateSubscriptionPaymentResponse{
		SubscriptionID: sub.ID,
		OrderID:        order.ID,
		RedirectURL:    order.RedirectURL,
	}, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, req *dto.PaymentCallbackRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	orderID := req.Body.OrderID

	sub, err := s.SubRepo.GetByGatewayOrderID(ctx, orderID)
	if err == nil {
		return s.settleSubscription(ctx, sub, req)
	}
	if !ierr.IsNotFound(err) {
		return err
	}

	p, err := s.PurchaseRepo.GetByGatewayOrderID(ctx, orderID)
	if err != nil {
		if ierr.IsNotFound(err) {
			// Callbacks for unknown orders are acknowledged, not retried.
			s.Logger.Warnw("payment callback for unknown order", "order_id", orderID)
			return nil
		}
		return err
	}
	return s.settlePurchase(ctx, p, req)
}

func (s *paymentService) settleSubscription(ctx context.Context, sub *subscription.Subscription, req *dto.PaymentCallbackRequest) error {
	now := time.Now().UTC()

	if !req.IsCompleted() {
		s.Logger.Warnw("initial subscription payment rejected",
			"subscription_id", sub.ID,
			"order_id", sub.GatewayOrderID,
			"order_status", req.Body.OrderStatus.Key)

		txn := subscription.Transaction{
			ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
			GatewayTransactionID: subscription.FailedAttemptTransactionID,
			GatewayOrderID:       sub.GatewayOrderID,
			Amount:               sub.DurationPrice,
			Status:               types.TransactionStatusInitialFailed,
			Date:                 now,
		}
		if err := s.SubRepo.AppendTransaction(ctx, sub.ID, txn); err != nil {
			s.Logger.Errorw("failed to record rejected initial transaction",
				"subscription_id", sub.ID,
				"error", err)
		}

		// payment_failed hands the subscription to the retry engine;
		// left pending it would never be picked up again.
		sub.SubscriptionStatus = types.SubscriptionStatusPaymentFailed
		sub.UpdatedAt = now
		return s.SubRepo.Update(ctx, sub)
	}

	billingPlan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return err
	}

	txn := subscription.Transaction{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TRANSACTION),
		GatewayTransactionID: req.Body.PaymentDetail.TransactionID,
		GatewayOrderID:       sub.GatewayOrderID,
		Amount:               sub.DurationPrice,
		Status:               types.TransactionStatusInitialSuccess,
		Date:                 now,
	}
	if err := s.SubRepo.AppendTransaction(ctx, sub.ID, txn); err != nil {
		s.Logger.Errorw("failed to record initial transaction",
			"subscription_id", sub.ID,
			"error", err)
	}

	sub.SubscriptionStatus = types.SubscriptionStatusActive
	sub.StartDate = &now
	sub.LastPaymentDate = &now
	sub.UpdatedAt = now

	switch billingPlan.BillingPeriod {
	case types.BillingPeriodMonthly:
		// The parent order is the target all recurring charges are
		// issued against.
		sub.GatewayRecurringID = sub.GatewayOrderID
		nextBilling := types.AddCalendarMonths(now, 1)
		sub.NextBillingDate = &nextBilling
	case types.BillingPeriodOneTime:
		if window, ok := sub.Duration.Window(); ok {
			end := now.Add(window)
			sub.EndDate = &end
		}
	}

	if err := s.SubRepo.Update(ctx, sub); err != nil {
		return err
	}

	s.Logger.Infow("subscription activated",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"next_billing_date", sub.NextBillingDate)

	// The paid plan supersedes the free tier until it lapses.
	lifecycle := &subscriptionService{ServiceParams: s.ServiceParams}
	if err := lifecycle.deactivateFreePlan(ctx, sub.UserID); err != nil {
		s.Logger.Errorw("failed to park free plan after activation",
			"subscription_id", sub.ID,
			"user_id", sub.UserID,
			"error", err)
	}
	return nil
}

func (s *paymentService) settlePurchase(ctx context.Context, p *purchase.MemorialPurchase, req *dto.PaymentCallbackRequest) error {
	now := time.Now().UTC()

	if !req.IsCompleted() {
		p.PurchaseStatus = types.PurchaseStatusFailed
		p.UpdatedAt = now
		s.Logger.Warnw("memorial purchase payment rejected",
			"purchase_id", p.ID,
			"order_id", p.GatewayOrderID,
			"order_status", req.Body.OrderStatus.Key)
		return s.PurchaseRepo.Update(ctx, p)
	}

	p.PurchaseStatus = types.PurchaseStatusCompleted
	p.TransactionID = req.Body.PaymentDetail.TransactionID
	p.PaymentDate = &now
	p.UpdatedAt = now
	if err := s.PurchaseRepo.Update(ctx, p); err != nil {
		return err
	}

	m, err := s.MemorialRepo.Get(ctx, p.MemorialID)
	if err != nil {
		return err
	}
	m.PurchaseID = p.ID
	m.MemorialStatus = types.MemorialStatusActive
	m.PaymentStatus = types.MemorialPaymentStatusActive
	m.UpdatedAt = now
	if err := s.MemorialRepo.Update(ctx, m); err != nil {
		return err
	}

	s.Logger.Infow("memorial purchase settled",
		"purchase_id", p.ID,
		"memorial_id", p.MemorialID)
	return nil
}

func (s *paymentService) CheckPaymentStatus(ctx context.Context, orderID string) (*dto.PaymentStatusResponse, error) {
	receipt, err := s.PaymentGateway.GetReceipt(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &dto.PaymentStatusResponse{
		OrderID:     orderID,
		OrderStatus: receipt.OrderStatus,
		Paid:        receipt.OrderStatus == dto.CallbackStatusCompleted,
	}, nil
}
