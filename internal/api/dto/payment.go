package dto

import (
	ierr "github.com/qripge/qrip-backend/internal/errors"
)

// Gateway order statuses delivered on the payment callback.
const (
	CallbackStatusCompleted = "completed"
	CallbackStatusRejected  = "rejected"
	CallbackEventPayment    = "order_payment"
)

// PaymentCallbackRequest is the webhook payload BOG posts after a
// payment settles or is rejected.
type PaymentCallbackRequest struct {
	Event string              `json:"event"`
	Body  PaymentCallbackBody `json:"body"`
}

// PaymentCallbackBody is the order state inside a callback.
type PaymentCallbackBody struct {
	OrderID     string `json:"order_id"`
	OrderStatus struct {
		Key string `json:"key"`
	} `json:"order_status"`
	PaymentDetail struct {
		TransactionID string `json:"transaction_id"`
	} `json:"payment_detail"`
}

func (r *PaymentCallbackRequest) Validate() error {
	if r.Event != CallbackEventPayment {
		return ierr.NewErrorf("unsupported callback event %q", r.Event).
			WithHint("Only order_payment callbacks are handled").
			Mark(ierr.ErrValidation)
	}
	if r.Body.OrderID == "" {
		return ierr.NewError("order_id is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsCompleted reports whether the callback signals a settled payment.
func (r *PaymentCallbackRequest) IsCompleted() bool {
	return r.Body.OrderStatus.Key == CallbackStatusCompleted
}

// PaymentStatusResponse reports an order's settlement status as seen
// by the gateway.
type PaymentStatusResponse struct {
	OrderID     string `json:"order_id"`
	OrderStatus string `json:"order_status"`
	Paid        bool   `json:"paid"`
}
