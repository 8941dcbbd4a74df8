package purchase

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/types"
)

// DiscountType classifies how a purchase was discounted.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
	DiscountTypeFree       DiscountType = "free"
)

// MemorialPurchase records payment for a specific memorial's access
// duration. Distinct from a Subscription: a purchase is tied to one
// memorial page and one access window.
type MemorialPurchase struct {
	ID         string `json:"id" bson:"_id"`
	UserID     string `json:"user_id" bson:"user_id"`
	MemorialID string `json:"memorial_id" bson:"memorial_id"`
	PlanID     string `json:"plan_id" bson:"plan_id"`

	Duration      types.Duration  `json:"duration" bson:"duration"`
	DurationPrice decimal.Decimal `json:"duration_price" bson:"duration_price"`

	GatewayOrderID string          `json:"gateway_order_id" bson:"gateway_order_id"`
	Amount         decimal.Decimal `json:"amount" bson:"amount"`
	// FinalPricePaid is the actual amount paid after all discounts.
	FinalPricePaid decimal.Decimal `json:"final_price_paid" bson:"final_price_paid"`

	PurchaseStatus types.PurchaseStatus `json:"purchase_status" bson:"purchase_status"`
	TransactionID  string               `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	PaymentDate    *time.Time           `json:"payment_date,omitempty" bson:"payment_date,omitempty"`

	// IsAdminDiscount marks purchases where an admin set the memorial's
	// price directly, bypassing plan pricing.
	IsAdminDiscount bool         `json:"is_admin_discount" bson:"is_admin_discount"`
	DiscountType    DiscountType `json:"discount_type,omitempty" bson:"discount_type,omitempty"`
	DiscountValue   decimal.Decimal `json:"discount_value,omitempty" bson:"discount_value,omitempty"`

	types.BaseModel `bson:",inline"`
}

// IsPermanentGrant reports whether this purchase is an admin-granted
// free grant. Such memorials never expire.
func (p *MemorialPurchase) IsPermanentGrant() bool {
	return p.IsAdminDiscount && p.DiscountType == DiscountTypeFree
}

// ExpiresAt computes when the purchased access window elapses. Returns
// false for lifetime durations, permanent grants, and purchases with
// no payment date.
func (p *MemorialPurchase) ExpiresAt() (time.Time, bool) {
	if p.IsPermanentGrant() || p.PaymentDate == nil {
		return time.Time{}, false
	}
	window, ok := p.Duration.Window()
	if !ok {
		return time.Time{}, false
	}
	return p.PaymentDate.Add(window), true
}

// Validate validates the purchase
func (p *MemorialPurchase) Validate() error {
	if p.UserID == "" {
		return ierr.NewError("user_id is required").Mark(ierr.ErrValidation)
	}
	if p.MemorialID == "" {
		return ierr.NewError("memorial_id is required").Mark(ierr.ErrValidation)
	}
	if p.GatewayOrderID == "" {
		return ierr.NewError("gateway_order_id is required").Mark(ierr.ErrValidation)
	}
	if !p.Duration.Validate() {
		return ierr.NewErrorf("unknown duration %q", p.Duration).Mark(ierr.ErrValidation)
	}
	return nil
}
