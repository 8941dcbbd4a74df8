package plan

import (
	"github.com/shopspring/decimal"

	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/types"
)

// DurationOption is one purchasable access window on a plan.
type DurationOption struct {
	Duration types.Duration  `json:"duration" bson:"duration"`
	Price    decimal.Decimal `json:"price" bson:"price"`
	Active   bool            `json:"active" bson:"active"`
}

// Plan is static reference data: billing period, price, duration
// options and feature limits. Read-only to the billing engine.
type Plan struct {
	ID              string           `json:"id" bson:"_id"`
	Name            string           `json:"name" bson:"name"`
	Description     string           `json:"description" bson:"description"`
	BillingPeriod   types.BillingPeriod `json:"billing_period" bson:"billing_period"`
	Price           decimal.Decimal  `json:"price" bson:"price"`
	DurationOptions []DurationOption `json:"duration_options,omitempty" bson:"duration_options,omitempty"`

	// Feature limits
	MaxPhotos        int  `json:"max_photos" bson:"max_photos"`
	VideoAllowed     bool `json:"video_allowed" bson:"video_allowed"`
	MaxVideoSeconds  int  `json:"max_video_seconds" bson:"max_video_seconds"`

	IsPopular bool `json:"is_popular" bson:"is_popular"`

	types.BaseModel `bson:",inline"`
}

// IsFree reports whether the plan is the always-available free tier.
func (p *Plan) IsFree() bool {
	return p.BillingPeriod == types.BillingPeriodFree && p.Price.IsZero()
}

// PriceForDuration resolves the price of an active duration option,
// falling back to the plan base price when the plan has no options.
func (p *Plan) PriceForDuration(d types.Duration) (decimal.Decimal, bool) {
	if len(p.DurationOptions) == 0 {
		return p.Price, true
	}
	for _, opt := range p.DurationOptions {
		if opt.Duration == d && opt.Active {
			return opt.Price, true
		}
	}
	return decimal.Zero, false
}

// Validate validates the plan
func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("name is required").Mark(ierr.ErrValidation)
	}
	switch p.BillingPeriod {
	case types.BillingPeriodMonthly, types.BillingPeriodOneTime, types.BillingPeriodFree:
	default:
		return ierr.NewError("invalid billing period").
			WithReportableDetails(map[string]interface{}{"billing_period": p.BillingPeriod}).
			Mark(ierr.ErrValidation)
	}
	if p.Price.IsNegative() {
		return ierr.NewError("price cannot be negative").Mark(ierr.ErrValidation)
	}
	for _, opt := range p.DurationOptions {
		if !opt.Duration.Validate() {
			return ierr.NewErrorf("unknown duration %q", opt.Duration).Mark(ierr.ErrValidation)
		}
	}
	return nil
}
