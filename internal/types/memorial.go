package types

import "time"

// MemorialStatus is whether a memorial page is publicly servable.
type MemorialStatus string

const (
	MemorialStatusActive   MemorialStatus = "active"
	MemorialStatusInactive MemorialStatus = "inactive"
	MemorialStatusExpired  MemorialStatus = "expired"
)

// MemorialPaymentStatus tracks where a memorial is in its payment flow.
type MemorialPaymentStatus string

const (
	MemorialPaymentStatusDraft          MemorialPaymentStatus = "draft"
	MemorialPaymentStatusPendingPayment MemorialPaymentStatus = "pending_payment"
	MemorialPaymentStatusActive         MemorialPaymentStatus = "active"
)

// PurchaseStatus is the payment state of a memorial purchase.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
	PurchaseStatusPaid      PurchaseStatus = "paid"
)

// IsPaid reports whether the purchase grants access.
func (s PurchaseStatus) IsPaid() bool {
	return s == PurchaseStatusCompleted || s == PurchaseStatusPaid
}

// Duration is a purchased access window label.
type Duration string

const (
	Duration1Month   Duration = "1_month"
	Duration3Months  Duration = "3_months"
	Duration6Months  Duration = "6_months"
	Duration1Year    Duration = "1_year"
	Duration2Years   Duration = "2_years"
	DurationLifetime Duration = "life_time"
)

// durationWindows maps duration labels to access windows in days.
// Lifetime is absent: it never expires.
var durationWindows = map[Duration]int{
	Duration1Month:  30,
	Duration3Months: 90,
	Duration6Months: 180,
	Duration1Year:   365,
	Duration2Years:  730,
}

// Window returns the access window for the duration and whether the
// duration expires at all. Lifetime (and unknown labels) return false.
func (d Duration) Window() (time.Duration, bool) {
	days, ok := durationWindows[d]
	if !ok {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

// Validate reports whether the label is a known duration.
func (d Duration) Validate() bool {
	if d == DurationLifetime {
		return true
	}
	_, ok := durationWindows[d]
	return ok
}
