package memorial

import (
	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/types"
)

// Memorial is the subset of a memorial page the access reconciler
// cares about: whether it is publicly servable and which purchase
// backs that access.
type Memorial struct {
	ID        string `json:"id" bson:"_id"`
	CreatedBy string `json:"created_by" bson:"created_by"`
	Slug      string `json:"slug" bson:"slug"`

	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`

	MemorialStatus types.MemorialStatus        `json:"memorial_status" bson:"memorial_status"`
	PaymentStatus  types.MemorialPaymentStatus `json:"payment_status" bson:"payment_status"`

	// PurchaseID links the memorial to the purchase that paid for its
	// current access window; empty for unpaid drafts.
	PurchaseID string `json:"purchase_id,omitempty" bson:"purchase_id,omitempty"`
	// SubscriptionID links to the owning user's subscription, when the
	// memorial was created under one.
	SubscriptionID string `json:"subscription_id,omitempty" bson:"subscription_id,omitempty"`

	types.BaseModel `bson:",inline"`
}

// Validate validates the memorial
func (m *Memorial) Validate() error {
	if m.CreatedBy == "" {
		return ierr.NewError("created_by is required").Mark(ierr.ErrValidation)
	}
	if m.FirstName == "" || m.LastName == "" {
		return ierr.NewError("first_name and last_name are required").Mark(ierr.ErrValidation)
	}
	return nil
}
