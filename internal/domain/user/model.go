package user

import (
	"strings"

	ierr "github.com/qripge/qrip-backend/internal/errors"
	"github.com/qripge/qrip-backend/internal/types"
)

// User is the subset of an account the billing engine needs: identity
// and a deliverable email address.
type User struct {
	ID       string `json:"id" bson:"_id"`
	Email    string `json:"email" bson:"email"`
	FullName string `json:"full_name,omitempty" bson:"full_name,omitempty"`

	// SubscriptionPlanID is the plan the user currently holds, if any.
	SubscriptionPlanID string `json:"subscription_plan_id,omitempty" bson:"subscription_plan_id,omitempty"`

	types.BaseModel `bson:",inline"`
}

// NormalizedEmail returns the email trimmed and lowercased, or empty
// when no usable address exists.
func (u *User) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(u.Email))
}

// Validate validates the user
func (u *User) Validate() error {
	if u.NormalizedEmail() == "" {
		return ierr.NewError("email is required").Mark(ierr.ErrValidation)
	}
	return nil
}
