package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"

	ierr "github.com/qripge/qrip-backend/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// ValidateRequest validates a request struct against its validate tags.
func ValidateRequest(req interface{}) error {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	if err := validate.Struct(req); err != nil {
		return ierr.WithError(err).
			WithHint("Request validation failed").
			Mark(ierr.ErrValidation)
	}
	return nil
}
