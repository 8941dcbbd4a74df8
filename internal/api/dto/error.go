package dto

import (
	ierr "github.com/qripge/qrip-backend/internal/errors"
)

// ErrorResponse is the uniform error body returned by the API.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the human-facing message and any reportable
// details attached to the error.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewErrorResponse builds an ErrorResponse from an internal error,
// preferring its hint over the raw error text.
func NewErrorResponse(err error) ErrorResponse {
	msg := err.Error()
	if hint := ierr.Hint(err); hint != "" {
		msg = hint
	}
	return ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: msg,
			Details: ierr.ReportableDetails(err),
		},
	}
}
