package errors

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors every InternalError is marked with exactly one of.
var (
	ErrValidation       = errors.New("validation_error")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadyExists    = errors.New("already_exists")
	ErrDatabase         = errors.New("database_error")
	ErrHTTPClient       = errors.New("http_client_error")
	ErrPermissionDenied = errors.New("permission_denied")
	ErrInvalidOperation = errors.New("invalid_operation")
	ErrInternal         = errors.New("internal_error")
)

// InternalError is the error type used across the codebase. Errors are
// built fluently and finalized with Mark:
//
//	ierr.NewError("subscription not found").
//		WithHint("No payment_failed subscription matches this id").
//		Mark(ierr.ErrNotFound)
type InternalError struct {
	err               error
	hint              string
	reportableDetails map[string]interface{}
}

// NewError starts building an error from a message.
func NewError(message string) *InternalError {
	return &InternalError{err: errors.New(message)}
}

// NewErrorf starts building an error from a format string.
func NewErrorf(format string, args ...interface{}) *InternalError {
	return &InternalError{err: errors.Newf(format, args...)}
}

// WithError starts building an error wrapping an underlying cause.
func WithError(err error) *InternalError {
	return &InternalError{err: err}
}

// WithHint attaches a human-readable hint for API consumers.
func (e *InternalError) WithHint(hint string) *InternalError {
	e.hint = hint
	return e
}

// WithHintf attaches a formatted hint.
func (e *InternalError) WithHintf(format string, args ...interface{}) *InternalError {
	e.hint = errors.Newf(format, args...).Error()
	return e
}

// WithReportableDetails attaches structured details safe to return to
// API consumers.
func (e *InternalError) WithReportableDetails(details map[string]interface{}) *InternalError {
	e.reportableDetails = details
	return e
}

// Mark finalizes the builder, tagging the error with a sentinel so it
// can be classified with the Is* predicates.
func (e *InternalError) Mark(sentinel error) error {
	err := e.err
	if e.hint != "" {
		err = errors.WithHint(err, e.hint)
	}
	return &markedError{
		cause:             errors.Mark(err, sentinel),
		hint:              e.hint,
		reportableDetails: e.reportableDetails,
	}
}

type markedError struct {
	cause             error
	hint              string
	reportableDetails map[string]interface{}
}

func (m *markedError) Error() string { return m.cause.Error() }
func (m *markedError) Unwrap() error { return m.cause }

// Hint returns the consumer-facing hint attached to err, if any.
func Hint(err error) string {
	var m *markedError
	if errors.As(err, &m) {
		return m.hint
	}
	return ""
}

// ReportableDetails returns the structured details attached to err.
func ReportableDetails(err error) map[string]interface{} {
	var m *markedError
	if errors.As(err, &m) {
		return m.reportableDetails
	}
	return nil
}

func IsValidation(err error) bool       { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsAlreadyExists(err error) bool    { return errors.Is(err, ErrAlreadyExists) }
func IsDatabase(err error) bool         { return errors.Is(err, ErrDatabase) }
func IsHTTPClient(err error) bool       { return errors.Is(err, ErrHTTPClient) }
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }
func IsInvalidOperation(err error) bool { return errors.Is(err, ErrInvalidOperation) }
func IsInternal(err error) bool         { return errors.Is(err, ErrInternal) }
