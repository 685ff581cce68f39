package errors

import "errors"

// Error carries a coded failure through the service layers. The code drives
// classification, the message is for logs, and metadata holds identifiers
// useful when tracing a failure back to its event or record.
type Error struct {
	Code     Code              // machine-readable classification
	Message  string            // log-facing description
	Metadata map[string]string // identifiers (event ids, entity keys)
	Cause    error             // wrapped lower-level failure
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches two domain errors by code, so sentinel comparison works
// through wrapping.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New builds an error from a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata builds an error carrying extra identifiers.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap builds an error around an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithMetadata builds an error with both identifiers and a cause.
func WrapWithMetadata(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
		Cause:    cause,
	}
}

// CategoryOf extracts the failure class from an error chain. Errors outside
// this package report CategoryInternal.
func CategoryOf(err error) Category {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code.Category()
	}
	return CategoryInternal
}
