package core

import "github.com/pkg/errors"

// FieldError pins a validation failure to a single payload field,
// e.g. {"teacher_id": "a user with this teacher ID already exists"}.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a rejected request payload. Fields carries the
// per-field messages when the failure is field-scoped; Err alone covers
// payload-wide failures such as bad credentials.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown marks an error the API cannot recover from; the server stops
// gracefully when one surfaces.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown reports whether err (at any wrap depth) requests a shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
