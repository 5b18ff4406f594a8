package grading

import (
	"errors"
	"fmt"
)

// Validation error kinds. A ValidationError wraps exactly one of these, so
// callers can branch with errors.Is without parsing messages.
var (
	ErrZeroMaxMarks    = errors.New("max marks cannot be zero")
	ErrInvalidName     = errors.New("name must contain only letters and spaces")
	ErrInvalidGender   = errors.New("invalid gender")
	ErrMarksCount      = errors.New("wrong number of marks")
	ErrMarksOutOfRange = errors.New("marks out of range")
)

// ValidationError reports a caller-recoverable input problem on one field.
type ValidationError struct {
	Field   string
	Message string
	kind    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.kind
}

func invalid(field string, kind error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		kind:    kind,
	}
}

// Fields flattens a validation error into a field → message map, the shape
// the HTTP layer reports. Returns nil if err is not a ValidationError.
func Fields(err error) map[string]string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	return map[string]string{ve.Field: ve.Message}
}
