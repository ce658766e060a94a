package entity

import (
	"errors"
	"fmt"
)

// ErrValidationFailed marks any entity that failed its Validate call.
// Wrap it together with a ValidationError for the failing field.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError carries the field that failed validation so callers
// can report which part of a generated article or product was bad.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}
