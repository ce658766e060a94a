package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "missing title",
			field:    "title",
			message:  "title is required",
			expected: "validation error on field 'title': title is required",
		},
		{
			name:     "bad slug",
			field:    "slug",
			message:  "slug must be lowercase letters, digits and hyphens",
			expected: "validation error on field 'slug': slug must be lowercase letters, digits and hyphens",
		},
		{
			name:     "empty field name",
			field:    "",
			message:  "test message",
			expected: "validation error on field '': test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{
				Field:   tt.field,
				Message: tt.message,
			}

			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestValidationError_InErrorChain(t *testing.T) {
	baseErr := &ValidationError{
		Field:   "title",
		Message: "title is required",
	}

	wrappedErr := errors.Join(ErrValidationFailed, baseErr)

	var validationErr *ValidationError
	assert.True(t, errors.As(wrappedErr, &validationErr))
	assert.Equal(t, "title", validationErr.Field)
	assert.True(t, errors.Is(wrappedErr, ErrValidationFailed))
}

func TestSentinelErrors(t *testing.T) {
	assert.Equal(t, "validation failed", ErrValidationFailed.Error())
	assert.False(t, errors.Is(errors.New("validation failed"), ErrValidationFailed))
}
