package textgen

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the closed classification of backend call failures. The
// orchestrator's retry and fallback decisions are a pure function of it.
type Kind int

const (
	// KindOther is any failure that fits no other kind. Fatal for the
	// candidate being attempted, but not for the plan.
	KindOther Kind = iota

	// KindTransient covers transport and server errors worth retrying
	// on the same candidate with backoff.
	KindTransient

	// KindQuotaExceeded is a backend-reported resource exhaustion. It
	// trips the daily breaker immediately and is never retried.
	KindQuotaExceeded

	// KindVariantUnavailable means the requested model variant does not
	// exist in the requested region. Advance to the next candidate.
	KindVariantUnavailable

	// KindMalformedOutput means the response text failed structured
	// parsing even after recovery.
	KindMalformedOutput

	// KindTimeout means the invocation deadline expired.
	KindTimeout
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindVariantUnavailable:
		return "variant_unavailable"
	case KindMalformedOutput:
		return "malformed_output"
	case KindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Error wraps a backend failure with its classified kind.
type Error struct {
	Kind Kind
	Err  error
}

// NewError creates a classified error.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the classification from an error chain. Context
// deadline errors classify as timeouts; anything unclassified is Other.
func KindOf(err error) Kind {
	if err == nil {
		return KindOther
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	return KindOther
}
