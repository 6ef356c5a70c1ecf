// Package upstream defines the error taxonomy shared by clients of external
// services (GitHub REST API, web search). Every failure from an outbound call
// is mapped to exactly one Kind so that the tool layer and the API surface can
// translate it uniformly.
package upstream

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an upstream failure.
type Kind int

const (
	// KindInvalidInput marks a request that was rejected before or by the
	// upstream because its arguments are malformed.
	KindInvalidInput Kind = iota

	// KindNotFound marks an absent upstream resource.
	KindNotFound

	// KindRateLimited marks quota exhaustion. RetryAfter carries the
	// upstream's retry hint when one was provided.
	KindRateLimited

	// KindUnavailable marks transport failures, timeouts, and 5xx responses.
	KindUnavailable
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "upstream_unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified upstream failure.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter time.Duration // zero when the upstream gave no hint
	wrapped    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// InvalidInput builds a KindInvalidInput error.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// RateLimited builds a KindRateLimited error with an optional retry hint.
func RateLimited(retryAfter time.Duration, format string, args ...any) *Error {
	return &Error{Kind: KindRateLimited, Message: fmt.Sprintf(format, args...), RetryAfter: retryAfter}
}

// Unavailable builds a KindUnavailable error wrapping the transport cause.
func Unavailable(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindUnavailable, Message: fmt.Sprintf(format, args...), wrapped: cause}
}

// KindOf extracts the Kind from err. The second return is false when err is
// not (and does not wrap) an upstream Error.
func KindOf(err error) (Kind, bool) {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind, true
	}
	return 0, false
}

// RetryAfterOf returns the retry hint from err, or zero.
func RetryAfterOf(err error) time.Duration {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.RetryAfter
	}
	return 0
}
