// Package apierror defines the error taxonomy for upstream-facing
// operations so callers can branch on the failure class instead of
// matching message strings.
package apierror

import (
	"errors"
	"fmt"
)

// Kind distinguishes failure classes with different remediation paths.
type Kind string

const (
	// KindRateLimited: the short-window limiter denied a slot; retryable
	// after a short delay.
	KindRateLimited Kind = "rate_limited"
	// KindQuotaExceeded: the daily budget is exhausted; not retryable
	// within the current epoch.
	KindQuotaExceeded Kind = "quota_exceeded"
	// KindUpstreamPermission: credentials or API configuration problem;
	// never retried.
	KindUpstreamPermission Kind = "upstream_permission"
	// KindUpstreamNotFound: the referenced entity does not exist; fatal
	// for that reference only.
	KindUpstreamNotFound Kind = "upstream_not_found"
	// KindTransientNetwork: timeout or 5xx; retried with backoff.
	KindTransientNetwork Kind = "transient_network"
	// KindUpstreamUnavailable: transient failures exhausted the retry budget.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindResolutionFailed: a channel reference could not be resolved to
	// a stable identifier.
	KindResolutionFailed Kind = "channel_resolution_failed"
)

// Error carries the failure kind alongside the wrapped cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error with a message and no wrapped cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the kind from an error chain; unclassified errors are
// treated as transient so they stay eligible for retry.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransientNetwork
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Retryable reports whether an attempt with this kind may be repeated
// within the same logical call.
func Retryable(kind Kind) bool {
	return kind == KindTransientNetwork
}
