// Package acserr defines the error taxonomy shared by every component of
// the access control core: Validation, Conflict, NotFound, StoreUnavailable,
// Cancelled, DeadlineExceeded, and Internal. Components return these types
// instead of raising ad hoc errors so callers can branch on Kind via
// errors.As.
package acserr

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies which branch of the taxonomy an error belongs to.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindStoreUnavailable Kind = "store_unavailable"
	KindCancelled       Kind = "cancelled"
	KindDeadlineExceeded Kind = "deadline_exceeded"
	KindInternal        Kind = "internal"
)

// Error is the common shape implemented by every taxonomy member.
type Error struct {
	kind    Kind
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

// Kind returns which taxonomy branch this error belongs to.
func (e *Error) Kind() Kind { return e.kind }

// Unwrap exposes the wrapped cause, if any, for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.err }

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func wrapErr(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...), err: cause}
}

// Validation reports malformed input: bad email, unknown verb, empty name,
// an attempted cycle. Never retried by the caller.
func Validation(format string, args ...any) *Error {
	return newErr(KindValidation, format, args...)
}

// Conflict reports a duplicate unique field or a no-op mutation that the
// caller asked to treat as an error (e.g. removing a non-member).
func Conflict(format string, args ...any) *Error {
	return newErr(KindConflict, format, args...)
}

// NotFound reports a referenced id that does not exist.
func NotFound(format string, args ...any) *Error {
	return newErr(KindNotFound, format, args...)
}

// StoreUnavailable wraps a rate-limit store or audit sink failure. Callers
// in this module recover from it internally (fail-open, best-effort
// buffering); it is exported so embedding services can still observe and
// downgrade health.
func StoreUnavailable(cause error, format string, args ...any) *Error {
	return wrapErr(KindStoreUnavailable, cause, format, args...)
}

// Cancelled wraps context.Canceled. No side effect is left behind.
func Cancelled(cause error) *Error {
	return wrapErr(KindCancelled, cause, "operation cancelled")
}

// DeadlineExceededErr wraps context.DeadlineExceeded.
func DeadlineExceededErr(cause error) *Error {
	return wrapErr(KindDeadlineExceeded, cause, "deadline exceeded")
}

// Internal reports an invariant violation detected at read time (e.g. a
// UriAccess row with both grant and deny set). Permitted to propagate to
// the caller as a hard failure; callers should also emit a
// security-anomaly audit event when they see one.
func Internal(format string, args ...any) *Error {
	return newErr(KindInternal, format, args...)
}

// FromContext converts ctx.Err() into the matching taxonomy error, or nil
// if ctx carries no error.
func FromContext(ctx context.Context) *Error {
	switch ctx.Err() {
	case context.Canceled:
		return Cancelled(ctx.Err())
	case context.DeadlineExceeded:
		return DeadlineExceededErr(ctx.Err())
	default:
		return nil
	}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.kind == kind
}
