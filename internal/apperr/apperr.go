// internal/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the domain outcomes the
// controller knows how to present to the user.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthorized
	KindNotRegistered
	KindInvalidPin
	KindPinLocked
	KindSafetyBlocked
	KindValidation
	KindIntegrity
	KindStoreUnavailable
	KindExternalUnavailable
	KindTimeout
)

// String returns the kind's stable name, used in logs and metrics labels
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotRegistered:
		return "not_registered"
	case KindInvalidPin:
		return "invalid_pin"
	case KindPinLocked:
		return "pin_locked"
	case KindSafetyBlocked:
		return "safety_blocked"
	case KindValidation:
		return "validation_error"
	case KindIntegrity:
		return "integrity_violation"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindExternalUnavailable:
		return "external_unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error carries a kind, the operation that produced it and an optional cause
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an *Error
func E(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, walking the wrap chain.
// Returns KindUnknown for nil or foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the error is worth retrying on a read path
func Retryable(err error) bool {
	return IsKind(err, KindStoreUnavailable)
}
