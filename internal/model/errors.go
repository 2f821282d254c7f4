package model

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// Kind enumerates the distinct error variants a UAM client can surface, per
// spec.md §7. SessionLost never escapes the reregister package — it is
// caught there and either resolved (silent retry) or escalated to RPCFailure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotRegistered
	KindNotFirstAttempt
	KindAttemptLaunchTimeout
	KindRPCFailure
	KindSessionLost
	KindCredentialFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid-argument"
	case KindNotRegistered:
		return "not-registered"
	case KindNotFirstAttempt:
		return "not-first-attempt"
	case KindAttemptLaunchTimeout:
		return "attempt-launch-timeout"
	case KindRPCFailure:
		return "rpc-failure"
	case KindSessionLost:
		return "session-lost"
	case KindCredentialFailure:
		return "credential-failure"
	default:
		return "unknown"
	}
}

// Error is the single error type returned across the UAM client's public
// surface. It carries a Kind so callers can switch on the taxonomy without
// string matching, and wraps an errdefs sentinel so errors.Is also works
// against the ecosystem-wide classification (errdefs.IsNotFound, etc.) that
// a caller's own RPC layer may already be checking for.
type Error struct {
	Kind Kind
	Msg  string
	errdefsSentinel error
	cause           error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("uam: %s: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("uam: %s: %s", e.Kind, e.Msg)
}

// Unwrap exposes both the underlying cause and the errdefs sentinel so
// errors.Is(err, errdefs.ErrNotFound) and errors.Is(err, someCause) both work.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.errdefsSentinel != nil {
		errs = append(errs, e.errdefsSentinel)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

func newErr(kind Kind, sentinel error, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, errdefsSentinel: sentinel, cause: cause}
}

// InvalidArgument reports a null/blank constructor parameter or a null
// allocate request/callback (spec.md §7).
func InvalidArgument(msg string) *Error {
	return newErr(KindInvalidArgument, errdefs.ErrInvalidArgument, msg, nil)
}

// NotRegistered reports allocate_async or finish called before
// create_and_register completed.
func NotRegistered(msg string) *Error {
	return newErr(KindNotRegistered, errdefs.ErrFailedPrecondition, msg, nil)
}

// NotFirstAttempt reports that the application's first observed state was
// not ACCEPTED — a later attempt is already in play, violating the UAM
// contract that only the first attempt is ever used.
func NotFirstAttempt(msg string) *Error {
	return newErr(KindNotFirstAttempt, errdefs.ErrAborted, msg, nil)
}

// AttemptLaunchTimeout reports that the attempt did not reach LAUNCHED
// within the configured timeout.
func AttemptLaunchTimeout(msg string) *Error {
	return newErr(KindAttemptLaunchTimeout, errdefs.ErrDeadlineExceeded, msg, nil)
}

// RPCFailure wraps a transport or server-side error from the underlying RPC
// surfaces, including a session-lost condition whose retry also failed.
func RPCFailure(msg string, cause error) *Error {
	return newErr(KindRPCFailure, errdefs.ErrUnavailable, msg, cause)
}

// SessionLost reports that the CRM rejected a master-protocol call because
// the attempt is unknown to it (restarted or fenced). Internal to the
// reregister package — never returned from the public surface.
func SessionLost(msg string, cause error) *Error {
	return newErr(KindSessionLost, errdefs.ErrNotFound, msg, cause)
}

// CredentialFailure reports that the proxy principal could not be derived.
func CredentialFailure(msg string, cause error) *Error {
	return newErr(KindCredentialFailure, errdefs.ErrPermissionDenied, msg, cause)
}

// IsSessionLost reports whether err (as returned by a MasterProtocol call)
// indicates the CRM no longer recognizes the attempt — the sole condition
// the reregister helper retries on.
//
// Two things satisfy it: an *Error of KindSessionLost (produced by a fake or
// test double), and any error for which errdefs.IsNotFound is true (the
// classification a real CRM transport would use — the attempt no longer
// exists as far as the CRM is concerned).
func IsSessionLost(err error) bool {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindSessionLost {
		return true
	}
	return errdefs.IsNotFound(err)
}
