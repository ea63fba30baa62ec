// Package errors provides error handling for Ladder.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//   - Hints and details for user-facing messages
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "re-authenticate with `ladder login`")
//
//	// Check errors
//	if errors.Is(err, errors.ErrAuthExpired) {
//	    // handle expired session
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf

	// WithSecondaryError attaches a cause while keeping the primary
	// error's identity for Is checks
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is         = crdb.Is
	IsAny      = crdb.IsAny
	As         = crdb.As
	Unwrap     = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll  = crdb.UnwrapAll
)

// Sentinel errors for the automation engine.
// Use these with errors.Is() for type-safe error checking; wrap them with
// errors.Wrap() to add context while preserving the classification.
var (
	// ErrAuthExpired indicates the session token is expired or invalid and a
	// refresh could not produce a new one. Permanent: waiting does not help.
	ErrAuthExpired = New("authentication expired")

	// ErrRateLimited indicates the remote service rejected the call because of
	// rate limiting. Transient: retry after a delay.
	ErrRateLimited = New("rate limited")

	// ErrTimeout indicates an operation timed out. Transient.
	ErrTimeout = New("operation timed out")

	// ErrNotFound indicates the requested resource does not exist. Permanent.
	ErrNotFound = New("not found")

	// ErrForbidden indicates the service refused the action for this account. Permanent.
	ErrForbidden = New("forbidden")

	// ErrValidation indicates the request was malformed or rejected by
	// service-side validation. Permanent.
	ErrValidation = New("validation failed")

	// ErrConflict indicates a uniqueness conflict, e.g. a duplicate ledger
	// record for an action that already succeeded.
	ErrConflict = New("resource conflict")

	// ErrServiceUnavailable indicates a required collaborator service is not
	// reachable. Transient.
	ErrServiceUnavailable = New("service unavailable")

	// ErrDrafting indicates the text-generation service failed to produce a
	// draft. Non-fatal at the pipeline level: the target is skipped.
	ErrDrafting = New("drafting failed")
)

// IsAuthError checks if an error is or wraps ErrAuthExpired.
func IsAuthError(err error) bool {
	return err != nil && Is(err, ErrAuthExpired)
}

// IsRateLimited checks if an error is or wraps ErrRateLimited.
func IsRateLimited(err error) bool {
	return err != nil && Is(err, ErrRateLimited)
}

// IsConflict checks if an error is or wraps ErrConflict.
func IsConflict(err error) bool {
	return err != nil && Is(err, ErrConflict)
}

// IsDraftingError checks if an error is or wraps ErrDrafting.
func IsDraftingError(err error) bool {
	return err != nil && Is(err, ErrDrafting)
}
