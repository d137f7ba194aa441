// Package common defines shared constants and sentinel errors used across
// client and server layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrVersionConflict = errors.New("version conflict")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Capsule engine errors.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAuthenticationFailure is the only decrypt failure. It covers a wrong
	// passphrase, a wrong context and tampered data alike.
	ErrAuthenticationFailure = errors.New("authentication failure")

	ErrNotYet = errors.New("not yet")

	// State machine precondition violations.
	ErrDuplicateRecipient = errors.New("duplicate recipient")
	ErrAlreadyExists      = errors.New("already exists")
	ErrBlocked            = errors.New("blocked")
	ErrExpired            = errors.New("expired")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid state transition")

	// ErrRateLimited is returned when a caller exceeds the open-attempt budget.
	ErrRateLimited = errors.New("rate limited")
)

// ArgumentError describes which input was rejected and why.
// It matches ErrInvalidArgument via errors.Is.
type ArgumentError struct {
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidArgument, e.Field, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// InvalidArgument builds an ArgumentError.
func InvalidArgument(field, reason string) error {
	return &ArgumentError{Field: field, Reason: reason}
}

// NotYetError reports that a capsule cannot be opened before UnlockAt.
// It matches ErrNotYet via errors.Is.
type NotYetError struct {
	UnlockAt time.Time
}

func (e *NotYetError) Error() string {
	return fmt.Sprintf("%s: unlocks at %s", ErrNotYet, e.UnlockAt.UTC().Format(time.RFC3339))
}

func (e *NotYetError) Unwrap() error { return ErrNotYet }
