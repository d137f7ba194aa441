package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArgumentError_MatchesSentinel(t *testing.T) {
	err := InvalidArgument("unlock_at", "must be in the future")

	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "invalid argument: unlock_at: must be in the future", err.Error())

	wrapped := fmt.Errorf("create capsule: %w", err)
	var ae *ArgumentError
	assert.True(t, errors.As(wrapped, &ae))
	assert.Equal(t, "unlock_at", ae.Field)
}

func TestArgumentError_NoField(t *testing.T) {
	err := InvalidArgument("", "empty passphrase")
	assert.Equal(t, "invalid argument: empty passphrase", err.Error())
}

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{
		ErrInvalidArgument, ErrAuthenticationFailure, ErrNotYet,
		ErrDuplicateRecipient, ErrAlreadyExists, ErrBlocked, ErrExpired,
		ErrForbidden, ErrInvalidState,
	}
	for i := range all {
		for j := range all {
			if i != j && errors.Is(all[i], all[j]) {
				t.Fatalf("%v must not match %v", all[i], all[j])
			}
		}
	}
}

func TestNotYetError(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	err := fmt.Errorf("open: %w", &NotYetError{UnlockAt: at})

	assert.ErrorIs(t, err, ErrNotYet)
	var ny *NotYetError
	assert.True(t, errors.As(err, &ny))
	assert.Equal(t, at, ny.UnlockAt)
	assert.Equal(t, "open: not yet: unlocks at 2025-01-01T00:00:00Z", err.Error())
}
