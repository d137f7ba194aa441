package api

import (
	"errors"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"google.golang.org/grpc/codes"
)

// Trailer keys that carry a domain error across the wire, so the client can
// restore the same sentinel the server returned.
const (
	ReasonKey   = "x-error-reason"
	UnlockAtKey = "x-unlock-at"
)

type reason struct {
	name string
	code codes.Code
	err  error
}

var reasons = []reason{
	{"not_yet", codes.FailedPrecondition, common.ErrNotYet},
	{"invalid_argument", codes.InvalidArgument, common.ErrInvalidArgument},
	{"not_found", codes.NotFound, common.ErrorNotFound},
	{"duplicate_recipient", codes.AlreadyExists, common.ErrDuplicateRecipient},
	{"already_exists", codes.AlreadyExists, common.ErrAlreadyExists},
	{"blocked", codes.PermissionDenied, common.ErrBlocked},
	{"forbidden", codes.PermissionDenied, common.ErrForbidden},
	{"expired", codes.FailedPrecondition, common.ErrExpired},
	{"invalid_state", codes.FailedPrecondition, common.ErrInvalidState},
	{"version_conflict", codes.Aborted, common.ErrVersionConflict},
	{"rate_limited", codes.ResourceExhausted, common.ErrRateLimited},
	{"token_expired", codes.Unauthenticated, common.ErrTokenExpired},
	{"refresh_token_expired", codes.Unauthenticated, common.ErrRefreshTokenExpired},
	{"invalid_token", codes.Unauthenticated, common.ErrInvalidToken},
	{"unauthorized", codes.Unauthenticated, common.ErrorUnauthorized},
}

// Classify returns the wire reason and status code for a domain error.
// ok is false for errors that should surface as Internal.
func Classify(err error) (name string, code codes.Code, ok bool) {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name, r.code, true
		}
	}
	return "", codes.Internal, false
}

// ReasonError returns the sentinel for a wire reason.
func ReasonError(name string) (error, bool) {
	for _, r := range reasons {
		if r.name == name {
			return r.err, true
		}
	}
	return nil, false
}
