package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

// remoteError keeps the server's message while matching the sentinel the
// server classified the failure as.
type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

// mapError turns an RPC failure into a local error. trailer is the response
// trailer; its reason key restores the domain sentinel.
func mapError(err error, trailer metadata.MD) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Unauthenticated:
		return ErrUnauthorized
	}

	if vals := trailer.Get(api.ReasonKey); len(vals) > 0 {
		if sentinel, ok := api.ReasonError(vals[0]); ok {
			if errors.Is(sentinel, common.ErrNotYet) {
				if at, ok := unlockAt(trailer); ok {
					return &common.NotYetError{UnlockAt: at}
				}
			}
			return &remoteError{sentinel: sentinel, msg: st.Message()}
		}
	}

	if st.Code() == codes.PermissionDenied {
		return ErrUnauthorized
	}
	return fmt.Errorf("rpc error: %w", err)
}

func unlockAt(trailer metadata.MD) (time.Time, bool) {
	vals := trailer.Get(api.UnlockAtKey)
	if len(vals) == 0 {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, vals[0])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
