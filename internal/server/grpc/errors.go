package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// toStatus translates a service error into a gRPC status. Domain errors keep
// their message and travel with a reason trailer; anything else is logged
// and reported as Internal.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	reason, code, ok := api.Classify(err)
	if !ok {
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, "internal error")
	}

	md := metadata.Pairs(api.ReasonKey, reason)
	var ny *common.NotYetError
	if errors.As(err, &ny) {
		md.Set(api.UnlockAtKey, ny.UnlockAt.UTC().Format(time.RFC3339Nano))
	}
	// Fails only outside a server handler, as in unit tests.
	_ = grpc.SetTrailer(ctx, md)

	return status.Error(code, err.Error())
}
