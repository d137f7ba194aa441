package grpc

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/api"
)

func (s *GRPCServer) SendInvite(ctx context.Context, req *api.SendInviteRequest) (*api.SendInviteResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	inv, resent, err := s.invites.Send(ctx, uid, req.Email, req.Message)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.SendInviteResponse{Invite: toInvite(inv, s.now(), true), Resent: resent}, nil
}

func (s *GRPCServer) AcceptInvite(ctx context.Context, req *api.AcceptInviteRequest) (*api.AcceptInviteResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	inv, err := s.invites.Accept(ctx, uid, req.Token)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.AcceptInviteResponse{Invite: toInvite(inv, s.now(), false)}, nil
}

func (s *GRPCServer) ListInvites(ctx context.Context, _ *api.ListInvitesRequest) (*api.ListInvitesResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	list, err := s.invites.List(ctx, uid)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	now := s.now()
	out := make([]api.Invite, 0, len(list))
	for _, inv := range list {
		out = append(out, toInvite(inv, now, true))
	}
	return &api.ListInvitesResponse{Invites: out}, nil
}
