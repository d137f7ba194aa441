package grpc

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
)

type friendAction func(ctx context.Context, userID, email string) (*friends.Edge, error)

func (s *GRPCServer) friendCall(ctx context.Context, req *api.FriendRequest, action friendAction) (*api.FriendResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	e, err := action(ctx, uid, req.Email)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.FriendResponse{Status: string(e.Status)}, nil
}

func (s *GRPCServer) RequestFriend(ctx context.Context, req *api.FriendRequest) (*api.FriendResponse, error) {
	return s.friendCall(ctx, req, s.friends.Request)
}

func (s *GRPCServer) AcceptFriend(ctx context.Context, req *api.FriendRequest) (*api.FriendResponse, error) {
	return s.friendCall(ctx, req, s.friends.Accept)
}

func (s *GRPCServer) DeclineFriend(ctx context.Context, req *api.FriendRequest) (*api.FriendResponse, error) {
	return s.friendCall(ctx, req, s.friends.Decline)
}

func (s *GRPCServer) BlockUser(ctx context.Context, req *api.FriendRequest) (*api.FriendResponse, error) {
	return s.friendCall(ctx, req, s.friends.Block)
}

func (s *GRPCServer) ListFriends(ctx context.Context, _ *api.ListFriendsRequest) (*api.ListFriendsResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	o, err := s.friends.Overview(ctx, uid)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ListFriendsResponse{
		Friends:  toFriends(o.Friends),
		Incoming: toFriends(o.Incoming),
		Outgoing: toFriends(o.Outgoing),
		Blocked:  toFriends(o.Blocked),
	}, nil
}

func (s *GRPCServer) EligibleRecipients(ctx context.Context, _ *api.ListFriendsRequest) (*api.EligibleRecipientsResponse, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	conns, err := s.friends.Eligible(ctx, uid)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.EligibleRecipientsResponse{Recipients: toFriends(conns)}, nil
}
