package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/client/client"
	"github.com/dmitrijs2005/timecapsule/internal/common"
)

// SocialService manages friends and invitations.
type SocialService interface {
	Request(ctx context.Context, email string) (string, error)
	Accept(ctx context.Context, email string) (string, error)
	Decline(ctx context.Context, email string) (string, error)
	Block(ctx context.Context, email string) (string, error)
	Friends(ctx context.Context) (*api.ListFriendsResponse, error)
	Eligible(ctx context.Context) ([]api.Friend, error)
	Invite(ctx context.Context, email, message string) (*api.Invite, bool, error)
	Join(ctx context.Context, token string) (*api.Invite, error)
	Invites(ctx context.Context) ([]api.Invite, error)
}

type socialService struct {
	client client.Client
}

func NewSocialService(c client.Client) SocialService {
	return &socialService{client: c}
}

func address(email string) (string, error) {
	email = common.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return "", common.InvalidArgument("email", "not an address")
	}
	return email, nil
}

type edgeCall func(ctx context.Context, email string) (string, error)

func (s *socialService) edge(ctx context.Context, call edgeCall, email string) (string, error) {
	email, err := address(email)
	if err != nil {
		return "", err
	}
	return call(ctx, email)
}

func (s *socialService) Request(ctx context.Context, email string) (string, error) {
	return s.edge(ctx, s.client.RequestFriend, email)
}

func (s *socialService) Accept(ctx context.Context, email string) (string, error) {
	return s.edge(ctx, s.client.AcceptFriend, email)
}

func (s *socialService) Decline(ctx context.Context, email string) (string, error) {
	return s.edge(ctx, s.client.DeclineFriend, email)
}

func (s *socialService) Block(ctx context.Context, email string) (string, error) {
	return s.edge(ctx, s.client.BlockUser, email)
}

func (s *socialService) Friends(ctx context.Context) (*api.ListFriendsResponse, error) {
	return s.client.ListFriends(ctx)
}

func (s *socialService) Eligible(ctx context.Context) ([]api.Friend, error) {
	return s.client.EligibleRecipients(ctx)
}

func (s *socialService) Invite(ctx context.Context, email, message string) (*api.Invite, bool, error) {
	email, err := address(email)
	if err != nil {
		return nil, false, err
	}
	return s.client.SendInvite(ctx, email, strings.TrimSpace(message))
}

func (s *socialService) Join(ctx context.Context, token string) (*api.Invite, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, common.InvalidArgument("token", "required")
	}
	return s.client.AcceptInvite(ctx, token)
}

func (s *socialService) Invites(ctx context.Context) ([]api.Invite, error) {
	return s.client.ListInvites(ctx)
}
