package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
)

// Client is the authority API as the CLI services see it.
type Client interface {
	Close() error
	Register(ctx context.Context, email, displayName string, salt, verifier []byte) error
	GetSalt(ctx context.Context, email string) ([]byte, error)
	Login(ctx context.Context, email string, verifier []byte) (*api.User, error)
	// Ping returns the server clock.
	Ping(ctx context.Context) (time.Time, error)

	CreateCapsule(ctx context.Context, req *api.CreateCapsuleRequest) (*api.Capsule, error)
	ListSent(ctx context.Context) (*api.ListCapsulesResponse, error)
	ListReceived(ctx context.Context) (*api.ListCapsulesResponse, error)
	OpenCapsule(ctx context.Context, capsuleID string) (*api.OpenCapsuleResponse, error)
	MarkOpened(ctx context.Context, capsuleID string) error

	RequestFriend(ctx context.Context, email string) (string, error)
	AcceptFriend(ctx context.Context, email string) (string, error)
	DeclineFriend(ctx context.Context, email string) (string, error)
	BlockUser(ctx context.Context, email string) (string, error)
	ListFriends(ctx context.Context) (*api.ListFriendsResponse, error)
	EligibleRecipients(ctx context.Context) ([]api.Friend, error)

	SendInvite(ctx context.Context, email, message string) (*api.Invite, bool, error)
	AcceptInvite(ctx context.Context, token string) (*api.Invite, error)
	ListInvites(ctx context.Context) ([]api.Invite, error)
}
