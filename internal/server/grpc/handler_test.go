package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/cryptox"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/invites"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var unlockAt = time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC)

func sampleCapsule() *capsule.Capsule {
	opened := unlockAt.Add(time.Hour)
	return &capsule.Capsule{
		ID:         "c1",
		OwnerID:    "u1",
		OwnerEmail: "alice@example.com",
		OwnerName:  "Alice",
		Headline:   "Happy Birthday",
		UnlockAt:   unlockAt,
		State:      capsule.StateSealed,
		Sealed:     cryptox.Sealed{Ciphertext: []byte("ct"), IV: []byte("iv"), Salt: []byte("salt")},
		Recipients: []capsule.Recipient{
			{Email: "bob@example.com", DisplayName: "Bob", NotifyOnUnlock: true, Delivery: capsule.DeliverySent, OpenedAt: &opened},
		},
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.users.pair = &services.TokenPair{AccessToken: "a", RefreshToken: "r"}
	h.users.user = &models.User{ID: "u1", Email: "alice@example.com", DisplayName: "Alice"}

	resp, err := h.client.Login(context.Background(), &api.LoginRequest{Email: "alice@example.com", Verifier: []byte("v")})
	require.NoError(t, err)
	assert.Equal(t, "a", resp.AccessToken)
	assert.Equal(t, "r", resp.RefreshToken)
	assert.Equal(t, api.User{ID: "u1", Email: "alice@example.com", DisplayName: "Alice"}, resp.User)
}

func TestLogin_Unauthorized(t *testing.T) {
	h := newHarness(t)
	h.users.loginErr = common.ErrorUnauthorized

	var trailer metadata.MD
	_, err := h.client.Login(context.Background(), &api.LoginRequest{Email: "x@example.com"}, grpc.Trailer(&trailer))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, []string{"unauthorized"}, trailer.Get(api.ReasonKey))
}

func TestRegister_Conflict(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Register(context.Background(), &api.RegisterRequest{Email: "alice@example.com"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
	assert.Equal(t, "alice@example.com", h.users.gotEmail)
}

func TestPing(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.Ping(context.Background(), &api.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
	assert.True(t, serverNow.Equal(resp.ServerTime))
}

func TestCreateCapsule(t *testing.T) {
	h := newHarness(t)
	h.capsules.capsule = sampleCapsule()

	resp, err := h.client.CreateCapsule(authed(t, "u1"), &api.CreateCapsuleRequest{
		Headline:   "Happy Birthday",
		UnlockAt:   unlockAt,
		Recipients: []string{"bob@example.com"},
		Surprise:   true,
		Ciphertext: []byte("ct"),
		IV:         []byte("iv"),
		Salt:       []byte("salt"),
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", h.capsules.createdBy)
	assert.True(t, h.capsules.created.Surprise)
	assert.True(t, unlockAt.Equal(h.capsules.created.UnlockAt))
	assert.Equal(t, []byte("ct"), h.capsules.created.Sealed.Ciphertext)
	assert.Equal(t, "c1", resp.Capsule.ID)
	require.Len(t, resp.Capsule.Recipients, 1)
	assert.Equal(t, "sent", resp.Capsule.Recipients[0].Delivery)
	require.NotNil(t, resp.Capsule.Recipients[0].OpenedAt)
}

func TestCreateCapsule_RequiresToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.CreateCapsule(context.Background(), &api.CreateCapsuleRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Empty(t, h.capsules.createdBy)
}

func TestOpenCapsule_NotYet(t *testing.T) {
	h := newHarness(t)
	h.capsules.openErr = &common.NotYetError{UnlockAt: unlockAt}

	var trailer metadata.MD
	resp, err := h.client.OpenCapsule(authed(t, "u2"), &api.CapsuleRequest{CapsuleID: "c1"}, grpc.Trailer(&trailer))
	assert.Nil(t, resp)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, []string{"not_yet"}, trailer.Get(api.ReasonKey))
	assert.Equal(t, []string{unlockAt.Format(time.RFC3339Nano)}, trailer.Get(api.UnlockAtKey))
}

func TestOpenCapsule_Released(t *testing.T) {
	h := newHarness(t)
	h.capsules.capsule = sampleCapsule()

	resp, err := h.client.OpenCapsule(authed(t, "u2"), &api.CapsuleRequest{CapsuleID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, []byte("ct"), resp.Ciphertext)
	assert.Equal(t, []byte("iv"), resp.IV)
	assert.Equal(t, []byte("salt"), resp.Salt)
	assert.Equal(t, cryptox.UnlockContext("alice@example.com", unlockAt), resp.Context)
}

func TestMarkOpened_Errors(t *testing.T) {
	h := newHarness(t)

	h.capsules.markErr = common.ErrForbidden
	_, err := h.client.MarkOpened(authed(t, "u3"), &api.CapsuleRequest{CapsuleID: "c1"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	h.capsules.markErr = errBoom{}
	_, err = h.client.MarkOpened(authed(t, "u3"), &api.CapsuleRequest{CapsuleID: "c1"})
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, "internal error", status.Convert(err).Message())
}

func TestListSent(t *testing.T) {
	h := newHarness(t)
	h.capsules.list = []*models.StoredCapsule{{Capsule: *sampleCapsule(), StorageKey: "k"}}

	resp, err := h.client.ListSent(authed(t, "u1"), &api.ListCapsulesRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Capsules, 1)
	assert.Equal(t, "Happy Birthday", resp.Capsules[0].Headline)
	assert.True(t, serverNow.Equal(resp.ServerTime))
}

func TestFriendCalls(t *testing.T) {
	h := newHarness(t)
	ctx := authed(t, "u1")
	since := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	h.friends.overview = &services.FriendsOverview{
		Friends: []models.Connection{{
			Edge:       friends.Edge{Status: friends.StatusAccepted, UpdatedAt: since},
			OtherID:    "u2",
			OtherEmail: "bob@example.com",
			OtherName:  "Bob",
		}},
	}

	_, err := h.client.RequestFriend(ctx, &api.FriendRequest{Email: "bob@example.com"})
	require.NoError(t, err)
	_, err = h.client.AcceptFriend(ctx, &api.FriendRequest{Email: "carol@example.com"})
	require.NoError(t, err)
	_, err = h.client.DeclineFriend(ctx, &api.FriendRequest{Email: "dave@example.com"})
	require.NoError(t, err)
	_, err = h.client.BlockUser(ctx, &api.FriendRequest{Email: "erin@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"request:bob@example.com", "accept:carol@example.com",
		"decline:dave@example.com", "block:erin@example.com",
	}, h.friends.calls)

	list, err := h.client.ListFriends(ctx, &api.ListFriendsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Friends, 1)
	assert.Equal(t, "bob@example.com", list.Friends[0].Email)
	assert.Equal(t, "accepted", list.Friends[0].Status)
	assert.True(t, since.Equal(list.Friends[0].Since))
	assert.Empty(t, list.Incoming)

	eligible, err := h.client.EligibleRecipients(ctx, &api.ListFriendsRequest{})
	require.NoError(t, err)
	assert.Len(t, eligible.Recipients, 1)

	h.friends.err = common.ErrBlocked
	var trailer metadata.MD
	_, err = h.client.RequestFriend(ctx, &api.FriendRequest{Email: "bob@example.com"}, grpc.Trailer(&trailer))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, []string{"blocked"}, trailer.Get(api.ReasonKey))
}

func TestInvites(t *testing.T) {
	h := newHarness(t)
	ctx := authed(t, "u1")
	h.invites.invite = &invites.Invite{
		ID:           "i1",
		Token:        "tok",
		InviteeEmail: "newbie@example.com",
		Status:       invites.StatusSent,
		ExpiresAt:    serverNow.Add(-time.Minute),
	}

	sent, err := h.client.SendInvite(ctx, &api.SendInviteRequest{Email: "newbie@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "tok", sent.Invite.Token)
	assert.Equal(t, "expired", sent.Invite.Status)

	list, err := h.client.ListInvites(ctx, &api.ListInvitesRequest{})
	require.NoError(t, err)
	require.Len(t, list.Invites, 1)
	assert.Equal(t, "newbie@example.com", list.Invites[0].Email)

	accepted, err := h.client.AcceptInvite(authed(t, "u9"), &api.AcceptInviteRequest{Token: "tok"})
	require.NoError(t, err)
	assert.Empty(t, accepted.Invite.Token)

	h.invites.err = common.ErrExpired
	_, err = h.client.AcceptInvite(authed(t, "u9"), &api.AcceptInviteRequest{Token: "tok"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
