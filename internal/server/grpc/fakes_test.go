package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/invites"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/auth"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

const testSecret = "secret"

type fakeUsers struct {
	user     *models.User
	pair     *services.TokenPair
	loginErr error
	salt     []byte
	gotEmail string
}

func (f *fakeUsers) Register(_ context.Context, email, _ string, _, _ []byte) (*models.User, error) {
	f.gotEmail = email
	if f.user == nil {
		return nil, common.ErrAlreadyExists
	}
	return f.user, nil
}

func (f *fakeUsers) GetSalt(_ context.Context, email string) ([]byte, error) {
	f.gotEmail = email
	return f.salt, nil
}

func (f *fakeUsers) Login(_ context.Context, email string, _ []byte) (*services.TokenPair, error) {
	f.gotEmail = email
	return f.pair, f.loginErr
}

func (f *fakeUsers) RefreshToken(context.Context, string) (*services.TokenPair, error) {
	return f.pair, nil
}

func (f *fakeUsers) GetByEmail(context.Context, string) (*models.User, error) {
	return f.user, nil
}

type fakeCapsules struct {
	created   services.CreateInput
	createdBy string
	capsule   *capsule.Capsule
	openErr   error
	markErr   error
	list      []*models.StoredCapsule
}

func (f *fakeCapsules) Create(_ context.Context, ownerID string, in services.CreateInput) (*capsule.Capsule, error) {
	f.createdBy = ownerID
	f.created = in
	return f.capsule, nil
}

func (f *fakeCapsules) Open(context.Context, string, string) (*services.OpenResult, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &services.OpenResult{Capsule: f.capsule, Context: f.capsule.UnlockContext()}, nil
}

func (f *fakeCapsules) MarkOpened(context.Context, string, string) error { return f.markErr }

func (f *fakeCapsules) ListSent(context.Context, string) ([]*models.StoredCapsule, error) {
	return f.list, nil
}

func (f *fakeCapsules) ListReceived(context.Context, string) ([]*models.StoredCapsule, error) {
	return f.list, nil
}

type fakeFriends struct {
	overview *services.FriendsOverview
	err      error
	calls    []string
}

func (f *fakeFriends) act(name, email string) (*friends.Edge, error) {
	f.calls = append(f.calls, name+":"+email)
	if f.err != nil {
		return nil, f.err
	}
	return &friends.Edge{Status: friends.StatusPending}, nil
}

func (f *fakeFriends) Request(_ context.Context, _, email string) (*friends.Edge, error) {
	return f.act("request", email)
}
func (f *fakeFriends) Accept(_ context.Context, _, email string) (*friends.Edge, error) {
	return f.act("accept", email)
}
func (f *fakeFriends) Decline(_ context.Context, _, email string) (*friends.Edge, error) {
	return f.act("decline", email)
}
func (f *fakeFriends) Block(_ context.Context, _, email string) (*friends.Edge, error) {
	return f.act("block", email)
}
func (f *fakeFriends) Overview(context.Context, string) (*services.FriendsOverview, error) {
	return f.overview, nil
}
func (f *fakeFriends) Eligible(context.Context, string) ([]models.Connection, error) {
	return f.overview.Friends, nil
}

type fakeInvites struct {
	invite *invites.Invite
	err    error
}

func (f *fakeInvites) Send(context.Context, string, string, string) (*invites.Invite, bool, error) {
	return f.invite, false, f.err
}
func (f *fakeInvites) Accept(context.Context, string, string) (*invites.Invite, error) {
	return f.invite, f.err
}
func (f *fakeInvites) List(context.Context, string) ([]*invites.Invite, error) {
	return []*invites.Invite{f.invite}, f.err
}

type harness struct {
	users    *fakeUsers
	capsules *fakeCapsules
	friends  *fakeFriends
	invites  *fakeInvites
	server   *GRPCServer
	client   *api.CapsuleServiceClient
}

var serverNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		users:    &fakeUsers{},
		capsules: &fakeCapsules{},
		friends:  &fakeFriends{},
		invites:  &fakeInvites{},
	}
	h.server = NewGRPCServer("", logging.NewDiscard(), h.users, h.capsules, h.friends, h.invites, testSecret)
	h.server.now = func() time.Time { return serverNow }

	lis := bufconn.Listen(1 << 20)
	srv := h.server.newServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	h.client = api.NewCapsuleServiceClient(conn)
	return h
}

// authed returns a context carrying a valid access token for userID.
func authed(t *testing.T, userID string) context.Context {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, token)
}
