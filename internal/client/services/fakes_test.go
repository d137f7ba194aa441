package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/client/client"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var errBoom = errors.New("boom")

var discard = logging.NewDiscard()

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = client.RunMigrations(context.Background(), db)
	require.NoError(t, err)
	return db
}

// fakeClient implements client.Client for the service tests.
type fakeClient struct {
	closeErr error

	registerErr   error
	lastRegister  []string
	lastSalt      []byte
	lastVerifier  []byte
	saltRet       []byte
	saltErr       error
	loginUser     api.User
	loginErr      error
	lastLoginKey  []byte
	pingTime      time.Time
	pingErr       error
	created       *api.CreateCapsuleRequest
	createErr     error
	bundle        *api.OpenCapsuleResponse
	openErr       error
	opened        []string
	markErr       error
	sent          *api.ListCapsulesResponse
	received      *api.ListCapsulesResponse
	listErr       error
	friendCalls   []string
	friendsResp   *api.ListFriendsResponse
	inviteEmail   string
	inviteMessage string
	joined        string
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Close() error { return f.closeErr }

func (f *fakeClient) Register(_ context.Context, email, displayName string, salt, verifier []byte) error {
	f.lastRegister = []string{email, displayName}
	f.lastSalt = append([]byte(nil), salt...)
	f.lastVerifier = append([]byte(nil), verifier...)
	return f.registerErr
}

func (f *fakeClient) GetSalt(context.Context, string) ([]byte, error) {
	return append([]byte(nil), f.saltRet...), f.saltErr
}

func (f *fakeClient) Login(_ context.Context, email string, verifier []byte) (*api.User, error) {
	f.lastLoginKey = append([]byte(nil), verifier...)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	u := f.loginUser
	u.Email = email
	return &u, nil
}

func (f *fakeClient) Ping(context.Context) (time.Time, error) { return f.pingTime, f.pingErr }

func (f *fakeClient) CreateCapsule(_ context.Context, req *api.CreateCapsuleRequest) (*api.Capsule, error) {
	f.created = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &api.Capsule{ID: "c1", Headline: req.Headline, UnlockAt: req.UnlockAt, State: "sealed"}, nil
}

func (f *fakeClient) ListSent(context.Context) (*api.ListCapsulesResponse, error) {
	return f.sent, f.listErr
}

func (f *fakeClient) ListReceived(context.Context) (*api.ListCapsulesResponse, error) {
	return f.received, f.listErr
}

func (f *fakeClient) OpenCapsule(context.Context, string) (*api.OpenCapsuleResponse, error) {
	return f.bundle, f.openErr
}

func (f *fakeClient) MarkOpened(_ context.Context, id string) error {
	f.opened = append(f.opened, id)
	return f.markErr
}

func (f *fakeClient) friend(kind, email string) (string, error) {
	f.friendCalls = append(f.friendCalls, kind+":"+email)
	return kind, nil
}

func (f *fakeClient) RequestFriend(_ context.Context, email string) (string, error) {
	return f.friend("pending", email)
}

func (f *fakeClient) AcceptFriend(_ context.Context, email string) (string, error) {
	return f.friend("accepted", email)
}

func (f *fakeClient) DeclineFriend(_ context.Context, email string) (string, error) {
	return f.friend("declined", email)
}

func (f *fakeClient) BlockUser(_ context.Context, email string) (string, error) {
	return f.friend("blocked", email)
}

func (f *fakeClient) ListFriends(context.Context) (*api.ListFriendsResponse, error) {
	return f.friendsResp, nil
}

func (f *fakeClient) EligibleRecipients(context.Context) ([]api.Friend, error) {
	if f.friendsResp == nil {
		return nil, nil
	}
	return f.friendsResp.Friends, nil
}

func (f *fakeClient) SendInvite(_ context.Context, email, message string) (*api.Invite, bool, error) {
	f.inviteEmail, f.inviteMessage = email, message
	return &api.Invite{ID: "i1", Email: email, Status: "sent"}, false, nil
}

func (f *fakeClient) AcceptInvite(_ context.Context, token string) (*api.Invite, error) {
	f.joined = token
	return &api.Invite{ID: "i1", Status: "accepted"}, nil
}

func (f *fakeClient) ListInvites(context.Context) ([]api.Invite, error) {
	return []api.Invite{{ID: "i1"}}, nil
}
