package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/client/models"
	"github.com/dmitrijs2005/timecapsule/internal/client/services"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
)

// stubInputs feeds answers to getSimpleText/getMultiline in order and
// passwords to getPassword in order.
func stubInputs(t *testing.T, answers []string, passwords ...string) {
	t.Helper()
	origST, origML, origGP := getSimpleText, getMultiline, getPassword

	next := func() (string, error) {
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getSimpleText = func(*bufio.Reader, string, io.Writer) (string, error) { return next() }
	getMultiline = func(*bufio.Reader, string, io.Writer) (string, error) { return next() }
	getPassword = func(io.Writer, string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		p := passwords[0]
		passwords = passwords[1:]
		return []byte(p), nil
	}

	t.Cleanup(func() {
		getSimpleText, getMultiline, getPassword = origST, origML, origGP
	})
}

type fakeAuth struct {
	regEmail, regName string
	regPass           []byte
	regErr            error

	onlineEmail string
	onlinePass  []byte
	onlineErr   error

	offlineEmail string
	offlineErr   error

	pingErr error

	clearCalled bool
	clearErr    error
}

func (f *fakeAuth) Register(_ context.Context, email, name string, pass []byte) error {
	f.regEmail, f.regName, f.regPass = email, name, append([]byte(nil), pass...)
	return f.regErr
}

func (f *fakeAuth) OnlineLogin(_ context.Context, email string, pass []byte) (*services.Session, error) {
	f.onlineEmail, f.onlinePass = email, append([]byte(nil), pass...)
	if f.onlineErr != nil {
		return nil, f.onlineErr
	}
	return &services.Session{Email: email, MasterKey: []byte("mk")}, nil
}

func (f *fakeAuth) OfflineLogin(_ context.Context, email string, _ []byte) (*services.Session, error) {
	f.offlineEmail = email
	if f.offlineErr != nil {
		return nil, f.offlineErr
	}
	return &services.Session{Email: email, MasterKey: []byte("mk")}, nil
}

func (f *fakeAuth) Ping(context.Context) (time.Time, error) { return time.Now(), f.pingErr }
func (f *fakeAuth) Close(context.Context) error             { return nil }

func (f *fakeAuth) ClearOfflineData(context.Context) error {
	f.clearCalled = true
	return f.clearErr
}

type fakeCapsules struct {
	composed   *services.ComposeInput
	composeErr error

	openID, openPass string
	opened           *models.Opened
	openErr          error

	listing *models.Listing
	listErr error

	cleared bool
}

func (f *fakeCapsules) Compose(_ context.Context, in services.ComposeInput) (*models.Capsule, error) {
	f.composed = &in
	if f.composeErr != nil {
		return nil, f.composeErr
	}
	return &models.Capsule{ID: "c1", UnlockAt: in.UnlockAt}, nil
}

func (f *fakeCapsules) Open(_ context.Context, id, pass string) (*models.Opened, error) {
	f.openID, f.openPass = id, pass
	return f.opened, f.openErr
}

func (f *fakeCapsules) ListSent(context.Context) (*models.Listing, error) {
	return f.listing, f.listErr
}

func (f *fakeCapsules) ListReceived(context.Context) (*models.Listing, error) {
	return f.listing, f.listErr
}

func (f *fakeCapsules) ClearCache(context.Context) error {
	f.cleared = true
	return nil
}

type fakeSocial struct {
	calls    []string
	eligible []api.Friend
	friends  *api.ListFriendsResponse
	invites  []api.Invite
	err      error
}

func (f *fakeSocial) status(kind, email string) (string, error) {
	f.calls = append(f.calls, kind+" "+email)
	return kind, f.err
}

func (f *fakeSocial) Request(_ context.Context, email string) (string, error) {
	return f.status("pending", email)
}
func (f *fakeSocial) Accept(_ context.Context, email string) (string, error) {
	return f.status("accepted", email)
}
func (f *fakeSocial) Decline(_ context.Context, email string) (string, error) {
	return f.status("declined", email)
}
func (f *fakeSocial) Block(_ context.Context, email string) (string, error) {
	return f.status("blocked", email)
}
func (f *fakeSocial) Friends(context.Context) (*api.ListFriendsResponse, error) {
	return f.friends, f.err
}
func (f *fakeSocial) Eligible(context.Context) ([]api.Friend, error) { return f.eligible, f.err }
func (f *fakeSocial) Invite(_ context.Context, email, message string) (*api.Invite, bool, error) {
	f.calls = append(f.calls, "invite "+email+" "+message)
	if f.err != nil {
		return nil, false, f.err
	}
	return &api.Invite{ID: "i1", Email: email, Token: "tok"}, false, nil
}
func (f *fakeSocial) Join(_ context.Context, token string) (*api.Invite, error) {
	f.calls = append(f.calls, "join "+token)
	return &api.Invite{ID: "i1"}, f.err
}
func (f *fakeSocial) Invites(context.Context) ([]api.Invite, error) { return f.invites, f.err }

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type testApp struct {
	*App
	auth     *fakeAuth
	capsules *fakeCapsules
	social   *fakeSocial
	out      *bytes.Buffer
}

func newTestApp(loggedIn bool) *testApp {
	ta := &testApp{
		auth:     &fakeAuth{},
		capsules: &fakeCapsules{},
		social:   &fakeSocial{},
		out:      &bytes.Buffer{},
	}
	ta.App = &App{
		logger:         logging.NewDiscard(),
		authService:    ta.auth,
		capsuleService: ta.capsules,
		socialService:  ta.social,
		reader:         bufio.NewReader(strings.NewReader("")),
		out:            ta.out,
		now:            func() time.Time { return testNow },
	}
	if loggedIn {
		ta.session = &services.Session{Email: "alice@example.com", MasterKey: []byte("mk")}
	}
	return ta
}
