package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/invites"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	capsulesrepo "github.com/dmitrijs2005/timecapsule/internal/server/repositories/capsules"
	friendshipsrepo "github.com/dmitrijs2005/timecapsule/internal/server/repositories/friendships"
	invitationsrepo "github.com/dmitrijs2005/timecapsule/internal/server/repositories/invitations"
	refreshtokensrepo "github.com/dmitrijs2005/timecapsule/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/timecapsule/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// newTxDB returns an empty in-memory database so dbx.WithTx can begin and
// commit real transactions while the fakes hold the data.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var discard = logging.NewDiscard()

// --- users ---

type fakeUsers struct {
	byID      map[string]*models.User
	seq       int
	createErr error
	getErr    error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[string]*models.User{}} }

func (f *fakeUsers) add(email, name string) *models.User {
	u, err := f.Create(context.Background(), &models.User{Email: email, DisplayName: name, Salt: []byte("s"), Verifier: []byte("v")})
	if err != nil {
		panic(err)
	}
	return u
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	f.seq++
	cp := *u
	cp.ID = fmt.Sprintf("u%d", f.seq)
	cp.CreatedAt = time.Unix(0, 0).UTC()
	f.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// --- refresh tokens ---

type fakeRefresh struct {
	tokens     map[string]*models.RefreshToken
	issueErr   error
	consumeErr error
}

func newFakeRefresh() *fakeRefresh { return &fakeRefresh{tokens: map[string]*models.RefreshToken{}} }

func (f *fakeRefresh) seed(userID, token string, expires time.Time) {
	f.tokens[token] = &models.RefreshToken{ID: "rt-" + token, UserID: userID, Token: token, Expires: expires}
}

func (f *fakeRefresh) Issue(_ context.Context, t *models.RefreshToken) error {
	if f.issueErr != nil {
		return f.issueErr
	}
	if _, ok := f.tokens[t.Token]; ok {
		return common.ErrAlreadyExists
	}
	t.ID = "rt-" + t.Token
	cp := *t
	f.tokens[t.Token] = &cp
	return nil
}

func (f *fakeRefresh) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.tokens, token)
	return t, nil
}

// --- capsules ---

type fakeCapsules struct {
	byID      map[string]*models.StoredCapsule
	swept     map[string]bool
	insertErr error
	getErr    error
	// conflictOnClaim simulates another dispatcher winning the claim.
	conflictOnClaim bool
}

func newFakeCapsules() *fakeCapsules {
	return &fakeCapsules{byID: map[string]*models.StoredCapsule{}, swept: map[string]bool{}}
}

func copyCapsule(sc *models.StoredCapsule) *models.StoredCapsule {
	cp := *sc
	cp.Recipients = append([]capsule.Recipient(nil), sc.Recipients...)
	cp.Sealed.Ciphertext = nil
	return &cp
}

func (f *fakeCapsules) Insert(_ context.Context, sc *models.StoredCapsule) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.byID[sc.ID] = copyCapsule(sc)
	return nil
}

func (f *fakeCapsules) Get(_ context.Context, id string) (*models.StoredCapsule, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	sc, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyCapsule(sc), nil
}

func (f *fakeCapsules) list(keep func(*models.StoredCapsule) bool) []*models.StoredCapsule {
	var out []*models.StoredCapsule
	for _, sc := range f.byID {
		if keep(sc) {
			out = append(out, copyCapsule(sc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeCapsules) ListByOwner(_ context.Context, ownerID string) ([]*models.StoredCapsule, error) {
	return f.list(func(sc *models.StoredCapsule) bool { return sc.OwnerID == ownerID }), nil
}

func (f *fakeCapsules) ListByRecipient(_ context.Context, email string) ([]*models.StoredCapsule, error) {
	return f.list(func(sc *models.StoredCapsule) bool {
		_, ok := sc.Recipient(email)
		return ok
	}), nil
}

func (f *fakeCapsules) SetDelivery(_ context.Context, capsuleID, email string, status capsule.DeliveryStatus) error {
	sc, ok := f.byID[capsuleID]
	if !ok {
		return common.ErrorNotFound
	}
	return sc.SetDelivery(email, status)
}

func (f *fakeCapsules) RecordOpened(_ context.Context, capsuleID, email string, at time.Time) error {
	sc, ok := f.byID[capsuleID]
	if !ok {
		return common.ErrorNotFound
	}
	changed, err := sc.Capsule.RecordOpened(email, at)
	if err != nil {
		return err
	}
	if !changed {
		return common.ErrVersionConflict
	}
	return nil
}

func (f *fakeCapsules) MarkOpened(_ context.Context, capsuleID string, at time.Time) error {
	sc, ok := f.byID[capsuleID]
	if !ok {
		return common.ErrorNotFound
	}
	if !sc.Capsule.MarkOpened(at) {
		return common.ErrVersionConflict
	}
	return nil
}

func (f *fakeCapsules) DueForUnlock(_ context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	for _, sc := range f.list(func(sc *models.StoredCapsule) bool { return sc.IsOpenable(now) && !f.swept[sc.ID] }) {
		ids = append(ids, sc.ID)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeCapsules) ClaimUnlock(_ context.Context, capsuleID string, _ time.Time) error {
	if f.conflictOnClaim || f.swept[capsuleID] {
		return common.ErrVersionConflict
	}
	f.swept[capsuleID] = true
	return nil
}

// --- friendships ---

type fakeFriendships struct {
	edges map[string]*friends.Edge
	users *fakeUsers
}

func newFakeFriendships(users *fakeUsers) *fakeFriendships {
	return &fakeFriendships{edges: map[string]*friends.Edge{}, users: users}
}

func (f *fakeFriendships) Get(_ context.Context, a, b string) (*friends.Edge, error) {
	e, ok := f.edges[friends.PairKey(a, b)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeFriendships) Insert(_ context.Context, e *friends.Edge) error {
	key := friends.PairKey(e.RequesterID, e.AddresseeID)
	if _, ok := f.edges[key]; ok {
		return common.ErrAlreadyExists
	}
	cp := *e
	f.edges[key] = &cp
	return nil
}

func (f *fakeFriendships) Update(_ context.Context, e *friends.Edge, prev friends.Status) error {
	key := friends.PairKey(e.RequesterID, e.AddresseeID)
	cur, ok := f.edges[key]
	if !ok || cur.Status != prev {
		return common.ErrVersionConflict
	}
	cp := *e
	f.edges[key] = &cp
	return nil
}

func (f *fakeFriendships) ListForUser(_ context.Context, userID string) ([]models.Connection, error) {
	var keys []string
	for k := range f.edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []models.Connection
	for _, k := range keys {
		e := f.edges[k]
		if !e.Involves(userID) {
			continue
		}
		other := f.users.byID[e.Other(userID)]
		out = append(out, models.Connection{
			Edge:       *e,
			OtherID:    other.ID,
			OtherEmail: other.Email,
			OtherName:  other.DisplayName,
		})
	}
	return out, nil
}

// --- invitations ---

type fakeInvitations struct {
	list []*invites.Invite
}

func (f *fakeInvitations) Insert(_ context.Context, inv *invites.Invite) error {
	cp := *inv
	f.list = append(f.list, &cp)
	return nil
}

func (f *fakeInvitations) Latest(_ context.Context, inviterID, email string) (*invites.Invite, error) {
	for i := len(f.list) - 1; i >= 0; i-- {
		if inv := f.list[i]; inv.InviterID == inviterID && inv.InviteeEmail == email {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeInvitations) GetByToken(_ context.Context, token string) (*invites.Invite, error) {
	for _, inv := range f.list {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeInvitations) ListByInviter(_ context.Context, inviterID string) ([]*invites.Invite, error) {
	var out []*invites.Invite
	for _, inv := range f.list {
		if inv.InviterID == inviterID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeInvitations) Update(_ context.Context, inv *invites.Invite, prev invites.Status) error {
	for i, cur := range f.list {
		if cur.ID != inv.ID {
			continue
		}
		if cur.Status != prev {
			return common.ErrVersionConflict
		}
		cp := *inv
		f.list[i] = &cp
		return nil
	}
	return common.ErrorNotFound
}

// --- manager ---

type fakeRepoManager struct {
	users    *fakeUsers
	refresh  *fakeRefresh
	capsules *fakeCapsules
	friends  *fakeFriendships
	invites  *fakeInvitations
}

func newFakeRepoManager() *fakeRepoManager {
	users := newFakeUsers()
	return &fakeRepoManager{
		users:    users,
		refresh:  newFakeRefresh(),
		capsules: newFakeCapsules(),
		friends:  newFakeFriendships(users),
		invites:  &fakeInvitations{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.users }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository {
	return m.refresh
}
func (m *fakeRepoManager) Capsules(dbx.DBTX) capsulesrepo.Repository       { return m.capsules }
func (m *fakeRepoManager) Friendships(dbx.DBTX) friendshipsrepo.Repository { return m.friends }
func (m *fakeRepoManager) Invitations(dbx.DBTX) invitationsrepo.Repository { return m.invites }

// --- collaborators ---

type fakeBlobs struct {
	data   map[string][]byte
	putErr error
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{data: map[string][]byte{}} }

func (f *fakeBlobs) Put(_ context.Context, key string, body []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.data[key] = append([]byte(nil), body...)
	return nil
}

func (f *fakeBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := f.data[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return b, nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

type fakeNotifier struct {
	sent []Notification
	// failFor makes delivery to these addresses fail.
	failFor map[string]bool
}

func (f *fakeNotifier) Notify(_ context.Context, n Notification) error {
	if f.failFor[n.RecipientEmail] {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) to(kind NotificationKind) []string {
	var out []string
	for _, n := range f.sent {
		if n.Kind == kind {
			out = append(out, n.RecipientEmail)
		}
	}
	return out
}

type fakeLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

// clock is a settable server clock.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }
