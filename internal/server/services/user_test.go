package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/server/auth"
	"github.com/dmitrijs2005/timecapsule/internal/server/config"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T, rm *fakeRepoManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(newTxDB(t), rm, cfg)
}

func TestRegister(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)
	ctx := context.Background()

	u, err := s.Register(ctx, " Alice@Example.com", " Alice ", []byte("salt"), []byte("verifier"))
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.DisplayName)

	_, err = s.Register(ctx, "alice@example.com", "again", []byte("s"), []byte("v"))
	assert.ErrorIs(t, err, common.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "error creating user")

	_, err = s.Register(ctx, "nobody", "x", []byte("s"), []byte("v"))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = s.Register(ctx, "bob@example.com", "Bob", nil, []byte("v"))
	assert.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestGetSalt(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)
	ctx := context.Background()
	rm.users.Create(ctx, &models.User{Email: "alice@example.com", Salt: []byte("SALT"), Verifier: []byte("v")})

	salt, err := s.GetSalt(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, []byte("SALT"), salt)

	decoy, err := s.GetSalt(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Len(t, decoy, 32)
	again, err := s.GetSalt(ctx, " GHOST@example.com")
	require.NoError(t, err)
	assert.Equal(t, decoy, again, "probing twice must not reveal the address is unknown")
	other, err := s.GetSalt(ctx, "phantom@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, decoy, other)

	rm.users.getErr = errBoom{}
	_, err = s.GetSalt(ctx, "alice@example.com")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestLogin(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)
	ctx := context.Background()
	u, err := rm.users.Create(ctx, &models.User{Email: "alice@example.com", Salt: []byte("s"), Verifier: []byte("right")})
	require.NoError(t, err)

	_, err = s.Login(ctx, "ghost@example.com", []byte("right"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = s.Login(ctx, "alice@example.com", []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	pair, err := s.Login(ctx, "alice@example.com", []byte("right"))
	require.NoError(t, err)
	uid, err := auth.GetUserIDFromToken(pair.AccessToken, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
	require.Contains(t, rm.refresh.tokens, pair.RefreshToken)
	assert.Equal(t, u.ID, rm.refresh.tokens[pair.RefreshToken].UserID)

	rm.users.getErr = errBoom{}
	_, err = s.Login(ctx, "alice@example.com", []byte("right"))
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestRefreshToken(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	tests := []struct {
		name    string
		expires time.Time
		present bool
		prep    func(*fakeRefresh)
		wantErr error
		wantMsg string
	}{
		{name: "valid", expires: now.Add(time.Minute), present: true},
		{name: "unknown", wantErr: common.ErrInvalidToken},
		{name: "expired", expires: now.Add(-time.Minute), present: true, wantErr: common.ErrRefreshTokenExpired},
		{name: "expires exactly now", expires: now, present: true, wantErr: common.ErrRefreshTokenExpired},
		{
			name: "storage failure", expires: now.Add(time.Minute), present: true,
			prep:    func(f *fakeRefresh) { f.consumeErr = errBoom{} },
			wantMsg: "error consuming refresh token: boom",
		},
		{
			name: "replacement not stored", expires: now.Add(time.Minute), present: true,
			prep:    func(f *fakeRefresh) { f.issueErr = errBoom{} },
			wantErr: common.ErrorInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newFakeRepoManager()
			s := newUserService(t, rm)
			s.Now = func() time.Time { return now }
			if tt.present {
				rm.refresh.seed("u1", "old", tt.expires)
			}
			if tt.prep != nil {
				tt.prep(rm.refresh)
			}

			pair, err := s.RefreshToken(ctx, "old")
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				return
			case tt.wantMsg != "":
				assert.ErrorContains(t, err, tt.wantMsg)
				return
			}

			require.NoError(t, err)
			uid, err := auth.GetUserIDFromToken(pair.AccessToken, []byte("k"))
			require.NoError(t, err)
			assert.Equal(t, "u1", uid)
			require.Contains(t, rm.refresh.tokens, pair.RefreshToken)
			assert.Equal(t, now.Add(2*time.Hour), rm.refresh.tokens[pair.RefreshToken].Expires)
		})
	}
}

func TestRefreshToken_SingleUse(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)
	ctx := context.Background()
	rm.refresh.seed("u1", "old", time.Now().Add(time.Hour))

	pair, err := s.RefreshToken(ctx, "old")
	require.NoError(t, err)
	assert.NotContains(t, rm.refresh.tokens, "old")

	_, err = s.RefreshToken(ctx, "old")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = s.RefreshToken(ctx, pair.RefreshToken)
	assert.NoError(t, err)
}
