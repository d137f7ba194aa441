// Package services holds the authority's business rules. Every service works
// against repositories obtained from a repomanager.RepositoryManager, so a
// single *sql.DB or an open transaction can back any of them.
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/server/auth"
	"github.com/dmitrijs2005/timecapsule/internal/server/config"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
)

const (
	saltSize         = 32
	refreshTokenSize = 32
)

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserService owns membership: registration, the salt/verifier login
// exchange and the access/refresh token lifecycle.
type UserService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	// Now is the server clock.
	Now func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:         db,
		repos:      m,
		secret:     []byte(cfg.SecretKey),
		accessTTL:  cfg.AccessTokenValidityDuration,
		refreshTTL: cfg.RefreshTokenValidityDuration,
		Now:        time.Now,
	}
}

// Register creates a member. The client derives salt and verifier from the
// password, which never reaches the server.
func (s *UserService) Register(ctx context.Context, email, displayName string, salt, verifier []byte) (*models.User, error) {
	email = common.NormalizeEmail(email)
	switch {
	case !strings.Contains(email, "@"):
		return nil, common.InvalidArgument("email", "not an address")
	case len(salt) == 0 || len(verifier) == 0:
		return nil, common.InvalidArgument("verifier", "salt and verifier are required")
	}

	created, err := s.repos.Users(s.db).Create(ctx, &models.User{
		Email:       email,
		DisplayName: strings.TrimSpace(displayName),
		Salt:        salt,
		Verifier:    verifier,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return created, nil
}

// GetSalt returns the salt the client needs to derive its verifier. Unknown
// addresses get a decoy salt that is stable per address, so repeated probes
// cannot tell members from strangers.
func (s *UserService) GetSalt(ctx context.Context, email string) ([]byte, error) {
	email = common.NormalizeEmail(email)
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return s.decoySalt(email), nil
	case err != nil:
		return nil, common.ErrorInternal
	}
	return user.Salt, nil
}

// Login compares the presented verifier in constant time and opens a session.
func (s *UserService) Login(ctx context.Context, email string, verifier []byte) (*TokenPair, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil, common.ErrorUnauthorized
	case err != nil:
		return nil, common.ErrorInternal
	}
	if subtle.ConstantTimeCompare(user.Verifier, verifier) != 1 {
		return nil, common.ErrorUnauthorized
	}
	return s.openSession(ctx, s.db, user.ID)
}

// RefreshToken redeems a refresh token for a new TokenPair. The old token is
// consumed in the same transaction that issues its replacement, so a token
// works at most once. Expired tokens yield ErrRefreshTokenExpired and are left
// in place.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		old, err := s.repos.RefreshTokens(tx).Consume(ctx, refreshToken)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return common.ErrInvalidToken
		case err != nil:
			return fmt.Errorf("error consuming refresh token: %w", err)
		case old.ExpiredAt(s.Now()):
			return common.ErrRefreshTokenExpired
		}

		pair, err = s.openSession(ctx, tx, old.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// GetByEmail looks a member up by address.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repos.Users(s.db).GetByEmail(ctx, common.NormalizeEmail(email))
}

// GetByID returns the user behind an access token.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	return s.repos.Users(s.db).GetByID(ctx, userID)
}

func (s *UserService) decoySalt(email string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte("decoy-salt:" + email))
	return mac.Sum(nil)[:saltSize]
}

// openSession mints an access token and stores a fresh refresh token through db.
func (s *UserService) openSession(ctx context.Context, db dbx.DBTX, userID string) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.secret, s.accessTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(refreshTokenSize)
	if err != nil {
		return nil, common.ErrorInternal
	}

	issued := &models.RefreshToken{
		UserID:  userID,
		Token:   refresh,
		Expires: s.Now().Add(s.refreshTTL),
	}
	if err := s.repos.RefreshTokens(db).Issue(ctx, issued); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
