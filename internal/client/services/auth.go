// Package services contains the application services behind the capsule CLI.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/client/client"
	"github.com/dmitrijs2005/timecapsule/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/cryptox"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
)

// Session is the signed-in identity. MasterKey proves the account password
// was entered; it never encrypts capsules, which use their own passphrase.
type Session struct {
	Email       string
	DisplayName string
	MasterKey   []byte
}

// AuthService defines authentication operations for the CLI.
type AuthService interface {
	OfflineLogin(ctx context.Context, email string, password []byte) (*Session, error)
	OnlineLogin(ctx context.Context, email string, password []byte) (*Session, error)
	Register(ctx context.Context, email, displayName string, password []byte) error
	// Ping returns the server clock.
	Ping(ctx context.Context) (time.Time, error)
	Close(ctx context.Context) error
	ClearOfflineData(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

// OfflineLogin checks the password against the verifier cached by the last
// online login. Missing cache data yields client.ErrLocalDataNotAvailable and
// a mismatch client.ErrUnauthorized.
func (a *authService) OfflineLogin(ctx context.Context, email string, password []byte) (*Session, error) {
	email = common.NormalizeEmail(email)

	saved, err := metadata.LoadLogin(ctx, metadata.NewSQLiteRepository(a.db))
	if err != nil {
		return nil, fmt.Errorf("error reading offline data: %w", err)
	}
	if saved == nil {
		return nil, client.ErrLocalDataNotAvailable
	}
	if saved.Email != email {
		return nil, client.ErrUnauthorized
	}

	masterKey := cryptox.DeriveMasterKey(password, saved.Salt)
	if subtle.ConstantTimeCompare(saved.Verifier, cryptox.MakeVerifier(masterKey)) == 0 {
		return nil, client.ErrUnauthorized
	}

	return &Session{Email: email, DisplayName: saved.DisplayName, MasterKey: masterKey}, nil
}

// OnlineLogin authenticates against the server and caches what OfflineLogin
// needs.
func (a *authService) OnlineLogin(ctx context.Context, email string, password []byte) (*Session, error) {
	email = common.NormalizeEmail(email)

	salt, err := a.client.GetSalt(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get salt error: %w", err)
	}

	masterKey := cryptox.DeriveMasterKey(password, salt)
	verifier := cryptox.MakeVerifier(masterKey)

	user, err := a.client.Login(ctx, email, verifier)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	offline := metadata.Login{Email: email, DisplayName: user.DisplayName, Salt: salt, Verifier: verifier}
	if err := a.saveOfflineData(ctx, offline); err != nil {
		return nil, fmt.Errorf("offline data saving error: %w", err)
	}
	return &Session{Email: email, DisplayName: user.DisplayName, MasterKey: masterKey}, nil
}

func (a *authService) saveOfflineData(ctx context.Context, l metadata.Login) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.SaveLogin(ctx, metadata.NewSQLiteRepository(tx), l)
	})
}

// Register creates the account. The password never leaves the machine: only
// a random salt and the verifier of the derived key are sent.
func (a *authService) Register(ctx context.Context, email, displayName string, password []byte) error {
	if len(password) == 0 {
		return common.InvalidArgument("password", "must not be empty")
	}

	salt := common.GenerateRandByteArray(32)
	key := cryptox.DeriveMasterKey(password, salt)
	defer common.WipeByteArray(key)

	return a.client.Register(ctx, common.NormalizeEmail(email), displayName, salt, cryptox.MakeVerifier(key))
}

func (a *authService) Ping(ctx context.Context) (time.Time, error) {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// ClearOfflineData wipes the cached login record.
func (a *authService) ClearOfflineData(ctx context.Context) error {
	return metadata.NewSQLiteRepository(a.db).Clear(ctx)
}
