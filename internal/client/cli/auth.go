package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/timecapsule/internal/client/client"
	"github.com/dmitrijs2005/timecapsule/internal/common"
)

// getSimpleText, getMultiline and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getMultiline  = GetMultiline
	getPassword   = GetPassword
)

// Register prompts for an email, a display name and the account password
// (twice) and creates the account.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	displayName, err := getSimpleText(a.reader, "Enter display name (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out, "Repeat password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return common.InvalidArgument("password", "confirmation does not match")
	}

	if err := a.authService.Register(ctx, email, displayName, password); err != nil {
		return err
	}

	printlnFn("Success! You can login now.")
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
//
// The method first attempts an online login. If the server is unavailable
// it falls back to offline login against the cached verifier, which only
// allows reading cached listings. Mode ends up as:
//   - ModeOnline if online login succeeds,
//   - ModeOffline if offline login succeeds,
//   - ModeDisabled if both fail.
//
// The password is wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	session, err := a.authService.OnlineLogin(ctx, email, password)
	if err == nil {
		a.logger.Info(ctx, "online login", "email", session.Email)
		a.session = session
		a.setMode(ModeOnline)
		printlnFn("Login successful")
		return nil
	}
	if !errors.Is(err, client.ErrUnavailable) {
		return fmt.Errorf("login unsuccessful: %w", err)
	}

	printlnFn("Server unavailable, trying offline login...")
	session, err = a.authService.OfflineLogin(ctx, email, password)
	if err != nil {
		a.setMode(ModeDisabled)
		return fmt.Errorf("offline login unsuccessful: %w", err)
	}

	a.logger.Info(ctx, "offline login", "email", session.Email)
	a.session = session
	a.setMode(ModeOffline)
	printlnFn("Offline login successful; only cached listings are available")
	return nil
}

// Logout clears locally cached data and forgets the session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.ClearOfflineData(ctx); err != nil {
		return err
	}
	if err := a.capsuleService.ClearCache(ctx); err != nil {
		return err
	}
	if a.session != nil {
		common.WipeByteArray(a.session.MasterKey)
	}
	a.session = nil
	printlnFn("Logged out")
	return nil
}
