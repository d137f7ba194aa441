package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/client/client"
	"github.com/dmitrijs2005/timecapsule/internal/client/models"
	"github.com/dmitrijs2005/timecapsule/internal/client/repositories/capsules"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/cryptox"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
)

// ComposeInput is what the user typed for a new capsule.
type ComposeInput struct {
	OwnerEmail   string
	Headline     string
	Message      string
	UnlockAt     time.Time
	Recipients   []string
	Surprise     bool
	Passphrase   string
	Confirmation string
}

// CapsuleService composes, lists and opens capsules.
//
// Whether a capsule may be opened is always decided by the server. The local
// clock is only used to reject obviously wrong input early and to label
// cached listings.
type CapsuleService interface {
	Compose(ctx context.Context, in ComposeInput) (*models.Capsule, error)
	Open(ctx context.Context, capsuleID, passphrase string) (*models.Opened, error)
	ListSent(ctx context.Context) (*models.Listing, error)
	ListReceived(ctx context.Context) (*models.Listing, error)
	ClearCache(ctx context.Context) error
}

type capsuleService struct {
	client client.Client
	db     *sql.DB
	engine *cryptox.Engine
	logger logging.Logger
	now    func() time.Time
}

func NewCapsuleService(c client.Client, db *sql.DB, logger logging.Logger) CapsuleService {
	return &capsuleService{
		client: c,
		db:     db,
		engine: cryptox.NewEngine(),
		logger: logger.With("module", "capsules"),
		now:    time.Now,
	}
}

// CheckPassphrase applies the passphrase rules: non-empty, at least
// common.MinPassphraseLength characters, and typed the same way twice.
func CheckPassphrase(passphrase, confirmation string) error {
	if passphrase == "" {
		return common.InvalidArgument("passphrase", "must not be empty")
	}
	if utf8.RuneCountInString(passphrase) < common.MinPassphraseLength {
		return common.InvalidArgument("passphrase", fmt.Sprintf("must be at least %d characters", common.MinPassphraseLength))
	}
	if passphrase != confirmation {
		return common.InvalidArgument("passphrase", "confirmation does not match")
	}
	return nil
}

// Compose encrypts the message locally and sends only the sealed bundle.
// The ciphertext is bound to the owner and the unlock instant.
func (s *capsuleService) Compose(ctx context.Context, in ComposeInput) (*models.Capsule, error) {
	if err := CheckPassphrase(in.Passphrase, in.Confirmation); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, common.InvalidArgument("message", "must not be empty")
	}

	// The server keeps millisecond precision in the bound context.
	unlockAt := in.UnlockAt.UTC().Truncate(time.Millisecond)
	if !unlockAt.After(s.now()) {
		return nil, common.InvalidArgument("unlock_at", "must be in the future")
	}

	var recipients []string
	for _, r := range in.Recipients {
		if r = common.NormalizeEmail(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	if len(recipients) == 0 {
		return nil, common.InvalidArgument("recipients", "at least one is required")
	}

	owner := common.NormalizeEmail(in.OwnerEmail)
	sealed, err := s.engine.Encrypt([]byte(in.Message), in.Passphrase, cryptox.UnlockContext(owner, unlockAt))
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	created, err := s.client.CreateCapsule(ctx, &api.CreateCapsuleRequest{
		Headline:   strings.TrimSpace(in.Headline),
		UnlockAt:   unlockAt,
		Recipients: recipients,
		Surprise:   in.Surprise,
		Ciphertext: sealed.Ciphertext,
		IV:         sealed.IV,
		Salt:       sealed.Salt,
	})
	if err != nil {
		return nil, err
	}

	c := toCapsule(*created)
	return &c, nil
}

// Open fetches the sealed bundle and decrypts it. Before the unlock instant
// the server refuses with common.ErrNotYet; a wrong passphrase surfaces as
// common.ErrAuthenticationFailure. A successful open is reported back so the
// capsule is recorded as opened.
func (s *capsuleService) Open(ctx context.Context, capsuleID, passphrase string) (*models.Opened, error) {
	capsuleID = strings.TrimSpace(capsuleID)
	if capsuleID == "" {
		return nil, common.InvalidArgument("capsule_id", "required")
	}
	if passphrase == "" {
		return nil, common.InvalidArgument("passphrase", "must not be empty")
	}

	bundle, err := s.client.OpenCapsule(ctx, capsuleID)
	if err != nil {
		return nil, err
	}

	// The context is rebuilt from the summary rather than trusted verbatim.
	aad := cryptox.UnlockContext(bundle.Capsule.OwnerEmail, bundle.Capsule.UnlockAt)
	plaintext, err := s.engine.Decrypt(&cryptox.Sealed{
		Ciphertext: bundle.Ciphertext,
		IV:         bundle.IV,
		Salt:       bundle.Salt,
	}, passphrase, aad)
	if err != nil {
		return nil, err
	}

	if err := s.client.MarkOpened(ctx, capsuleID); err != nil {
		s.logger.Warn(ctx, "mark opened failed", "capsule_id", capsuleID, "error", err)
	}

	return &models.Opened{Capsule: toCapsule(bundle.Capsule), Plaintext: plaintext}, nil
}

func (s *capsuleService) ListSent(ctx context.Context) (*models.Listing, error) {
	return s.list(ctx, models.BoxSent, s.client.ListSent)
}

func (s *capsuleService) ListReceived(ctx context.Context) (*models.Listing, error) {
	return s.list(ctx, models.BoxReceived, s.client.ListReceived)
}

// list asks the server and refreshes the cache. When the server is
// unreachable it falls back to the cached box.
func (s *capsuleService) list(ctx context.Context, box models.Box, fetch func(context.Context) (*api.ListCapsulesResponse, error)) (*models.Listing, error) {
	resp, err := fetch(ctx)
	if err == nil {
		serverTime := resp.ServerTime
		if serverTime.IsZero() {
			serverTime = s.now()
		}
		list := make([]models.Capsule, 0, len(resp.Capsules))
		for _, c := range resp.Capsules {
			list = append(list, toCapsule(c))
		}

		cerr := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return capsules.NewSQLiteRepository(tx).Replace(ctx, box, list, serverTime)
		})
		if cerr != nil {
			s.logger.Warn(ctx, "cache update failed", "box", box, "error", cerr)
		}
		return &models.Listing{Capsules: list, ServerTime: serverTime, SyncedAt: serverTime}, nil
	}

	if !errors.Is(err, client.ErrUnavailable) {
		return nil, err
	}

	cached, syncedAt, cerr := capsules.NewSQLiteRepository(s.db).List(ctx, box)
	if cerr != nil {
		return nil, fmt.Errorf("error reading cache: %w", cerr)
	}
	return &models.Listing{Capsules: cached, ServerTime: s.now(), Cached: true, SyncedAt: syncedAt}, nil
}

func (s *capsuleService) ClearCache(ctx context.Context) error {
	return capsules.NewSQLiteRepository(s.db).Clear(ctx)
}

func toCapsule(c api.Capsule) models.Capsule {
	out := models.Capsule{
		ID:         c.ID,
		OwnerEmail: c.OwnerEmail,
		OwnerName:  c.OwnerName,
		Headline:   c.Headline,
		UnlockAt:   c.UnlockAt,
		CreatedAt:  c.CreatedAt,
		State:      c.State,
		Recipients: make([]models.Recipient, 0, len(c.Recipients)),
	}
	for _, r := range c.Recipients {
		out.Recipients = append(out.Recipients, models.Recipient{
			Email:       r.Email,
			DisplayName: r.DisplayName,
			Delivery:    r.Delivery,
			OpenedAt:    r.OpenedAt,
		})
	}
	return out
}
