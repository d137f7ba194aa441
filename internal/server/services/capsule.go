package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/cryptox"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/blobstore"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/ratelimit"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
)

// CreateInput is what a client submits when sealing a capsule. The payload
// is already encrypted under UnlockContext(owner email, UnlockAt).
type CreateInput struct {
	Headline   string
	UnlockAt   time.Time
	Recipients []string
	Surprise   bool
	Sealed     cryptox.Sealed
}

// OpenResult is the bundle released once a capsule is openable.
type OpenResult struct {
	Capsule *capsule.Capsule
	// Context is the associated data the payload was sealed with.
	Context string
}

// CapsuleService is the time authority. Every decision about whether a
// capsule is openable is taken here, against the server clock.
type CapsuleService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	limiter     ratelimit.Limiter
	delivery    *deliverer
	logger      logging.Logger

	// Now is the server clock.
	Now func() time.Time
}

func NewCapsuleService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store,
	limiter ratelimit.Limiter, notifier Notifier, logger logging.Logger) *CapsuleService {
	return &CapsuleService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		limiter:     limiter,
		delivery:    newDeliverer(db, m, notifier, logger),
		logger:      logger.With("module", "capsules"),
		Now:         time.Now,
	}
}

// Create seals a new capsule for ownerID. Recipient addresses that belong to
// registered users are linked to them; a recipient who blocked the owner, or
// was blocked by them, is refused.
func (s *CapsuleService) Create(ctx context.Context, ownerID string, in CreateInput) (*capsule.Capsule, error) {
	now := s.Now()

	owner, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error loading owner: %w", err)
	}
	if len(in.Recipients) == 0 {
		return nil, common.InvalidArgument("recipients", "at least one is required")
	}

	specs, err := s.resolveRecipients(ctx, owner, in.Recipients)
	if err != nil {
		return nil, err
	}

	sealed := in.Sealed
	c, err := capsule.New(capsule.NewParams{
		OwnerID:    owner.ID,
		OwnerEmail: owner.Email,
		OwnerName:  owner.DisplayName,
		Headline:   in.Headline,
		UnlockAt:   in.UnlockAt,
		Recipients: specs,
		Surprise:   in.Surprise,
		Sealed:     &sealed,
	}, now)
	if err != nil {
		return nil, err
	}

	stored := &models.StoredCapsule{Capsule: *c, StorageKey: blobstore.Key(c.ID)}
	if err := s.blobs.Put(ctx, stored.StorageKey, c.Sealed.Ciphertext); err != nil {
		return nil, fmt.Errorf("error storing ciphertext: %w", err)
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Capsules(tx).Insert(ctx, stored)
	}); err != nil {
		if delErr := s.blobs.Delete(ctx, stored.StorageKey); delErr != nil {
			s.logger.Warn(ctx, "orphaned ciphertext", "key", stored.StorageKey, "error", delErr)
		}
		return nil, fmt.Errorf("error saving capsule: %w", err)
	}

	s.logger.Info(ctx, "capsule sealed", "capsule_id", c.ID, "recipients", len(c.Recipients),
		"unlock_at", c.UnlockAt.Format(time.RFC3339))

	for _, r := range c.DueOnCreate() {
		status := s.delivery.deliver(ctx, c, r.Email, NotifyCapsuleCreated, capsule.DeliverySent)
		_ = c.SetDelivery(r.Email, status)
	}
	return c, nil
}

func (s *CapsuleService) resolveRecipients(ctx context.Context, owner *models.User, emails []string) ([]capsule.RecipientSpec, error) {
	users := s.repomanager.Users(s.db)
	edges := s.repomanager.Friendships(s.db)

	specs := make([]capsule.RecipientSpec, 0, len(emails))
	for _, raw := range emails {
		email := common.NormalizeEmail(raw)
		spec := capsule.RecipientSpec{Email: email}

		u, err := users.GetByEmail(ctx, email)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return nil, fmt.Errorf("error resolving recipient: %w", err)
		default:
			spec.UserID = u.ID
			spec.DisplayName = u.DisplayName
			if u.ID != owner.ID {
				e, err := edges.Get(ctx, owner.ID, u.ID)
				if err != nil && !errors.Is(err, common.ErrorNotFound) {
					return nil, fmt.Errorf("error checking relationship: %w", err)
				}
				if e != nil && e.Status == friends.StatusBlocked {
					return nil, fmt.Errorf("recipient %s: %w", email, common.ErrBlocked)
				}
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Open releases the sealed bundle to the owner or a recipient once the
// server clock reaches the unlock instant. Before that it returns a
// *common.NotYetError and no ciphertext, except to surprise recipients, who
// get common.ErrorNotFound as if the capsule did not exist.
func (s *CapsuleService) Open(ctx context.Context, userID, capsuleID string) (*OpenResult, error) {
	allowed, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, common.ErrRateLimited
	}

	now := s.Now()
	_, sc, err := s.loadForParticipant(ctx, userID, capsuleID, now)
	if err != nil {
		return nil, err
	}

	if !sc.IsOpenable(now) {
		return nil, &common.NotYetError{UnlockAt: sc.UnlockAt}
	}

	ciphertext, err := s.blobs.Get(ctx, sc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("error loading ciphertext: %w", err)
	}

	c := sc.Capsule
	c.Sealed.Ciphertext = ciphertext
	return &OpenResult{Capsule: &c, Context: c.UnlockContext()}, nil
}

// MarkOpened records that the caller decrypted the capsule. The first open by
// each recipient is kept; the capsule moves to opened on its first open by
// anyone. Repeated calls succeed without changing anything.
func (s *CapsuleService) MarkOpened(ctx context.Context, userID, capsuleID string) error {
	now := s.Now()
	user, sc, err := s.loadForParticipant(ctx, userID, capsuleID, now)
	if err != nil {
		return err
	}

	if !sc.IsOpenable(now) {
		return &common.NotYetError{UnlockAt: sc.UnlockAt}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Capsules(tx)
		if r, ok := sc.Recipient(user.Email); ok && !r.Opened() {
			if err := repo.RecordOpened(ctx, sc.ID, r.Email, now); err != nil &&
				!errors.Is(err, common.ErrVersionConflict) {
				return fmt.Errorf("error recording open: %w", err)
			}
		}
		if sc.MarkOpened(now) {
			if err := repo.MarkOpened(ctx, sc.ID, now); err != nil &&
				!errors.Is(err, common.ErrVersionConflict) {
				return fmt.Errorf("error marking capsule opened: %w", err)
			}
		}
		return nil
	})
}

// ListSent returns the owner's capsules without ciphertext.
func (s *CapsuleService) ListSent(ctx context.Context, ownerID string) ([]*models.StoredCapsule, error) {
	return s.repomanager.Capsules(s.db).ListByOwner(ctx, ownerID)
}

// ListReceived returns capsules addressed to the user. Surprise capsules stay
// hidden until they unlock. State is the viewer's own: opened only once this
// user has opened it, whatever the other recipients did.
func (s *CapsuleService) ListReceived(ctx context.Context, userID string) ([]*models.StoredCapsule, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	list, err := s.repomanager.Capsules(s.db).ListByRecipient(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	out := list[:0]
	for _, sc := range list {
		if hiddenFrom(sc, user.Email, now) {
			continue
		}
		sc.State = capsule.StateSealed
		if sc.OpenedBy(user.Email) {
			sc.State = capsule.StateOpened
		}
		out = append(out, sc)
	}
	return out, nil
}

func (s *CapsuleService) loadForParticipant(ctx context.Context, userID, capsuleID string, now time.Time) (*models.User, *models.StoredCapsule, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}
	sc, err := s.repomanager.Capsules(s.db).Get(ctx, capsuleID)
	if err != nil {
		return nil, nil, err
	}
	if sc.OwnerID != user.ID {
		if _, ok := sc.Recipient(user.Email); !ok {
			return nil, nil, common.ErrForbidden
		}
		if hiddenFrom(sc, user.Email, now) {
			return nil, nil, common.ErrorNotFound
		}
	}
	return user, sc, nil
}

// hiddenFrom reports whether a surprise capsule is still invisible to the
// recipient email at now.
func hiddenFrom(sc *models.StoredCapsule, email string, now time.Time) bool {
	r, ok := sc.Recipient(email)
	return ok && !r.NotifyOnCreate && !sc.IsOpenable(now)
}
