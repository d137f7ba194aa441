package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/invites"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
)

// InviteService invites people who are not members yet. Accepting an invite
// makes the inviter and the new member friends.
type InviteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	logger      logging.Logger
	ttl         time.Duration

	// Now is the server clock.
	Now func() time.Time
}

func NewInviteService(db *sql.DB, m repomanager.RepositoryManager, notifier Notifier,
	logger logging.Logger, ttl time.Duration) *InviteService {
	return &InviteService{
		db:          db,
		repomanager: m,
		notifier:    notifier,
		logger:      logger.With("module", "invites"),
		ttl:         ttl,
		Now:         time.Now,
	}
}

// Send invites email on behalf of inviterID. A still valid invite to the same
// address is resent with a fresh expiry instead of creating a second one.
// Addresses of existing members are rejected with common.ErrAlreadyExists.
func (s *InviteService) Send(ctx context.Context, inviterID, email, message string) (*invites.Invite, bool, error) {
	email = common.NormalizeEmail(email)

	inviter, err := s.repomanager.Users(s.db).GetByID(ctx, inviterID)
	if err != nil {
		return nil, false, fmt.Errorf("error loading inviter: %w", err)
	}
	if _, err := s.repomanager.Users(s.db).GetByEmail(ctx, email); err == nil {
		return nil, false, fmt.Errorf("%s is already a member: %w", email, common.ErrAlreadyExists)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, err
	}

	repo := s.repomanager.Invitations(s.db)
	latest, err := repo.Latest(ctx, inviterID, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, false, err
	}

	inv, resent, err := invites.Send(latest, inviterID, email, message, s.Now(), s.ttl)
	if err != nil {
		return nil, false, err
	}
	if resent {
		err = repo.Update(ctx, inv, latest.Status)
	} else {
		err = repo.Insert(ctx, inv)
	}
	if err != nil {
		return nil, false, fmt.Errorf("error saving invite: %w", err)
	}

	if err := s.notifier.Notify(ctx, Notification{
		Kind:           NotifyInvite,
		RecipientEmail: inv.InviteeEmail,
		SenderEmail:    inviter.Email,
		SenderName:     inviter.DisplayName,
		InviteToken:    inv.Token,
		Message:        inv.Message,
	}); err != nil {
		s.logger.Warn(ctx, "invite notification failed", "invite_id", inv.ID, "error", err)
	}
	return inv, resent, nil
}

// Accept redeems an invite token for userID and makes the inviter and the
// user friends. Only the invited address may redeem it; anyone else gets
// common.ErrForbidden. Expired or already used tokens yield common.ErrExpired.
func (s *InviteService) Accept(ctx context.Context, userID, token string) (*invites.Invite, error) {
	now := s.Now()

	inv, err := s.repomanager.Invitations(s.db).GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.InviterID == userID {
		return nil, common.InvalidArgument("token", "cannot accept your own invite")
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if common.NormalizeEmail(user.Email) != inv.InviteeEmail {
		return nil, common.ErrForbidden
	}

	prev := inv.Status
	if err := inv.Accept(now); err != nil {
		return nil, err
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := befriend(ctx, s.repomanager, tx, inv.InviterID, userID, now); err != nil {
			return err
		}
		if err := s.repomanager.Invitations(tx).Update(ctx, inv, prev); err != nil {
			if errors.Is(err, common.ErrVersionConflict) {
				return common.ErrExpired
			}
			return fmt.Errorf("error saving invite: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "invite accepted", "invite_id", inv.ID, "user_id", userID)
	return inv, nil
}

// befriend leaves inviter and invitee with an accepted edge, whatever state
// the pair was in before. A blocked pair stays blocked.
func befriend(ctx context.Context, m repomanager.RepositoryManager, tx dbx.DBTX, inviterID, inviteeID string, now time.Time) error {
	existing, err := loadEdge(ctx, m, tx, inviterID, inviteeID)
	if err != nil {
		return err
	}

	var next *friends.Edge
	switch {
	case existing == nil || existing.Status == friends.StatusDeclined:
		pending, err := friends.Request(existing, inviterID, inviteeID, now)
		if err != nil {
			return err
		}
		next, err = friends.Accept(pending, inviteeID, now)
		if err != nil {
			return err
		}
	case existing.Status == friends.StatusPending:
		next, err = friends.Accept(existing, existing.AddresseeID, now)
		if err != nil {
			return err
		}
	case existing.Status == friends.StatusAccepted:
		return nil
	default:
		return common.ErrBlocked
	}
	return saveEdge(ctx, m, tx, next, existing)
}

// List returns the invites sent by inviterID. Invites that expired since the
// last look have their stored status brought up to date.
func (s *InviteService) List(ctx context.Context, inviterID string) ([]*invites.Invite, error) {
	repo := s.repomanager.Invitations(s.db)
	list, err := repo.ListByInviter(ctx, inviterID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	for _, inv := range list {
		prev := inv.Status
		if !inv.MarkExpired(now) {
			continue
		}
		if err := repo.Update(ctx, inv, prev); err != nil && !errors.Is(err, common.ErrVersionConflict) {
			s.logger.Warn(ctx, "error expiring invite", "invite_id", inv.ID, "error", err)
		}
	}
	return list, nil
}
