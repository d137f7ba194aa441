package invitations

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/invites"
)

type Repository interface {
	Insert(ctx context.Context, inv *invites.Invite) error
	// Latest returns the newest invite from inviterID to email, or
	// common.ErrorNotFound.
	Latest(ctx context.Context, inviterID, email string) (*invites.Invite, error)
	GetByToken(ctx context.Context, token string) (*invites.Invite, error)
	ListByInviter(ctx context.Context, inviterID string) ([]*invites.Invite, error)
	// Update writes status, message, expiry and acceptance if the stored
	// status is still prev.
	Update(ctx context.Context, inv *invites.Invite, prev invites.Status) error
}
