package grpc

import (
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/api"
	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/invites"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

func toUser(u *models.User) api.User {
	return api.User{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

func toCapsule(c *capsule.Capsule) api.Capsule {
	out := api.Capsule{
		ID:         c.ID,
		OwnerEmail: c.OwnerEmail,
		OwnerName:  c.OwnerName,
		Headline:   c.Headline,
		UnlockAt:   c.UnlockAt,
		CreatedAt:  c.CreatedAt,
		State:      string(c.State),
		Recipients: make([]api.Recipient, 0, len(c.Recipients)),
	}
	for _, r := range c.Recipients {
		out.Recipients = append(out.Recipients, api.Recipient{
			Email:          r.Email,
			DisplayName:    r.DisplayName,
			NotifyOnCreate: r.NotifyOnCreate,
			NotifyOnUnlock: r.NotifyOnUnlock,
			Delivery:       string(r.Delivery),
			OpenedAt:       r.OpenedAt,
		})
	}
	return out
}

func toCapsules(list []*models.StoredCapsule) []api.Capsule {
	out := make([]api.Capsule, 0, len(list))
	for _, sc := range list {
		out = append(out, toCapsule(&sc.Capsule))
	}
	return out
}

func toFriends(conns []models.Connection) []api.Friend {
	out := make([]api.Friend, 0, len(conns))
	for _, c := range conns {
		out = append(out, api.Friend{
			UserID:      c.OtherID,
			Email:       c.OtherEmail,
			DisplayName: c.OtherName,
			Status:      string(c.Edge.Status),
			Since:       c.Edge.UpdatedAt,
		})
	}
	return out
}

// toInvite reports the status as observed at now. The token is included
// only for the inviter.
func toInvite(inv *invites.Invite, now time.Time, withToken bool) api.Invite {
	out := api.Invite{
		ID:         inv.ID,
		Email:      inv.InviteeEmail,
		Message:    inv.Message,
		Status:     string(inv.EffectiveStatus(now)),
		CreatedAt:  inv.CreatedAt,
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
	}
	if withToken {
		out.Token = inv.Token
	}
	return out
}
