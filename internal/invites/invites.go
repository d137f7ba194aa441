// Package invites implements invitations for people who are not members yet.
//
// Expiry is evaluated at read time: a sent invite past its ExpiresAt is
// invalid even while its stored status is still sent. MarkExpired exists for
// sweeps that want the stored status to catch up.
package invites

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/google/uuid"
)

// DefaultTTL is the expiry horizon used when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// tokenSize is the number of random bytes in an invite token.
const tokenSize = 24

type Status string

const (
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
)

func (s Status) Valid() bool {
	return s == StatusSent || s == StatusAccepted || s == StatusExpired
}

// ParseStatus converts a stored value into a Status.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown invite status %q", v)
	}
	return s, nil
}

type Invite struct {
	ID           string
	Token        string
	InviterID    string
	InviteeEmail string
	Message      string
	Status       Status
	CreatedAt    time.Time
	ExpiresAt    time.Time
	AcceptedAt   *time.Time
}

// Send creates an invite from inviterID to email. existing is the inviter's
// latest invite for the same address, or nil.
//
// If existing is still valid at now, it is resent instead: its expiry moves to
// now+ttl and resent is true. A non-empty message replaces the stored one.
func Send(existing *Invite, inviterID, email, message string, now time.Time, ttl time.Duration) (inv *Invite, resent bool, err error) {
	email = common.NormalizeEmail(email)
	if inviterID == "" {
		return nil, false, common.InvalidArgument("inviter_id", "required")
	}
	if !strings.Contains(email, "@") {
		return nil, false, common.InvalidArgument("email", "not an address")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now = now.UTC()
	message = strings.TrimSpace(message)

	if existing != nil && existing.InviterID == inviterID &&
		existing.InviteeEmail == email && existing.IsValid(now) {
		next := *existing
		next.ExpiresAt = now.Add(ttl)
		if message != "" {
			next.Message = message
		}
		return &next, true, nil
	}

	token, err := common.MakeRandHexString(tokenSize)
	if err != nil {
		return nil, false, fmt.Errorf("generate token: %w", err)
	}

	return &Invite{
		ID:           uuid.NewString(),
		Token:        token,
		InviterID:    inviterID,
		InviteeEmail: email,
		Message:      message,
		Status:       StatusSent,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}, false, nil
}

// IsValid reports whether the invite can still be accepted at now.
func (i *Invite) IsValid(now time.Time) bool {
	return i.Status == StatusSent && now.Before(i.ExpiresAt)
}

// Accept marks the invite accepted. An invite that is not valid at now,
// including one that was already accepted, fails with common.ErrExpired.
//
// Accepting does not create a friendship; the caller coordinates that.
func (i *Invite) Accept(now time.Time) error {
	if !i.IsValid(now) {
		return common.ErrExpired
	}
	t := now.UTC()
	i.Status = StatusAccepted
	i.AcceptedAt = &t
	return nil
}

// EffectiveStatus is the status as observed at now.
func (i *Invite) EffectiveStatus(now time.Time) Status {
	if i.Status == StatusSent && !now.Before(i.ExpiresAt) {
		return StatusExpired
	}
	return i.Status
}

// MarkExpired persists read-time expiry into Status. It reports whether the
// status changed.
func (i *Invite) MarkExpired(now time.Time) bool {
	if i.EffectiveStatus(now) == StatusExpired && i.Status != StatusExpired {
		i.Status = StatusExpired
		return true
	}
	return false
}
