// Package capsule models a time-locked capsule: its identity, sealed payload,
// unlock instant, lifecycle state and the per-recipient delivery records.
//
// Everything here is a pure computation over in-memory values. Callers supply
// "now" explicitly. IsOpenable is advisory; only the authority service decides
// whether a capsule's ciphertext is released.
package capsule

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/cryptox"
	"github.com/google/uuid"
)

// State is the lifecycle state of a capsule.
type State string

const (
	StateSealed State = "sealed"
	StateOpened State = "opened"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	return s == StateSealed || s == StateOpened
}

// ParseState converts a stored value into a State.
func ParseState(v string) (State, error) {
	s := State(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown capsule state %q", v)
	}
	return s, nil
}

// Capsule is a sealed message with an unlock instant.
//
// Sealed and UnlockAt never change after New returns. The only mutations are
// the sealed -> opened transition and updates to recipient delivery records.
type Capsule struct {
	ID         string
	OwnerID    string
	OwnerEmail string
	OwnerName  string
	Headline   string
	UnlockAt   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	State      State
	Sealed     cryptox.Sealed
	Recipients []Recipient
}

// NewParams carries the inputs to New.
type NewParams struct {
	OwnerID    string
	OwnerEmail string
	OwnerName  string
	Headline   string
	UnlockAt   time.Time
	Recipients []RecipientSpec
	// Surprise hides the capsule from recipients until it unlocks.
	Surprise bool
	Sealed   *cryptox.Sealed
}

// New creates a sealed capsule. The unlock instant must be strictly after now;
// a capsule that is already openable at creation is a programming error and is
// rejected with common.ErrInvalidArgument.
func New(p NewParams, now time.Time) (*Capsule, error) {
	if strings.TrimSpace(p.OwnerID) == "" {
		return nil, common.InvalidArgument("owner_id", "required")
	}
	if strings.TrimSpace(p.OwnerEmail) == "" {
		return nil, common.InvalidArgument("owner_email", "required")
	}
	if !p.UnlockAt.After(now) {
		return nil, common.InvalidArgument("unlock_at", "must be in the future")
	}
	if p.Sealed == nil || len(p.Sealed.Ciphertext) == 0 ||
		len(p.Sealed.IV) != cryptox.NonceSize || len(p.Sealed.Salt) != cryptox.SaltSize {
		return nil, common.InvalidArgument("sealed", "ciphertext, iv and salt are required")
	}

	now = now.UTC()
	c := &Capsule{
		ID:         uuid.NewString(),
		OwnerID:    p.OwnerID,
		OwnerEmail: common.NormalizeEmail(p.OwnerEmail),
		OwnerName:  p.OwnerName,
		Headline:   strings.TrimSpace(p.Headline),
		UnlockAt:   p.UnlockAt.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
		State:      StateSealed,
		Sealed:     *p.Sealed,
	}

	onCreate, onUnlock := NotificationPolicy(p.Surprise)
	for _, r := range p.Recipients {
		r.NotifyOnCreate = onCreate
		r.MuteOnUnlock = !onUnlock
		if _, err := c.AddRecipient(r, now); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// UnlockContext returns the associated data the payload was sealed with.
func (c *Capsule) UnlockContext() string {
	return cryptox.UnlockContext(c.OwnerEmail, c.UnlockAt)
}

// IsOpenable reports whether now is at or past the unlock instant.
//
// The result is advisory. It is fine for labelling a capsule "ready" in a
// listing, but it must never stand in for the authority service's answer
// when deciding whether to decrypt.
func (c *Capsule) IsOpenable(now time.Time) bool {
	return !now.Before(c.UnlockAt)
}

// MarkOpened moves a sealed capsule to opened. It is idempotent: calling it on
// an opened capsule changes nothing. The return value reports whether a
// transition took place.
func (c *Capsule) MarkOpened(now time.Time) bool {
	if c.State == StateOpened {
		return false
	}
	c.State = StateOpened
	c.UpdatedAt = now.UTC()
	return true
}

// TimeRemaining returns how long until the capsule unlocks, or zero.
func (c *Capsule) TimeRemaining(now time.Time) time.Duration {
	if c.IsOpenable(now) {
		return 0
	}
	return c.UnlockAt.Sub(now)
}

// FormatRemaining renders a duration as "2d 3h 5m", dropping leading zero
// units. Durations under a minute render as "less than a minute".
func FormatRemaining(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
