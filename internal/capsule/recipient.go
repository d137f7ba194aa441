package capsule

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
)

// DeliveryStatus is owned by the notification subsystem; the capsule only
// stores it.
type DeliveryStatus string

const (
	DeliveryNone      DeliveryStatus = "none"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryNone, DeliverySent, DeliveryDelivered, DeliveryFailed:
		return true
	}
	return false
}

// ParseDeliveryStatus converts a stored value into a DeliveryStatus.
func ParseDeliveryStatus(v string) (DeliveryStatus, error) {
	s := DeliveryStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown delivery status %q", v)
	}
	return s, nil
}

// RecipientSpec describes a recipient to add. UserID is empty when the address
// does not belong to a registered user yet. Every recipient is told when the
// capsule unlocks unless MuteOnUnlock is set; the creation notice is opt-in.
type RecipientSpec struct {
	Email          string
	UserID         string
	DisplayName    string
	NotifyOnCreate bool
	MuteOnUnlock   bool
}

// Recipient is the per-recipient record of a capsule.
type Recipient struct {
	CapsuleID      string
	Email          string
	UserID         string
	DisplayName    string
	NotifyOnCreate bool
	NotifyOnUnlock bool
	Delivery       DeliveryStatus
	// OpenedAt is set once, on the recipient's first successful open.
	OpenedAt  *time.Time
	CreatedAt time.Time
}

// Opened reports whether the recipient has opened the capsule.
func (r *Recipient) Opened() bool {
	return r.OpenedAt != nil
}

// DisplayIdentifier is the display name when known, the address otherwise.
func (r *Recipient) DisplayIdentifier() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Email
}

// NotificationPolicy returns the notification flags every recipient of a
// capsule gets. In surprise mode recipients hear about the capsule only when
// it unlocks; otherwise they are told at creation and again at unlock.
func NotificationPolicy(surprise bool) (notifyOnCreate, notifyOnUnlock bool) {
	return !surprise, true
}

// AddRecipient appends a recipient with delivery status none. Addresses are
// compared case-insensitively; a repeat is rejected with
// common.ErrDuplicateRecipient.
func (c *Capsule) AddRecipient(spec RecipientSpec, now time.Time) (*Recipient, error) {
	email := common.NormalizeEmail(spec.Email)
	if email == "" {
		return nil, common.InvalidArgument("recipient_email", "required")
	}
	if _, ok := c.Recipient(email); ok {
		return nil, fmt.Errorf("%w: %s", common.ErrDuplicateRecipient, email)
	}

	c.Recipients = append(c.Recipients, Recipient{
		CapsuleID:      c.ID,
		Email:          email,
		UserID:         spec.UserID,
		DisplayName:    spec.DisplayName,
		NotifyOnCreate: spec.NotifyOnCreate,
		NotifyOnUnlock: !spec.MuteOnUnlock,
		Delivery:       DeliveryNone,
		CreatedAt:      now.UTC(),
	})
	return &c.Recipients[len(c.Recipients)-1], nil
}

// Recipient returns the record for email, if any.
func (c *Capsule) Recipient(email string) (*Recipient, bool) {
	email = common.NormalizeEmail(email)
	for i := range c.Recipients {
		if c.Recipients[i].Email == email {
			return &c.Recipients[i], true
		}
	}
	return nil, false
}

// RecordOpened stores the first open of the capsule by one recipient. Later
// calls leave the original instant in place. The result reports whether the
// record changed.
func (c *Capsule) RecordOpened(email string, at time.Time) (bool, error) {
	r, ok := c.Recipient(email)
	if !ok {
		return false, fmt.Errorf("recipient %s: %w", email, common.ErrorNotFound)
	}
	if r.OpenedAt != nil {
		return false, nil
	}
	t := at.UTC()
	r.OpenedAt = &t
	return true, nil
}

// SetDelivery records the notification outcome for one recipient.
func (c *Capsule) SetDelivery(email string, status DeliveryStatus) error {
	if !status.Valid() {
		return common.InvalidArgument("delivery_status", string(status))
	}
	r, ok := c.Recipient(email)
	if !ok {
		return fmt.Errorf("recipient %s: %w", email, common.ErrorNotFound)
	}
	r.Delivery = status
	return nil
}

// OpenedBy reports whether the given recipient opened the capsule. The
// owner's view of "opened" is per recipient, not derived from list order.
func (c *Capsule) OpenedBy(email string) bool {
	r, ok := c.Recipient(email)
	return ok && r.Opened()
}

// DueOnCreate lists recipients that must be told about the capsule now.
func (c *Capsule) DueOnCreate() []Recipient {
	var out []Recipient
	for _, r := range c.Recipients {
		if r.NotifyOnCreate && r.Delivery == DeliveryNone {
			out = append(out, r)
		}
	}
	return out
}

// DueOnUnlock lists recipients owed an unlock notification at now. Nothing is
// due before the unlock instant.
func (c *Capsule) DueOnUnlock(now time.Time) []Recipient {
	if !c.IsOpenable(now) {
		return nil
	}
	var out []Recipient
	for _, r := range c.Recipients {
		if r.NotifyOnUnlock && r.Delivery != DeliveryDelivered {
			out = append(out, r)
		}
	}
	return out
}
