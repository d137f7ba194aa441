// Package models defines the capsule views the CLI caches and prints.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/capsule"
)

// Box names a listing the client caches separately.
type Box string

const (
	BoxSent     Box = "sent"
	BoxReceived Box = "received"
)

type Recipient struct {
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name,omitempty"`
	Delivery    string     `json:"delivery"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
}

// Label prefers the display name over the address.
func (r Recipient) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Email
}

// Capsule is a capsule summary. It never carries ciphertext.
type Capsule struct {
	ID         string
	OwnerEmail string
	OwnerName  string
	Headline   string
	UnlockAt   time.Time
	CreatedAt  time.Time
	State      string
	Recipients []Recipient
}

// Ready reports whether the capsule looks openable at now. The server still
// has the final word.
func (c *Capsule) Ready(now time.Time) bool {
	return !now.Before(c.UnlockAt)
}

// Line renders a one-line summary for listings. now should be the server
// time reported with the listing when available.
func (c *Capsule) Line(now time.Time) string {
	status := "ready to open"
	if !c.Ready(now) {
		status = "unlocks in " + capsule.FormatRemaining(c.UnlockAt.Sub(now))
	}
	if c.State == string(capsule.StateOpened) {
		status = "opened"
	}

	from := c.OwnerEmail
	if c.OwnerName != "" {
		from = c.OwnerName
	}

	names := make([]string, 0, len(c.Recipients))
	for _, r := range c.Recipients {
		names = append(names, r.Label())
	}

	return fmt.Sprintf("%s  %q  from %s to %s  [%s, %s]",
		c.ID, c.Headline, from, strings.Join(names, ", "),
		c.UnlockAt.Local().Format("2006-01-02 15:04"), status)
}

// Listing is a list result. Cached is true when the server was unreachable
// and the entries come from the local cache as of SyncedAt.
type Listing struct {
	Capsules   []Capsule
	ServerTime time.Time
	Cached     bool
	SyncedAt   time.Time
}

// Opened is a decrypted capsule.
type Opened struct {
	Capsule   Capsule
	Plaintext []byte
}
