// Package models holds the rows the capsule server persists that have no
// counterpart in the core packages.
package models

import (
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/friends"
)

type User struct {
	ID          string
	Email       string
	DisplayName string
	Salt        []byte
	Verifier    []byte
	CreatedAt   time.Time
}

// Connection is a friendship edge seen from one of its users, with the other
// user's identity resolved.
type Connection struct {
	Edge       friends.Edge
	OtherID    string
	OtherEmail string
	OtherName  string
}
