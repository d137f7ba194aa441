// Package friends implements the friend-request state machine between two
// users. There is at most one Edge per unordered pair; the requester field only
// records who initiated it.
//
//	(none) -> pending -> accepted | declined
//	any    -> blocked (terminal)
//
// Transition functions never modify their input. They return the next edge so
// the caller can persist it with an update conditioned on the previous status.
package friends

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusBlocked  Status = "blocked"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusBlocked:
		return true
	}
	return false
}

// ParseStatus converts a stored value into a Status.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown friendship status %q", v)
	}
	return s, nil
}

// Edge is the relationship between two users.
type Edge struct {
	RequesterID string
	AddresseeID string
	Status      Status
	// BlockedBy is set when Status is blocked.
	BlockedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Involves reports whether userID is one of the two ends of the edge.
func (e *Edge) Involves(userID string) bool {
	return e.RequesterID == userID || e.AddresseeID == userID
}

// Other returns the end of the edge that is not userID.
func (e *Edge) Other(userID string) string {
	if e.RequesterID == userID {
		return e.AddresseeID
	}
	return e.RequesterID
}

func (e *Edge) connects(a, b string) bool {
	return e.Involves(a) && e.Involves(b)
}

// PairKey identifies the unordered pair {a, b}.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// Request creates a pending edge from requester to addressee. existing is the
// current edge for the pair, or nil.
//
// A declined edge may be re-requested by either side; the edge is reused with
// the new direction. Any pending or accepted edge yields common.ErrAlreadyExists
// and a blocked one yields common.ErrBlocked.
func Request(existing *Edge, requesterID, addresseeID string, now time.Time) (*Edge, error) {
	if requesterID == "" || addresseeID == "" {
		return nil, common.InvalidArgument("user_id", "required")
	}
	if requesterID == addresseeID {
		return nil, common.InvalidArgument("addressee", "cannot befriend yourself")
	}

	now = now.UTC()
	if existing == nil {
		return &Edge{
			RequesterID: requesterID,
			AddresseeID: addresseeID,
			Status:      StatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, nil
	}
	if !existing.connects(requesterID, addresseeID) {
		return nil, common.InvalidArgument("edge", "does not belong to this pair")
	}

	switch existing.Status {
	case StatusBlocked:
		return nil, common.ErrBlocked
	case StatusPending, StatusAccepted:
		return nil, common.ErrAlreadyExists
	}

	next := *existing
	next.RequesterID = requesterID
	next.AddresseeID = addresseeID
	next.Status = StatusPending
	next.UpdatedAt = now
	return &next, nil
}

// Accept moves a pending edge to accepted. Only the addressee may accept.
func Accept(edge *Edge, actorID string, now time.Time) (*Edge, error) {
	return respond(edge, actorID, StatusAccepted, now)
}

// Decline moves a pending edge to declined. Only the addressee may decline.
// A declined pair may be requested again.
func Decline(edge *Edge, actorID string, now time.Time) (*Edge, error) {
	return respond(edge, actorID, StatusDeclined, now)
}

func respond(edge *Edge, actorID string, to Status, now time.Time) (*Edge, error) {
	if edge == nil {
		return nil, common.ErrorNotFound
	}
	if edge.Status == StatusBlocked {
		return nil, common.ErrBlocked
	}
	if edge.AddresseeID != actorID {
		return nil, common.ErrForbidden
	}
	if edge.Status != StatusPending {
		return nil, fmt.Errorf("%w: %s -> %s", common.ErrInvalidState, edge.Status, to)
	}

	next := *edge
	next.Status = to
	next.UpdatedAt = now.UTC()
	return &next, nil
}

// Block marks the pair blocked by blockerID. It is valid from any state,
// including no edge at all. Blocking an already blocked pair returns the edge
// unchanged.
func Block(existing *Edge, blockerID, otherID string, now time.Time) (*Edge, error) {
	if blockerID == "" || otherID == "" {
		return nil, common.InvalidArgument("user_id", "required")
	}
	if blockerID == otherID {
		return nil, common.InvalidArgument("other", "cannot block yourself")
	}

	now = now.UTC()
	if existing == nil {
		return &Edge{
			RequesterID: blockerID,
			AddresseeID: otherID,
			Status:      StatusBlocked,
			BlockedBy:   blockerID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, nil
	}
	if !existing.connects(blockerID, otherID) {
		return nil, common.InvalidArgument("edge", "does not belong to this pair")
	}

	next := *existing
	if next.Status == StatusBlocked {
		return &next, nil
	}
	next.Status = StatusBlocked
	next.BlockedBy = blockerID
	next.UpdatedAt = now
	return &next, nil
}

// Eligible returns the users with an accepted edge to userID, in edge order.
// These are the users userID may address a capsule to.
func Eligible(edges []Edge, userID string) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range edges {
		e := &edges[i]
		if e.Status != StatusAccepted || !e.Involves(userID) {
			continue
		}
		other := e.Other(userID)
		if _, ok := seen[other]; ok {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	return out
}
