package friendships

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

type Repository interface {
	// Get returns the edge for the unordered pair, or common.ErrorNotFound.
	Get(ctx context.Context, a, b string) (*friends.Edge, error)
	// Insert stores a new edge. A concurrent insert for the same pair yields
	// common.ErrAlreadyExists.
	Insert(ctx context.Context, e *friends.Edge) error
	// Update replaces the edge if its stored status is still prev.
	Update(ctx context.Context, e *friends.Edge, prev friends.Status) error
	// ListForUser returns every edge touching userID.
	ListForUser(ctx context.Context, userID string) ([]models.Connection, error)
}
