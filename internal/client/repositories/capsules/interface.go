package capsules

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/client/models"
)

// Repository caches capsule summaries per box for offline listing.
type Repository interface {
	// Replace swaps the whole content of box for list, stamped with syncedAt.
	Replace(ctx context.Context, box models.Box, list []models.Capsule, syncedAt time.Time) error
	// List returns the cached summaries of box ordered by unlock time, and
	// the time they were stored. An empty box yields a zero time.
	List(ctx context.Context, box models.Box) ([]models.Capsule, time.Time, error)
	Clear(ctx context.Context) error
}
