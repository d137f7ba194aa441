package capsules

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

// Repository persists capsules and their recipient rows. Every state change
// is a conditional update; a lost race surfaces as common.ErrVersionConflict.
type Repository interface {
	// Insert writes the capsule row followed by its recipients in order.
	Insert(ctx context.Context, c *models.StoredCapsule) error
	// Get loads a capsule with its recipients, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.StoredCapsule, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.StoredCapsule, error)
	ListByRecipient(ctx context.Context, email string) ([]*models.StoredCapsule, error)

	SetDelivery(ctx context.Context, capsuleID, email string, status capsule.DeliveryStatus) error
	// RecordOpened sets opened_at only if it is still empty.
	RecordOpened(ctx context.Context, capsuleID, email string, at time.Time) error
	// MarkOpened moves a sealed capsule to opened.
	MarkOpened(ctx context.Context, capsuleID string, at time.Time) error

	// DueForUnlock returns up to limit capsule ids whose unlock instant is at
	// or before now and that have not been swept.
	DueForUnlock(ctx context.Context, now time.Time, limit int) ([]string, error)
	// ClaimUnlock marks the capsule swept. Only one caller can claim it.
	ClaimUnlock(ctx context.Context, capsuleID string, at time.Time) error
}
