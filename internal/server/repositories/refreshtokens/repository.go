package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

// Repository keeps the refresh tokens handed out to members. A token is
// redeemable once: Consume removes it in the same statement that reads it.
type Repository interface {
	// Issue stores t and fills in its ID and CreatedAt.
	Issue(ctx context.Context, t *models.RefreshToken) error

	// Consume deletes the token and returns what was stored. An unknown or
	// already consumed token yields common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)
}
