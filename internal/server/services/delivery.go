package services

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
)

// deliverer sends capsule notifications and stores each outcome on the
// recipient row.
type deliverer struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	logger      logging.Logger
}

func newDeliverer(db dbx.DBTX, m repomanager.RepositoryManager, n Notifier, logger logging.Logger) *deliverer {
	return &deliverer{db: db, repomanager: m, notifier: n, logger: logger.With("module", "delivery")}
}

// deliver notifies one recipient. On success the recipient gets status ok,
// otherwise failed.
func (d *deliverer) deliver(ctx context.Context, c *capsule.Capsule, email string,
	kind NotificationKind, ok capsule.DeliveryStatus) capsule.DeliveryStatus {
	status := ok
	if err := d.notifier.Notify(ctx, Notification{
		Kind:           kind,
		RecipientEmail: email,
		SenderEmail:    c.OwnerEmail,
		SenderName:     c.OwnerName,
		CapsuleID:      c.ID,
		Headline:       c.Headline,
		UnlockAt:       c.UnlockAt,
	}); err != nil {
		d.logger.Warn(ctx, "notification failed", "capsule_id", c.ID, "to", email, "error", err)
		status = capsule.DeliveryFailed
	}
	if err := d.repomanager.Capsules(d.db).SetDelivery(ctx, c.ID, email, status); err != nil {
		d.logger.Error(ctx, "error saving delivery status", "capsule_id", c.ID, "to", email, "error", err)
	}
	return status
}
