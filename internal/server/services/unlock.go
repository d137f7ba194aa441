package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
)

const (
	defaultSweepBatch    = 100
	defaultSweepInterval = 30 * time.Second
)

// UnlockDispatcher periodically finds capsules whose unlock instant has
// passed on the server clock and sends the unlock notifications. Each capsule
// is claimed once, so running several dispatchers does not notify twice.
type UnlockDispatcher struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	delivery    *deliverer
	logger      logging.Logger
	interval    time.Duration
	batch       int

	// Now is the server clock.
	Now func() time.Time
}

func NewUnlockDispatcher(db *sql.DB, m repomanager.RepositoryManager, notifier Notifier,
	logger logging.Logger, interval time.Duration) *UnlockDispatcher {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &UnlockDispatcher{
		db:          db,
		repomanager: m,
		delivery:    newDeliverer(db, m, notifier, logger),
		logger:      logger.With("module", "unlock"),
		interval:    interval,
		batch:       defaultSweepBatch,
		Now:         time.Now,
	}
}

// Run sweeps on every tick until ctx is cancelled.
func (d *UnlockDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "unlock dispatcher stopped")
			return
		case <-ticker.C:
			n, err := d.Sweep(ctx)
			if err != nil {
				d.logger.Error(ctx, "unlock sweep failed", "error", err)
				continue
			}
			if n > 0 {
				d.logger.Info(ctx, "unlock sweep", "capsules", n)
			}
		}
	}
}

// Sweep processes one batch of due capsules and returns how many it claimed.
func (d *UnlockDispatcher) Sweep(ctx context.Context) (int, error) {
	now := d.Now()
	repo := d.repomanager.Capsules(d.db)

	ids, err := repo.DueForUnlock(ctx, now, d.batch)
	if err != nil {
		return 0, fmt.Errorf("error listing due capsules: %w", err)
	}

	claimed := 0
	for _, id := range ids {
		// Load before claiming: a capsule that cannot be read stays unclaimed
		// and is retried on the next sweep.
		sc, err := repo.Get(ctx, id)
		if err != nil {
			d.logger.Error(ctx, "error loading due capsule", "capsule_id", id, "error", err)
			continue
		}

		if err := repo.ClaimUnlock(ctx, id, now); err != nil {
			if errors.Is(err, common.ErrVersionConflict) {
				continue
			}
			return claimed, fmt.Errorf("error claiming capsule %s: %w", id, err)
		}
		claimed++

		for _, r := range sc.DueOnUnlock(now) {
			d.delivery.deliver(ctx, &sc.Capsule, r.Email, NotifyCapsuleUnlocked, capsule.DeliveryDelivered)
		}
	}
	return claimed, nil
}
