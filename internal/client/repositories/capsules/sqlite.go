// Package capsules stores the last known capsule listings in the local
// SQLite cache so the CLI can show them while the server is unreachable.
// Only summaries are cached; ciphertext is always fetched from the server.
package capsules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/client/models"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Replace is not atomic on its own; run it inside dbx.WithTx.
func (r *SQLiteRepository) Replace(ctx context.Context, box models.Box, list []models.Capsule, syncedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM capsules WHERE box = ?`, string(box)); err != nil {
		return fmt.Errorf("failed to clear %s capsules: %w", box, err)
	}

	query := `INSERT INTO capsules (id, box, owner_email, owner_name, headline, unlock_at, created_at, state, recipients, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, c := range list {
		recipients, err := json.Marshal(c.Recipients)
		if err != nil {
			return fmt.Errorf("failed to encode recipients of %s: %w", c.ID, err)
		}
		_, err = r.db.ExecContext(ctx, query,
			c.ID, string(box), c.OwnerEmail, c.OwnerName, c.Headline,
			c.UnlockAt.UnixMilli(), c.CreatedAt.UnixMilli(), c.State,
			string(recipients), syncedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert capsule %s: %w", c.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, box models.Box) ([]models.Capsule, time.Time, error) {
	query := `SELECT id, owner_email, owner_name, headline, unlock_at, created_at, state, recipients, synced_at
		FROM capsules WHERE box = ? ORDER BY unlock_at, id`

	rows, err := r.db.QueryContext(ctx, query, string(box))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to select %s capsules: %w", box, err)
	}
	defer rows.Close()

	var (
		result   []models.Capsule
		syncedAt time.Time
	)
	for rows.Next() {
		var (
			c                           models.Capsule
			unlockAt, createdAt, synced int64
			recipients                  string
		)
		if err := rows.Scan(&c.ID, &c.OwnerEmail, &c.OwnerName, &c.Headline,
			&unlockAt, &createdAt, &c.State, &recipients, &synced); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to scan capsule row: %w", err)
		}
		if err := json.Unmarshal([]byte(recipients), &c.Recipients); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to decode recipients of %s: %w", c.ID, err)
		}
		c.UnlockAt = time.UnixMilli(unlockAt).UTC()
		c.CreatedAt = time.UnixMilli(createdAt).UTC()
		syncedAt = time.UnixMilli(synced).UTC()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to iterate capsule rows: %w", err)
	}

	return result, syncedAt, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM capsules`); err != nil {
		return fmt.Errorf("failed to clear capsules: %w", err)
	}
	return nil
}
