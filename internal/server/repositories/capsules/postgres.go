// Package capsules stores capsule metadata and recipient rows in PostgreSQL.
// Ciphertext is kept elsewhere and referenced by storage key.
package capsules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/capsule"
	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

const capsuleColumns = `id, owner_id, owner_email, owner_name, headline, unlock_at, state,
		storage_key, iv, salt, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, c *models.StoredCapsule) error {
	query := `
		INSERT INTO capsules (id, owner_id, owner_email, owner_name, headline, unlock_at, state,
			storage_key, iv, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.OwnerID, c.OwnerEmail, c.OwnerName, c.Headline, c.UnlockAt, string(c.State),
		c.StorageKey, c.Sealed.IV, c.Sealed.Salt, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	recipientQuery := `
		INSERT INTO capsule_recipients (capsule_id, position, email, user_id, display_name,
			notify_on_create, notify_on_unlock, delivery_status, opened_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for i, rc := range c.Recipients {
		_, err := r.db.ExecContext(ctx, recipientQuery,
			c.ID, i, rc.Email, nullString(rc.UserID), rc.DisplayName,
			rc.NotifyOnCreate, rc.NotifyOnUnlock, string(rc.Delivery), nullTime(rc.OpenedAt), rc.CreatedAt)
		if err != nil {
			if dbx.IsUniqueViolation(err) {
				return fmt.Errorf("%w: %s", common.ErrDuplicateRecipient, rc.Email)
			}
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.StoredCapsule, error) {
	query := `SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE id = $1
	`
	c, err := scanCapsule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := r.loadRecipients(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.StoredCapsule, error) {
	query := `SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE owner_id = $1
		ORDER BY unlock_at, created_at
	`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresRepository) ListByRecipient(ctx context.Context, email string) ([]*models.StoredCapsule, error) {
	query := `SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE id IN (SELECT capsule_id FROM capsule_recipients WHERE email = $1)
		ORDER BY unlock_at, created_at
	`
	return r.list(ctx, query, email)
}

// list reads all capsule rows before loading recipients; a connection inside a
// transaction cannot serve a second query while rows are open.
func (r *PostgresRepository) list(ctx context.Context, query string, arg any) ([]*models.StoredCapsule, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var out []*models.StoredCapsule
	for rows.Next() {
		c, err := scanCapsule(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("db error: %w", err)
	}
	_ = rows.Close()

	for _, c := range out {
		if err := r.loadRecipients(ctx, c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresRepository) loadRecipients(ctx context.Context, c *models.StoredCapsule) error {
	query := `
		SELECT email, user_id, display_name, notify_on_create, notify_on_unlock,
			delivery_status, opened_at, created_at
		FROM capsule_recipients
		WHERE capsule_id = $1
		ORDER BY position
	`
	rows, err := r.db.QueryContext(ctx, query, c.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	c.Recipients = nil
	for rows.Next() {
		var (
			rc       capsule.Recipient
			userID   sql.NullString
			delivery string
			openedAt sql.NullTime
		)
		if err := rows.Scan(&rc.Email, &userID, &rc.DisplayName, &rc.NotifyOnCreate, &rc.NotifyOnUnlock,
			&delivery, &openedAt, &rc.CreatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if rc.Delivery, err = capsule.ParseDeliveryStatus(delivery); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		rc.CapsuleID = c.ID
		rc.UserID = userID.String
		if openedAt.Valid {
			t := openedAt.Time.UTC()
			rc.OpenedAt = &t
		}
		c.Recipients = append(c.Recipients, rc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetDelivery(ctx context.Context, capsuleID, email string, status capsule.DeliveryStatus) error {
	if !status.Valid() {
		return common.InvalidArgument("delivery_status", string(status))
	}
	query := `
		UPDATE capsule_recipients SET delivery_status = $3
		WHERE capsule_id = $1 AND email = $2
	`
	err := dbx.ExpectAffected(r.db.ExecContext(ctx, query, capsuleID, email, string(status)))
	if errors.Is(err, common.ErrVersionConflict) {
		return common.ErrorNotFound
	}
	return err
}

func (r *PostgresRepository) RecordOpened(ctx context.Context, capsuleID, email string, at time.Time) error {
	query := `
		UPDATE capsule_recipients SET opened_at = $3
		WHERE capsule_id = $1 AND email = $2 AND opened_at IS NULL
	`
	return dbx.ExpectAffected(r.db.ExecContext(ctx, query, capsuleID, email, at.UTC()))
}

func (r *PostgresRepository) MarkOpened(ctx context.Context, capsuleID string, at time.Time) error {
	query := `
		UPDATE capsules SET state = 'opened', updated_at = $2
		WHERE id = $1 AND state = 'sealed'
	`
	return dbx.ExpectAffected(r.db.ExecContext(ctx, query, capsuleID, at.UTC()))
}

func (r *PostgresRepository) DueForUnlock(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
		SELECT id FROM capsules
		WHERE unlock_at <= $1 AND unlock_swept_at IS NULL
		ORDER BY unlock_at
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *PostgresRepository) ClaimUnlock(ctx context.Context, capsuleID string, at time.Time) error {
	query := `
		UPDATE capsules SET unlock_swept_at = $2
		WHERE id = $1 AND unlock_swept_at IS NULL
	`
	return dbx.ExpectAffected(r.db.ExecContext(ctx, query, capsuleID, at.UTC()))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCapsule(s scanner) (*models.StoredCapsule, error) {
	var (
		c     models.StoredCapsule
		state string
	)
	err := s.Scan(&c.ID, &c.OwnerID, &c.OwnerEmail, &c.OwnerName, &c.Headline, &c.UnlockAt, &state,
		&c.StorageKey, &c.Sealed.IV, &c.Sealed.Salt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.State, err = capsule.ParseState(state); err != nil {
		return nil, err
	}
	c.UnlockAt = c.UnlockAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
