// Package friendships stores the friend graph in PostgreSQL, one row per
// unordered pair of users.
package friendships

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/friends"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, a, b string) (*friends.Edge, error) {
	query := `
		SELECT requester_id, addressee_id, status, blocked_by, created_at, updated_at
		FROM friendships
		WHERE pair_key = $1
	`
	var (
		e         friends.Edge
		status    string
		blockedBy sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, friends.PairKey(a, b)).
		Scan(&e.RequesterID, &e.AddresseeID, &status, &blockedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if e.Status, err = friends.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	e.BlockedBy = blockedBy.String
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, e *friends.Edge) error {
	query := `
		INSERT INTO friendships (pair_key, requester_id, addressee_id, status, blocked_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		friends.PairKey(e.RequesterID, e.AddresseeID), e.RequesterID, e.AddresseeID,
		string(e.Status), nullString(e.BlockedBy), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *friends.Edge, prev friends.Status) error {
	query := `
		UPDATE friendships
		SET requester_id = $2, addressee_id = $3, status = $4, blocked_by = $5, updated_at = $6
		WHERE pair_key = $1 AND status = $7
	`
	return dbx.ExpectAffected(r.db.ExecContext(ctx, query,
		friends.PairKey(e.RequesterID, e.AddresseeID), e.RequesterID, e.AddresseeID,
		string(e.Status), nullString(e.BlockedBy), e.UpdatedAt, string(prev)))
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.Connection, error) {
	query := `
		SELECT f.requester_id, f.addressee_id, f.status, f.blocked_by, f.created_at, f.updated_at,
			u.id, u.email, u.display_name
		FROM friendships f
		JOIN users u ON u.id = CASE
			WHEN f.requester_id = $1 THEN f.addressee_id
			ELSE f.requester_id
		END
		WHERE f.requester_id = $1 OR f.addressee_id = $1
		ORDER BY f.updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Connection
	for rows.Next() {
		var (
			c         models.Connection
			status    string
			blockedBy sql.NullString
		)
		if err := rows.Scan(&c.Edge.RequesterID, &c.Edge.AddresseeID, &status, &blockedBy,
			&c.Edge.CreatedAt, &c.Edge.UpdatedAt, &c.OtherID, &c.OtherEmail, &c.OtherName); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if c.Edge.Status, err = friends.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		c.Edge.BlockedBy = blockedBy.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
