// Package invitations stores invitations for not-yet-registered people in
// PostgreSQL.
package invitations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/invites"
)

const inviteColumns = `id, token, inviter_id, invitee_email, message, status, created_at, expires_at, accepted_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, inv *invites.Invite) error {
	query := `
		INSERT INTO invites (` + inviteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.Token, inv.InviterID, inv.InviteeEmail, inv.Message, string(inv.Status),
		inv.CreatedAt, inv.ExpiresAt, nullTime(inv.AcceptedAt))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Latest(ctx context.Context, inviterID, email string) (*invites.Invite, error) {
	query := `SELECT ` + inviteColumns + `
		FROM invites
		WHERE inviter_id = $1 AND invitee_email = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.getOne(ctx, query, inviterID, email)
}

func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*invites.Invite, error) {
	query := `SELECT ` + inviteColumns + `
		FROM invites
		WHERE token = $1
	`
	return r.getOne(ctx, query, token)
}

func (r *PostgresRepository) ListByInviter(ctx context.Context, inviterID string) ([]*invites.Invite, error) {
	query := `SELECT ` + inviteColumns + `
		FROM invites
		WHERE inviter_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, inviterID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*invites.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, inv *invites.Invite, prev invites.Status) error {
	query := `
		UPDATE invites
		SET status = $2, message = $3, expires_at = $4, accepted_at = $5
		WHERE id = $1 AND status = $6
	`
	return dbx.ExpectAffected(r.db.ExecContext(ctx, query,
		inv.ID, string(inv.Status), inv.Message, inv.ExpiresAt, nullTime(inv.AcceptedAt), string(prev)))
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*invites.Invite, error) {
	inv, err := scanInvite(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvite(s scanner) (*invites.Invite, error) {
	var (
		inv        invites.Invite
		status     string
		acceptedAt sql.NullTime
	)
	err := s.Scan(&inv.ID, &inv.Token, &inv.InviterID, &inv.InviteeEmail, &inv.Message, &status,
		&inv.CreatedAt, &inv.ExpiresAt, &acceptedAt)
	if err != nil {
		return nil, err
	}
	if inv.Status, err = invites.ParseStatus(status); err != nil {
		return nil, err
	}
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.ExpiresAt = inv.ExpiresAt.UTC()
	if acceptedAt.Valid {
		t := acceptedAt.Time.UTC()
		inv.AcceptedAt = &t
	}
	return &inv, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
