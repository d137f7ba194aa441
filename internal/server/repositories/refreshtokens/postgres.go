// Package refreshtokens stores issued refresh tokens in PostgreSQL.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

const (
	issueToken = `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	consumeToken = `
		DELETE FROM refresh_tokens
		WHERE token = $1
		RETURNING id, user_id, expires_at, created_at
	`
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Issue(ctx context.Context, t *models.RefreshToken) error {
	t.Expires = t.Expires.UTC()
	err := r.db.QueryRowContext(ctx, issueToken, t.UserID, t.Token, t.Expires).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("issue refresh token: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	t := &models.RefreshToken{Token: token}
	err := r.db.QueryRowContext(ctx, consumeToken, token).Scan(&t.ID, &t.UserID, &t.Expires, &t.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, common.ErrorNotFound
	case err != nil:
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	return t, nil
}
