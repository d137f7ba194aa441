// Package metadata keeps the offline login record (email, salt, verifier)
// in the client cache.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/timecapsule/internal/dbx"
)

const (
	selectValue = `SELECT value FROM metadata WHERE key = ?`
	selectAll   = `SELECT key, value FROM metadata ORDER BY key`
	upsertValue = `INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`
	deleteKey   = `DELETE FROM metadata WHERE key = ?`
	deleteAll   = `DELETE FROM metadata`
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	switch err := r.db.QueryRowContext(ctx, selectValue, key).Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("metadata get %q: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.exec(ctx, fmt.Sprintf("metadata set %q", key), upsertValue, key, value)
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	return r.exec(ctx, fmt.Sprintf("metadata delete %q", key), deleteKey, key)
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	return r.exec(ctx, "metadata clear", deleteAll)
}

func (r *SQLiteRepository) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("metadata list: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("metadata list scan: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata list: %w", err)
	}
	return out, nil
}
