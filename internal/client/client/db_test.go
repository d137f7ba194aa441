package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheTables(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestInitDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timecapsule.db")

	db, err := InitDatabase(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Subset(t, cacheTables(t, db), []string{"capsules", "goose_db_version", "metadata"})
	assert.FileExists(t, path)
}

func TestRunMigrations_SecondRunAppliesNothing(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	n, err := RunMigrations(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = RunMigrations(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestInitDatabase_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "timecapsule.db")

	_, err := InitDatabase(context.Background(), path)
	assert.Error(t, err)
}
