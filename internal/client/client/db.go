package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/timecapsule/internal/client/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// cachePragmas are applied to every connection of the local cache.
const cachePragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// RunMigrations brings the cache schema up to date and reports how many
// migrations it applied.
func RunMigrations(ctx context.Context, db *sql.DB) (int, error) {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return 0, fmt.Errorf("cache migrations: %w", err)
	}
	applied, err := p.Up(ctx)
	if err != nil {
		return len(applied), fmt.Errorf("cache migrations: %w", err)
	}
	return len(applied), nil
}

// InitDatabase opens the SQLite cache file at path and migrates it. The
// directory must already exist.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+cachePragmas)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	// One writer at a time; the REPL and the status watcher share the handle.
	db.SetMaxOpenConns(1)

	if _, err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
