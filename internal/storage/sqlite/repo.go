// Package sqlite implements a SQLite-backed storage.Repository on top of
// sqldb using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"

	_ "modernc.org/sqlite"

	"github.com/cetra3/apache-log/internal/storage"
	"github.com/cetra3/apache-log/internal/storage/sqldb"
	sqliteddl "github.com/cetra3/apache-log/internal/storage/sqlite/ddl"
)

// defaultPoolSize serialises writers; SQLite allows a single writer at a time.
const defaultPoolSize = 1

// NewRepository opens a SQLite database. DSN is passed to the driver, e.g.
//
//	"file:logs.db?_pragma=busy_timeout(5000)"
//	"logs.db"
func NewRepository(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
	pool := cfg.PoolSize
	if pool <= 0 {
		pool = defaultPoolSize
	}
	db, err := sqldb.Open(ctx, "sqlite", cfg.DSN, pool)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys by default; ignore error if driver doesn't support it.
	_, _ = db.ExecContext(ctx, "PRAGMA foreign_keys = ON;")

	return sqldb.New(db, sqliteddl.Dialect{}, sqldb.Options{
		AcquireTimeout: cfg.AcquireTimeout,
		Logger:         cfg.Logger,
	}), nil
}
