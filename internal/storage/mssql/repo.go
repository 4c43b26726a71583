// Package mssql implements a Microsoft SQL Server storage.Repository on top
// of sqldb using go-mssqldb.
package mssql

import (
	"context"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/cetra3/apache-log/internal/storage"
	mssqlddl "github.com/cetra3/apache-log/internal/storage/mssql/ddl"
	"github.com/cetra3/apache-log/internal/storage/sqldb"
)

// NewRepository validates cfg.DSN and opens a "sqlserver" pool.
func NewRepository(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sqldb.Open(ctx, "sqlserver", cfg.DSN, cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	return sqldb.New(db, mssqlddl.Dialect{}, sqldb.Options{
		AcquireTimeout: cfg.AcquireTimeout,
		Logger:         cfg.Logger,
	}), nil
}
