// Package mysql implements a MySQL storage.Repository on top of sqldb using
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/cetra3/apache-log/internal/storage"
	mysqlddl "github.com/cetra3/apache-log/internal/storage/mysql/ddl"
	"github.com/cetra3/apache-log/internal/storage/sqldb"
)

// normalizeDSN parses dsn and forces parseTime so DATETIME columns round-trip
// as time.Time.
func normalizeDSN(dsn string) (string, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql dsn: %w", err)
	}
	c.ParseTime = true
	return c.FormatDSN(), nil
}

// NewRepository opens a MySQL pool for cfg.DSN.
func NewRepository(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := sqldb.Open(ctx, "mysql", dsn, cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	return sqldb.New(db, mysqlddl.Dialect{}, sqldb.Options{
		AcquireTimeout: cfg.AcquireTimeout,
		Logger:         cfg.Logger,
	}), nil
}
