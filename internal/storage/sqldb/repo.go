// Package sqldb implements storage.Repository on top of database/sql. The
// sqlite, mssql and mysql backends share it and only contribute a Dialect and
// a driver; Postgres uses pgxpool directly.
//
// Batches are written inside a single transaction on a single pooled
// connection with one prepared single-row INSERT executed once per row.
// database/sql has no bulk-load API across drivers, but one transaction per
// batch keeps throughput acceptable and makes each batch all-or-nothing.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cetra3/apache-log/internal/ddl"
	"github.com/cetra3/apache-log/internal/storage"
)

// Dialect extends ddl.Dialect with the queries and placeholder syntax the
// repository needs.
type Dialect interface {
	ddl.Dialect

	// Placeholder renders the n-th (1-based) statement parameter.
	Placeholder(n int) string

	// TablesQuery lists table names of one schema, one per row. It takes the
	// schema name as its only parameter; an empty name selects the current
	// schema.
	TablesQuery() string

	// ColumnsQuery lists column names of one table. It takes the schema name
	// (empty for the current one) and the table name, in that order.
	ColumnsQuery() string
}

// Options tunes a Repository.
type Options struct {
	// AcquireTimeout bounds the wait for a pooled connection; zero waits
	// indefinitely.
	AcquireTimeout time.Duration
	Logger         zerolog.Logger
}

// Repository is a database/sql backed storage.Repository.
type Repository struct {
	db   *sql.DB
	d    Dialect
	opts Options
	log  zerolog.Logger
}

var _ storage.Repository = (*Repository)(nil)

// Open opens a *sql.DB, bounds its pool to poolSize connections (when > 0)
// and pings it so that bad DSNs fail fast.
func Open(ctx context.Context, driver, dsn string, poolSize int) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	if poolSize > 0 {
		db.SetMaxOpenConns(poolSize)
		db.SetMaxIdleConns(poolSize)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", driver, err)
	}
	return db, nil
}

// New wraps an open *sql.DB. The Repository owns db and closes it in Close.
func New(db *sql.DB, d Dialect, opts Options) *Repository {
	return &Repository{
		db:   db,
		d:    d,
		opts: opts,
		log:  opts.Logger.With().Str("component", d.Name()).Logger(),
	}
}

// DB exposes the underlying pool, mainly for tests.
func (r *Repository) DB() *sql.DB { return r.db }

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return r.d }

// Tables implements storage.Repository.
func (r *Repository) Tables(ctx context.Context, schema string) ([]string, error) {
	out, err := r.queryStrings(ctx, r.d.TablesQuery(), schema)
	if err != nil {
		return nil, fmt.Errorf("%s: list tables: %w", r.d.Name(), err)
	}
	return out, nil
}

// Columns implements storage.Repository.
func (r *Repository) Columns(ctx context.Context, schema, table string) ([]string, error) {
	out, err := r.queryStrings(ctx, r.d.ColumnsQuery(), schema, table)
	if err != nil {
		return nil, fmt.Errorf("%s: list columns of %s: %w", r.d.Name(), table, err)
	}
	return out, nil
}

func (r *Repository) queryStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Exec executes a single statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: exec: %w", r.d.Name(), err)
	}
	return nil
}

// InsertBatch implements storage.Repository.
func (r *Repository) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: InsertBatch: columns must not be empty", r.d.Name())
	}
	if len(rows) == 0 {
		return 0, nil
	}
	stmtSQL := storage.BuildInsertSQL(r.d, r.d.Placeholder, table, columns)

	actx, cancel := storage.AcquireContext(ctx, r.opts.AcquireTimeout)
	conn, err := r.db.Conn(actx)
	cancel()
	if err != nil {
		return 0, storage.NewStageError(storage.StageAcquire, err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, storage.NewStageError(storage.StageBegin, err)
	}

	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, storage.NewStageError(storage.StagePrepare, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, &storage.StageError{
				Stage: storage.StageExec,
				Row:   i,
				Err:   fmt.Errorf("row length %d != columns length %d", len(row), len(columns)),
			}
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, &storage.StageError{Stage: storage.StageExec, Row: i, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storage.NewStageError(storage.StageCommit, err)
	}
	r.log.Debug().Str("table", table).Int("rows", len(rows)).Msg("batch committed")
	return int64(len(rows)), nil
}

// Close closes the pool.
func (r *Repository) Close() {
	if err := r.db.Close(); err != nil {
		r.log.Warn().Err(err).Msg("close")
	}
}
