// Package postgres implements a Postgres storage.Repository using pgx v5 and
// pgxpool. Each batch is written on one pooled connection in one transaction
// with a single named prepared statement executed once per row.
package postgres

import (
	"context"
	"fmt"
	"strings"

	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"github.com/cetra3/apache-log/internal/ddl"
	"github.com/cetra3/apache-log/internal/storage"
	pgddl "github.com/cetra3/apache-log/internal/storage/postgres/ddl"
)

// DefaultPoolSize is used when storage.Config.PoolSize is zero.
const DefaultPoolSize = 10

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  storage.Config
	d    pgddl.Dialect
	log  zerolog.Logger
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository opens a pgxpool for cfg.DSN.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	pcfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{
		pool: pool,
		cfg:  cfg,
		log:  cfg.Logger.With().Str("component", "postgres").Logger(),
	}, nil
}

// poolConfig derives the pgxpool configuration: pool size and query tracing
// through the configured zerolog logger.
func poolConfig(cfg storage.Config) (*pgxpool.Config, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse DSN: %w", err)
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = DefaultPoolSize
	}
	pcfg.MaxConns = int32(size)

	pcfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   zerologadapter.NewLogger(cfg.Logger),
		LogLevel: traceLevel(cfg.Logger.GetLevel()),
	}
	return pcfg, nil
}

// traceLevel maps the run logger's level to pgx query tracing: trace and
// debug loggers see queries, anything quieter only warnings.
func traceLevel(l zerolog.Level) tracelog.LogLevel {
	switch {
	case l <= zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case l == zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	default:
		return tracelog.LogLevelWarn
	}
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return r.d }

// Tables implements storage.Repository.
func (r *Repository) Tables(ctx context.Context, schema string) ([]string, error) {
	out, err := r.queryStrings(ctx, r.d.TablesQuery(), schema)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tables: %w", err)
	}
	return out, nil
}

// Columns implements storage.Repository.
func (r *Repository) Columns(ctx context.Context, schema, table string) ([]string, error) {
	out, err := r.queryStrings(ctx, r.d.ColumnsQuery(), schema, table)
	if err != nil {
		return nil, fmt.Errorf("postgres: list columns of %s: %w", table, err)
	}
	return out, nil
}

func (r *Repository) queryStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// statementName derives a stable prepared statement name from its SQL so
// that different column sets for the same table never collide on a
// connection.
func statementName(sql string) string {
	return fmt.Sprintf("ingest_%016x", xxh3.HashString(sql))
}

// InsertBatch implements storage.Repository.
func (r *Repository) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: InsertBatch: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	sql := storage.BuildInsertSQL(r.d, r.d.Placeholder, table, columns)

	actx, cancel := storage.AcquireContext(ctx, r.cfg.AcquireTimeout)
	conn, err := r.pool.Acquire(actx)
	cancel()
	if err != nil {
		return 0, storage.NewStageError(storage.StageAcquire, err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, storage.NewStageError(storage.StageBegin, err)
	}
	committed := false
	defer func() {
		if !committed {
			// Roll back even when ctx is already cancelled.
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	sd, err := tx.Prepare(ctx, statementName(sql), sql)
	if err != nil {
		return 0, storage.NewStageError(storage.StagePrepare, err)
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, &storage.StageError{
				Stage: storage.StageExec,
				Row:   i,
				Err:   fmt.Errorf("row length %d != columns length %d", len(row), len(columns)),
			}
		}
		if _, err := tx.Exec(ctx, sd.Name, row...); err != nil {
			return 0, &storage.StageError{Stage: storage.StageExec, Row: i, Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storage.NewStageError(storage.StageCommit, err)
	}
	committed = true
	r.log.Debug().Str("table", table).Int("rows", len(rows)).Msg("batch committed")
	return int64(len(rows)), nil
}

// Close closes the pool.
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}
