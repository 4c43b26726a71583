// Package storage contains storage-agnostic contracts and the backend
// registry.
//
// Concrete backends (postgres, sqlite, mssql, mysql) register a Factory for
// their storage kind from an init function; callers obtain a Repository via
// New without importing driver packages. Import internal/storage/all to
// enable every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cetra3/apache-log/internal/ddl"
)

// Repository is the contract every backend satisfies.
type Repository interface {
	// Tables lists table names in schema. An empty schema means the
	// connection's current schema (or database).
	Tables(ctx context.Context, schema string) ([]string, error)

	// Columns lists column names of table in schema, with the same meaning
	// of an empty schema as Tables.
	Columns(ctx context.Context, schema, table string) ([]string, error)

	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// InsertBatch writes rows (aligned to columns) inside one transaction on
	// one pooled connection: acquire, begin, prepare once, execute per row,
	// commit. Any failure rolls the whole batch back and is reported as a
	// *StageError. It returns the number of rows committed.
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Dialect renders DDL for this backend.
	Dialect() ddl.Dialect

	// Close releases the connection pool.
	Close()
}

// Config carries backend-agnostic connection settings.
type Config struct {
	// Kind selects the backend: "postgres", "sqlite", "mssql", "mysql".
	Kind string

	// DSN is passed to the backend driver.
	DSN string

	// PoolSize bounds the number of open connections. Writers block when all
	// connections are in use. Zero lets the backend pick its default.
	PoolSize int

	// AcquireTimeout bounds the wait for a pooled connection in InsertBatch.
	// Zero waits indefinitely.
	AcquireTimeout time.Duration

	// Logger receives backend diagnostics (and driver tracing where supported).
	Logger zerolog.Logger
}

// Factory opens a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the Factory for kind. It is typically
// called from backend packages' init functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// Kinds returns the registered storage kinds in sorted order.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Repository using the Factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind=%q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// AcquireContext derives the context used while waiting for a pooled
// connection. With a zero timeout the parent context is returned unchanged.
func AcquireContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
