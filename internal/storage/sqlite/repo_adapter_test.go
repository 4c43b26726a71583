package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/cetra3/apache-log/internal/storage"
	"github.com/cetra3/apache-log/internal/storage/sqldb"
)

// TestSQLiteStorageRegistrationUsesNewRepositoryHook verifies that the
// "sqlite" storage backend registered in init() uses the newRepository hook
// and forwards the storage config unchanged.
func TestSQLiteStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	ctx := context.Background()

	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		called bool
		gotCfg storage.Config
	)
	newRepository = func(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
		called = true
		gotCfg = cfg
		return nil, errors.New("hooked")
	}

	cfg := storage.Config{Kind: "sqlite", DSN: "logs.db", PoolSize: 2}
	_, err := storage.New(ctx, cfg)
	if err == nil || err.Error() != "hooked" {
		t.Fatalf("storage.New() error = %v, want hooked", err)
	}
	if !called {
		t.Fatalf("newRepository hook was not called")
	}
	if gotCfg.DSN != cfg.DSN || gotCfg.PoolSize != cfg.PoolSize {
		t.Errorf("hook cfg = %+v, want %+v", gotCfg, cfg)
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := NewRepository(context.Background(), storage.Config{}); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}
