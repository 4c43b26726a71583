package sqlite

import (
	"context"

	"github.com/cetra3/apache-log/internal/storage"
	"github.com/cetra3/apache-log/internal/storage/sqldb"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// Ensure the repository satisfies the interface at compile time.
var _ storage.Repository = (*sqldb.Repository)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := newRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
}
