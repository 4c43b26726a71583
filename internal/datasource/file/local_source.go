// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cetra3/apache-log/internal/datasource"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Local is a filesystem data source that opens files from the local disk.
type Local struct {
	path string
	opts datasource.Options
}

// NewLocal returns a Local data source bound to path. Compressed files are
// recognised by extension and opts.Encoding selects the input charset.
func NewLocal(path string, opts datasource.Options) *Local {
	return &Local{path: path, opts: opts}
}

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path and returns the decoded stream.
//
// A context that is already done short-circuits before touching the
// filesystem. Filesystem errors are wrapped with the path and remain
// matchable with errors.Is (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if l.path == Stdin {
		return datasource.Decode(io.NopCloser(os.Stdin), "", l.opts)
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return datasource.Decode(f, l.path, l.opts)
}
