// Package writer submits sealed batches to storage: one transaction per
// batch, all-or-nothing.
package writer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/cetra3/apache-log/internal/batch"
	"github.com/cetra3/apache-log/internal/metrics"
	"github.com/cetra3/apache-log/internal/storage"
)

// Inserter is the storage capability the writer needs; storage.Repository
// satisfies it.
type Inserter interface {
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// RetryPolicy bounds retries of a batch whose failure happened before any
// statement reached the store (connection acquisition or BEGIN). Statement
// and commit failures are never retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts; values below 1 mean 1,
	// which fails fast on the first error.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	if p.InitialBackoff > 0 {
		bo.InitialInterval = p.InitialBackoff
	}
	if p.MaxBackoff > 0 {
		bo.MaxInterval = p.MaxBackoff
	}
	bo.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.attempts()-1)), ctx)
}

// retryable reports whether err happened before anything was sent.
func retryable(err error) bool {
	switch storage.StageOf(err) {
	case storage.StageAcquire, storage.StageBegin:
		return true
	default:
		return false
	}
}

// WriteError reports a batch that was not committed. Nothing from the batch
// is persisted.
type WriteError struct {
	Table    string
	Batch    int64
	Records  int
	Attempts int
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write batch %d (%d records) to %s failed after %d attempt(s): %v",
		e.Batch, e.Records, e.Table, e.Attempts, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Options configures a Writer.
type Options struct {
	Retry  RetryPolicy
	Job    string
	Logger zerolog.Logger
}

// Writer submits batches through an Inserter. It is safe for concurrent use;
// concurrency is bounded by the Inserter's connection pool.
type Writer struct {
	ins  Inserter
	opts Options
	log  zerolog.Logger

	start    time.Time
	inserted atomic.Int64
	batches  atomic.Int64

	// clockNowFn is replaced in tests.
	clockNowFn func() time.Time
}

// New returns a Writer using ins.
func New(ins Inserter, opts Options) *Writer {
	return &Writer{
		ins:        ins,
		opts:       opts,
		log:        opts.Logger.With().Str("component", "writer").Logger(),
		start:      time.Now(),
		clockNowFn: time.Now,
	}
}

// Inserted returns the number of records committed so far.
func (w *Writer) Inserted() int64 { return w.inserted.Load() }

// Batches returns the number of batches committed so far.
func (w *Writer) Batches() int64 { return w.batches.Load() }

// Submit writes b to table in one transaction. An empty batch is a no-op.
// Any failure is returned as a *WriteError after the batch was rolled back.
func (w *Writer) Submit(ctx context.Context, table string, b batch.Batch) error {
	if b.Len() == 0 {
		return nil
	}
	rows := Rows(b)
	began := w.clockNowFn()

	var (
		attempts int
		lastErr  error
	)
	op := func() (int64, error) {
		attempts++
		n, err := w.ins.InsertBatch(ctx, table, Columns, rows)
		if err == nil {
			return n, nil
		}
		lastErr = err
		if !retryable(err) {
			return 0, backoff.Permanent(err)
		}
		if attempts < w.opts.Retry.attempts() {
			w.log.Warn().Err(err).Int64("batch", b.Seq).Int("attempt", attempts).Msg("batch attempt failed; retrying")
		}
		return 0, err
	}

	n, err := backoff.RetryWithData(op, w.opts.Retry.backOff(ctx))
	metrics.ObserveBatch(w.opts.Job, err, w.clockNowFn().Sub(began))
	if err != nil {
		if lastErr != nil {
			err = lastErr
		}
		werr := &WriteError{Table: table, Batch: b.Seq, Records: b.Len(), Attempts: attempts, Err: err}
		w.logFailure(werr, rows)
		return werr
	}

	total := w.inserted.Add(n)
	w.batches.Add(1)
	metrics.RecordRow(w.opts.Job, metrics.KindInserted, n)
	metrics.RecordBatches(w.opts.Job, 1)

	elapsed := w.clockNowFn().Sub(w.start)
	rate := int64(0)
	if s := elapsed.Seconds(); s > 0 {
		rate = int64(float64(total) / s)
	}
	w.log.Info().
		Int64("batch", b.Seq).
		Int64("records", n).
		Str("fingerprint", fmt.Sprintf("%016x", b.Fingerprint())).
		Int64("rps", rate).
		Int64("total_inserted", total).
		Dur("elapsed", elapsed.Truncate(time.Millisecond)).
		Msg("batch committed")
	return nil
}

// logFailure logs the failed batch and, for a row-level failure, the values
// of the offending row.
func (w *Writer) logFailure(werr *WriteError, rows [][]any) {
	w.log.Error().Err(werr.Err).
		Int64("batch", werr.Batch).
		Int("records", werr.Records).
		Int("attempts", werr.Attempts).
		Str("stage", string(storage.StageOf(werr.Err))).
		Msg("batch rolled back")

	var se *storage.StageError
	if !errors.As(werr.Err, &se) || se.Row < 0 || se.Row >= len(rows) {
		return
	}
	ev := w.log.Debug().Int("row", se.Row)
	for i, v := range rows[se.Row] {
		if i < len(Columns) {
			ev = ev.Interface(Columns[i], v)
		}
	}
	ev.Msg("offending row")
}
