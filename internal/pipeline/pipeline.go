// Package pipeline drives an ingestion run: lines from a Source are parsed
// into records, grouped into fixed-size batches and handed to a Submitter.
//
// Malformed lines are counted and dropped. The first submission failure is
// fatal: it cancels the run, in-flight submissions abort through the shared
// context, and Run returns the error.
//
// In Parallel mode records reach the Batcher in completion order, so record
// order is only guaranteed within a batch, and batches may commit out of
// source order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cetra3/apache-log/internal/batch"
	"github.com/cetra3/apache-log/internal/metrics"
	"github.com/cetra3/apache-log/internal/parser/accesslog"
)

// ErrFinished is returned by Run on a Pipeline that already completed.
var ErrFinished = errors.New("pipeline: run already finished")

// Source yields input lines. *bufio.Scanner satisfies it.
type Source interface {
	Scan() bool
	Text() string
	Err() error
}

// Submitter commits one sealed batch. *writer.Writer satisfies it.
type Submitter interface {
	Submit(ctx context.Context, table string, b batch.Batch) error
}

// ParseFunc turns a line into a record.
type ParseFunc func(line string) (accesslog.Record, error)

// Options configures a Pipeline. Zero values select defaults.
type Options struct {
	Mode  Mode
	Table string

	// BatchSize is the batch capacity (default batch.DefaultSize).
	BatchSize int

	// Workers is the number of parse goroutines in Parallel mode
	// (default runtime.NumCPU()).
	Workers int

	// InFlight bounds lines queued for parsing and records queued for
	// batching (default 4 x Workers).
	InFlight int

	// Writers is the number of concurrent submitters in Parallel mode
	// (default Workers). The connection pool bounds it further.
	Writers int

	Job    string
	Logger zerolog.Logger

	// Parse defaults to accesslog.Parse.
	Parse ParseFunc
}

func (o *Options) applyDefaults() error {
	if o.Table == "" {
		return errors.New("pipeline: table must not be empty")
	}
	if o.BatchSize < 0 || o.Workers < 0 || o.InFlight < 0 || o.Writers < 0 {
		return fmt.Errorf("pipeline: negative option (batch=%d workers=%d in_flight=%d writers=%d)",
			o.BatchSize, o.Workers, o.InFlight, o.Writers)
	}
	if o.Mode == "" {
		o.Mode = Parallel
	}
	if o.Mode != Parallel && o.Mode != Sequential {
		return fmt.Errorf("pipeline: unknown mode %q", o.Mode)
	}
	if o.BatchSize == 0 {
		o.BatchSize = batch.DefaultSize
	}
	if o.Workers == 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.InFlight == 0 {
		o.InFlight = 4 * o.Workers
	}
	if o.Writers == 0 {
		o.Writers = o.Workers
	}
	if o.Parse == nil {
		o.Parse = accesslog.Parse
	}
	return nil
}

// Pipeline runs once; create a new one per input.
type Pipeline struct {
	sub   Submitter
	opts  Options
	log   zerolog.Logger
	state atomic.Int32

	// clockNowFn is replaced in tests.
	clockNowFn func() time.Time
}

// New validates opts and returns an Idle pipeline.
func New(sub Submitter, opts Options) (*Pipeline, error) {
	if sub == nil {
		return nil, errors.New("pipeline: nil submitter")
	}
	if err := opts.applyDefaults(); err != nil {
		return nil, err
	}
	return &Pipeline{
		sub:        sub,
		opts:       opts,
		log:        opts.Logger.With().Str("component", "pipeline").Logger(),
		clockNowFn: time.Now,
	}, nil
}

// Options returns the effective options after defaults were applied.
func (p *Pipeline) Options() Options { return p.opts }

// State returns the current lifecycle state.
func (p *Pipeline) State() State { return State(p.state.Load()) }

func (p *Pipeline) setState(s State) { p.state.Store(int32(s)) }

// run holds the per-run shared state.
type run struct {
	c        counters
	failures *errAgg
	batcher  *batch.Batcher
}

func (p *Pipeline) parseLine(r *run, line string) (accesslog.Record, bool) {
	rec, err := p.opts.Parse(line)
	if err != nil {
		r.c.parseFailures.Add(1)
		r.failures.add(err.Error())
		return accesslog.Record{}, false
	}
	r.c.parsed.Add(1)
	return rec, true
}

func (p *Pipeline) submit(ctx context.Context, r *run, b batch.Batch) error {
	if err := p.sub.Submit(ctx, p.opts.Table, b); err != nil {
		return err
	}
	r.c.batches.Add(1)
	r.c.inserted.Add(int64(b.Len()))
	return nil
}

// Run consumes src until it is exhausted, ctx is cancelled or a batch fails.
// It may be called once.
func (p *Pipeline) Run(ctx context.Context, src Source) (Summary, error) {
	if !p.state.CompareAndSwap(int32(Idle), int32(Running)) {
		if s := p.State(); s.Terminal() {
			return Summary{}, fmt.Errorf("%w (%s)", ErrFinished, s)
		}
		return Summary{}, fmt.Errorf("pipeline: Run called in state %s", p.State())
	}
	start := p.clockNowFn()

	b, err := batch.NewBatcher(p.opts.BatchSize)
	if err != nil {
		p.setState(Failed)
		return Summary{}, err
	}
	r := &run{failures: newErrAgg(maxSampledFailures), batcher: b}

	p.log.Info().
		Str("mode", string(p.opts.Mode)).
		Str("table", p.opts.Table).
		Int("batch_size", p.opts.BatchSize).
		Int("workers", p.opts.Workers).
		Int("in_flight", p.opts.InFlight).
		Int("writers", p.opts.Writers).
		Msg("pipeline started")

	if p.opts.Mode == Sequential {
		err = p.runSequential(ctx, r, src)
	} else {
		err = p.runParallel(ctx, r, src)
	}

	sum := Summary{
		Lines:         r.c.lines.Load(),
		Parsed:        r.c.parsed.Load(),
		ParseFailures: r.c.parseFailures.Load(),
		Batches:       r.c.batches.Load(),
		Inserted:      r.c.inserted.Load(),
		Elapsed:       p.clockNowFn().Sub(start),
		FirstFailures: r.failures.sample(),
	}
	p.report(sum, err)

	if err != nil {
		p.setState(Failed)
		return sum, err
	}
	p.setState(Done)
	return sum, nil
}

func (p *Pipeline) report(sum Summary, err error) {
	metrics.RecordRow(p.opts.Job, metrics.KindRead, sum.Lines)
	metrics.RecordRow(p.opts.Job, metrics.KindParsed, sum.Parsed)
	metrics.RecordRow(p.opts.Job, metrics.KindParseFailures, sum.ParseFailures)

	if sum.ParseFailures > 0 {
		p.log.Warn().
			Int64("parse_failures", sum.ParseFailures).
			Int("shown", len(sum.FirstFailures)).
			Msg("malformed lines dropped")
		for i, s := range sum.FirstFailures {
			p.log.Warn().Msgf("  #%03d: %s", i+1, s)
		}
	}

	ev := p.log.Info()
	if err != nil {
		ev = p.log.Error().Err(err)
	}
	ev.Int64("lines", sum.Lines).
		Int64("parsed", sum.Parsed).
		Int64("parse_failures", sum.ParseFailures).
		Int64("batches", sum.Batches).
		Int64("inserted", sum.Inserted).
		Dur("elapsed", sum.Elapsed.Truncate(time.Millisecond)).
		Float64("lines_per_sec", sum.Throughput()).
		Msg("summary")
}

func (p *Pipeline) runSequential(ctx context.Context, r *run, src Source) error {
	for src.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.c.lines.Add(1)
		rec, ok := p.parseLine(r, src.Text())
		if !ok {
			continue
		}
		if sealed, full := r.batcher.Add(rec); full {
			if err := p.submit(ctx, r, sealed); err != nil {
				return err
			}
		}
	}
	if err := src.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	p.setState(Draining)
	if sealed, ok := r.batcher.Flush(); ok {
		return p.submit(ctx, r, sealed)
	}
	return nil
}

// runParallel wires four stages with errgroup:
//
//	reader -> lines -> parse workers -> records -> batcher -> batches -> writers
//
// The batcher goroutine is the only owner of the open batch. Every send
// selects on the group context so a failing stage unblocks the others.
func (p *Pipeline) runParallel(ctx context.Context, r *run, src Source) error {
	g, gctx := errgroup.WithContext(ctx)

	lines := make(chan string, p.opts.InFlight)
	records := make(chan accesslog.Record, p.opts.InFlight)
	batches := make(chan batch.Batch, p.opts.Writers)

	// 1) Reader.
	g.Go(func() error {
		defer close(lines)
		for src.Scan() {
			r.c.lines.Add(1)
			select {
			case lines <- src.Text():
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := src.Err(); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		return nil
	})

	// 2) Parse workers.
	var parsers sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		parsers.Add(1)
		g.Go(func() error {
			defer parsers.Done()
			for line := range lines {
				rec, ok := p.parseLine(r, line)
				if !ok {
					continue
				}
				select {
				case records <- rec:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		parsers.Wait()
		close(records)
		return nil
	})

	// 3) Batcher.
	g.Go(func() error {
		defer close(batches)
		for rec := range records {
			sealed, full := r.batcher.Add(rec)
			if !full {
				continue
			}
			select {
			case batches <- sealed:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		p.setState(Draining)
		if sealed, ok := r.batcher.Flush(); ok {
			select {
			case batches <- sealed:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// 4) Writers.
	for i := 0; i < p.opts.Writers; i++ {
		g.Go(func() error {
			for b := range batches {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := p.submit(gctx, r, b); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}
