package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cetra3/apache-log/internal/catalog"
	"github.com/cetra3/apache-log/internal/config"
	"github.com/cetra3/apache-log/internal/datasource"
	"github.com/cetra3/apache-log/internal/datasource/file"
	"github.com/cetra3/apache-log/internal/datasource/httpds"
	"github.com/cetra3/apache-log/internal/metrics"
	"github.com/cetra3/apache-log/internal/pipeline"
	"github.com/cetra3/apache-log/internal/schema"
	"github.com/cetra3/apache-log/internal/storage"
	"github.com/cetra3/apache-log/internal/writer"
)

// Function variables used to introduce test seams.
var (
	newRepositoryFn = storage.New
	openSourceFn    = openSource
)

// openSource builds the configured line source.
func openSource(s config.Source, log zerolog.Logger) (datasource.Source, error) {
	opts := datasource.Options{}
	switch s.Kind {
	case "file":
		opts.Encoding = s.File.Encoding
		return file.NewLocal(s.File.Path, opts), nil
	case "http":
		c := httpds.NewClient(httpds.Config{
			Timeout:            s.HTTP.Timeout,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
			Logger:             log,
		})
		src, err := httpds.NewSource(c, s.HTTP.URL, opts)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
}

// run executes one ingestion: reconcile the schema, then stream the source
// through the pipeline into the table.
func run(ctx context.Context, p config.Pipeline, log zerolog.Logger) (pipeline.Summary, error) {
	db := p.Storage.DB
	log.Info().
		Str("storage", p.Storage.Kind).
		Str("table", db.Table).
		Str("source", p.Source.Kind).
		Msg("starting ingest")

	repo, err := newRepositoryFn(ctx, storage.Config{
		Kind:           p.Storage.Kind,
		DSN:            db.DSN,
		PoolSize:       db.PoolSize,
		AcquireTimeout: db.AcquireTimeout,
		Logger:         log,
	})
	if err != nil {
		return pipeline.Summary{}, fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	if db.AutoCreateTable {
		began := time.Now()
		rep, err := catalog.New(repo, log).Reconcile(ctx, schema.LogsTable(db.Table))
		metrics.RecordStep(p.Job, "reconcile", err, time.Since(began))
		if err != nil {
			return pipeline.Summary{}, err
		}
		if rep.Changed() {
			log.Info().Strs("created", rep.Created).Strs("added", rep.Added).Msg("schema reconciled")
		}
	}

	mode, err := pipeline.ParseMode(p.Runtime.Mode)
	if err != nil {
		return pipeline.Summary{}, err
	}
	w := writer.New(repo, writer.Options{
		Retry: writer.RetryPolicy{
			MaxAttempts:    p.Runtime.Retry.MaxAttempts,
			InitialBackoff: p.Runtime.Retry.InitialBackoff,
			MaxBackoff:     p.Runtime.Retry.MaxBackoff,
		},
		Job:    p.Job,
		Logger: log,
	})
	pl, err := pipeline.New(w, pipeline.Options{
		Mode:      mode,
		Table:     db.Table,
		BatchSize: p.Runtime.BatchSize,
		Workers:   p.Runtime.Workers,
		InFlight:  p.Runtime.InFlight,
		Writers:   p.Runtime.Writers,
		Job:       p.Job,
		Logger:    log,
	})
	if err != nil {
		return pipeline.Summary{}, err
	}

	src, err := openSourceFn(p.Source, log)
	if err != nil {
		return pipeline.Summary{}, err
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return pipeline.Summary{}, err
	}
	defer rc.Close()

	began := time.Now()
	sum, err := pl.Run(ctx, datasource.NewScanner(rc))
	metrics.RecordStep(p.Job, "ingest", err, time.Since(began))
	return sum, err
}
