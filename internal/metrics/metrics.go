// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the ingestion pipeline.
//
// A global, pluggable backend defaults to a no-op implementation, so the
// helpers are always safe to call even when no metrics system is configured.
// Concrete systems (Prometheus Pushgateway, Datadog) live in subpackages so
// the pipeline depends only on this package.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StepTotal            = "ingest_step_total"
	StepDurationSeconds  = "ingest_step_duration_seconds"
	RecordsTotal         = "ingest_records_total"
	BatchesTotal         = "ingest_batches_total"
	BatchDurationSeconds = "ingest_batch_duration_seconds"
)

// Record kinds used with RecordRow.
const (
	KindRead          = "read"
	KindParsed        = "parsed"
	KindParseFailures = "parse_failures"
	KindInserted      = "inserted"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing
// backend. It is meant to be called once at startup, before any goroutine
// records metrics.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordStep measures latency and outcome of a run step such as "reconcile"
// or "ingest".
func RecordStep(job, step string, err error, d time.Duration) {
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status(err),
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind
// (see the Kind constants).
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments a batch-level counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

// ObserveBatch records how long one batch submission took, including retries.
func ObserveBatch(job string, err error, d time.Duration) {
	backend.ObserveHistogram(BatchDurationSeconds, d.Seconds(), Labels{
		"job":    job,
		"status": status(err),
	})
}
