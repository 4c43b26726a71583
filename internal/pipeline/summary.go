package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

// maxSampledFailures is how many parse failures are kept verbatim.
const maxSampledFailures = 3

// Summary describes a finished run.
type Summary struct {
	Lines         int64 // lines read from the source
	Parsed        int64 // lines parsed into records
	ParseFailures int64 // lines dropped as malformed
	Batches       int64 // batches committed
	Inserted      int64 // records committed
	Elapsed       time.Duration

	// FirstFailures holds the first few parse failure messages.
	FirstFailures []string
}

// Throughput returns parsed lines per second.
func (s Summary) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Parsed) / s.Elapsed.Seconds()
}

// counters are shared by every stage of a run.
type counters struct {
	lines         atomic.Int64
	parsed        atomic.Int64
	parseFailures atomic.Int64
	batches       atomic.Int64
	inserted      atomic.Int64
}

// errAgg keeps the first few error messages and counts the rest.
type errAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newErrAgg(limit int) *errAgg { return &errAgg{limit: limit} }

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

func (a *errAgg) sample() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.first...)
}
