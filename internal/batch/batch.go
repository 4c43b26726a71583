// Package batch groups parsed records into fixed-capacity, order-preserving
// batches.
//
// A Batcher has a single owner: it is not safe for concurrent use. In the
// parallel pipeline one goroutine owns the Batcher and sealing a batch hands
// it off to the writers.
package batch

import (
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"

	"github.com/cetra3/apache-log/internal/parser/accesslog"
)

// DefaultSize is the default batch capacity.
const DefaultSize = 10000

// Batch is a sealed group of records. Records keep the order in which they
// were added. A Batch must not be modified after it has been emitted.
type Batch struct {
	// Seq is the 1-based sealing order of the batch within a run.
	Seq     int64
	Records []accesslog.Record
}

// Len returns the number of records in the batch.
func (b Batch) Len() int { return len(b.Records) }

// Fingerprint hashes the batch content with xxh3. Equal records in equal
// order give equal fingerprints regardless of Seq.
func (b Batch) Fingerprint() uint64 {
	h := xxh3.New()
	buf := make([]byte, 0, 64)
	for _, r := range b.Records {
		buf = buf[:0]
		buf = append(buf, r.IPAddress...)
		buf = append(buf, 0)
		buf = append(buf, r.Identd...)
		buf = append(buf, 0)
		buf = append(buf, r.Username...)
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, r.Time.UnixNano(), 10)
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, r.StatusCode, 10)
		buf = append(buf, 0)
		if r.HasSize {
			buf = strconv.AppendInt(buf, r.Size, 10)
		}
		buf = append(buf, 0)
		_, _ = h.Write(buf)
		_, _ = h.WriteString(r.Request)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(r.Referrer)
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(r.UserAgent)
		_, _ = h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

// Batcher accumulates records into one open batch and seals it when it
// reaches capacity.
type Batcher struct {
	size int
	open []accesslog.Record
	seq  int64
}

// NewBatcher returns a Batcher sealing batches of size records.
func NewBatcher(size int) (*Batcher, error) {
	if size < 1 {
		return nil, fmt.Errorf("batch: size must be >= 1, got %d", size)
	}
	return &Batcher{size: size}, nil
}

// Pending returns the number of records in the open batch.
func (b *Batcher) Pending() int { return len(b.open) }

// Add appends rec to the open batch. When the batch reaches capacity it is
// sealed and returned with ok == true, and a new empty batch is opened.
func (b *Batcher) Add(rec accesslog.Record) (sealed Batch, ok bool) {
	if b.open == nil {
		b.open = make([]accesslog.Record, 0, b.size)
	}
	b.open = append(b.open, rec)
	if len(b.open) < b.size {
		return Batch{}, false
	}
	return b.seal(), true
}

// Flush seals the open batch even when it is under capacity. It returns
// ok == false when there is nothing to flush.
func (b *Batcher) Flush() (sealed Batch, ok bool) {
	if len(b.open) == 0 {
		return Batch{}, false
	}
	return b.seal(), true
}

func (b *Batcher) seal() Batch {
	b.seq++
	out := Batch{Seq: b.seq, Records: b.open}
	b.open = nil
	return out
}
