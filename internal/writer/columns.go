package writer

import (
	"github.com/cetra3/apache-log/internal/batch"
	"github.com/cetra3/apache-log/internal/parser/accesslog"
)

// DefaultSize is written for records whose response size was absent ("-").
// Zero keeps existing tables compatible; it cannot be told apart from a
// genuine zero-byte response.
const DefaultSize int64 = 0

// Columns is the fixed insert column order. The id column is assigned by the
// store and never written.
var Columns = []string{
	"ip_address",
	"identd",
	"username",
	"time",
	"request",
	"status_code",
	"size",
	"referrer",
	"user_agent",
}

func sizeOrDefault(r accesslog.Record) int64 { return r.SizeOr(DefaultSize) }

// Row maps a record to values aligned with Columns.
func Row(r accesslog.Record) []any {
	return []any{
		r.IPAddress,
		r.Identd,
		r.Username,
		r.Time,
		r.Request,
		r.StatusCode,
		sizeOrDefault(r),
		r.Referrer,
		r.UserAgent,
	}
}

// Rows maps every record of b, preserving order.
func Rows(b batch.Batch) [][]any {
	out := make([][]any, len(b.Records))
	for i, r := range b.Records {
		out[i] = Row(r)
	}
	return out
}
