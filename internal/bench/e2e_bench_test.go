package bench

import (
	"bufio"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cetra3/apache-log/internal/pipeline"
	"github.com/cetra3/apache-log/internal/writer"
)

// discardInserter reports every row as inserted without touching a store.
type discardInserter struct{}

func (discardInserter) InsertBatch(_ context.Context, _ string, _ []string, rows [][]any) (int64, error) {
	return int64(len(rows)), nil
}

// makeLog renders n access-log lines, one in 50 malformed.
func makeLog(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i%50 == 49 {
			sb.WriteString("not a valid log line\n")
			continue
		}
		sb.WriteString(`192.168.`)
		sb.WriteString(strconv.Itoa(i % 256))
		sb.WriteString(`.7 - - [10/Oct/2020:13:55:36 -0700] "GET /static/app.js?v=`)
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(` HTTP/1.1" 200 `)
		sb.WriteString(strconv.Itoa(1000 + i%5000))
		sb.WriteString(` "https://example.com/" "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"`)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// BenchmarkEndToEnd exercises scan, parse, batch and row mapping for both
// modes against an inserter that does no I/O.
//
//	go test -run=^$ -bench ^BenchmarkEndToEnd$ -cpuprofile cpu.out -count=1 ./internal/bench
func BenchmarkEndToEnd(b *testing.B) {
	for _, mode := range []pipeline.Mode{pipeline.Sequential, pipeline.Parallel} {
		b.Run(string(mode), func(b *testing.B) {
			input := makeLog(b.N)
			w := writer.New(discardInserter{}, writer.Options{Job: "bench", Logger: zerolog.Nop()})
			p, err := pipeline.New(w, pipeline.Options{
				Mode:      mode,
				Table:     "logs",
				BatchSize: 4096,
				Logger:    zerolog.Nop(),
			})
			if err != nil {
				b.Fatalf("pipeline.New: %v", err)
			}

			b.ReportAllocs()
			b.SetBytes(int64(len(input) / max(b.N, 1)))
			b.ResetTimer()
			sum, err := p.Run(context.Background(), bufio.NewScanner(strings.NewReader(input)))
			b.StopTimer()

			if err != nil {
				b.Fatalf("Run: %v", err)
			}
			if sum.Inserted != sum.Parsed {
				b.Fatalf("inserted %d of %d parsed", sum.Inserted, sum.Parsed)
			}
		})
	}
}
