package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cetra3/apache-log/internal/catalog"
	"github.com/cetra3/apache-log/internal/config"
)

const (
	sampleLine    = `127.0.0.1 - frank [10/Oct/2020:13:55:36 -0700] "GET /index.html HTTP/1.0" 200 2326 "-" "Mozilla/5.0"`
	noSizeLine    = `10.0.0.7 - - [10/Oct/2020:13:55:37 -0700] "POST /login HTTP/1.1" 302 - "http://example.com/" "curl/8.0"`
	malformedLine = `10.0.0.8 - - 10/Oct/2020:13:55:38 -0700 "GET / HTTP/1.1" 200 12 "-" "-"`
)

// writeLog writes lines to a temp access log and returns its path.
func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "access_log")
	if err := os.WriteFile(p, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return p
}

func sqlitePipeline(t *testing.T, logPath, mode string) (config.Pipeline, string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "logs.db")
	p := config.Default()
	p.Job = "test"
	p.Source.File.Path = logPath
	p.Storage.Kind = "sqlite"
	p.Storage.DB.DSN = dsn
	p.Storage.DB.PoolSize = 1
	p.Runtime.Mode = mode
	p.Runtime.BatchSize = 2
	p.Runtime.Workers = 2
	p.Runtime.InFlight = 8
	p.Runtime.Writers = 2
	return p, dsn
}

func openSQL(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestRun_E2E_SQLite ingests a small log into a fresh SQLite database in
// both modes and checks the stored rows.
func TestRun_E2E_SQLite(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{"sequential", "parallel"} {
		mode := mode
		t.Run(mode, func(t *testing.T) {
			t.Parallel()

			logPath := writeLog(t, sampleLine, malformedLine, noSizeLine, sampleLine)
			p, dsn := sqlitePipeline(t, logPath, mode)

			sum, err := run(context.Background(), p, zerolog.Nop())
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if sum.Lines != 4 || sum.Parsed != 3 || sum.ParseFailures != 1 {
				t.Fatalf("summary = %+v", sum)
			}
			if sum.Inserted != 3 || sum.Batches != 2 {
				t.Fatalf("inserted=%d batches=%d, want 3/2", sum.Inserted, sum.Batches)
			}

			db := openSQL(t, dsn)
			var n int
			if err := db.QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&n); err != nil {
				t.Fatalf("count: %v", err)
			}
			if n != 3 {
				t.Fatalf("rows = %d, want 3", n)
			}

			var (
				user, request, referrer string
				status, size            int64
			)
			err = db.QueryRow(`SELECT username, request, status_code, size, referrer FROM logs WHERE ip_address = '10.0.0.7'`).
				Scan(&user, &request, &status, &size, &referrer)
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if user != "-" || request != "POST /login HTTP/1.1" || status != 302 || size != 0 || referrer != "http://example.com/" {
				t.Fatalf("row = %q %q %d %d %q", user, request, status, size, referrer)
			}

			var (
				ip, identd, agent string
				stamp             time.Time
			)
			err = db.QueryRow(`SELECT ip_address, identd, username, time, request, status_code, size, referrer, user_agent
FROM logs WHERE ip_address = '127.0.0.1' LIMIT 1`).
				Scan(&ip, &identd, &user, &stamp, &request, &status, &size, &referrer, &agent)
			if err != nil {
				t.Fatalf("select sample row: %v", err)
			}
			wantTime := time.Date(2020, time.October, 10, 13, 55, 36, 0, time.FixedZone("", -7*3600))
			if !stamp.Equal(wantTime) {
				t.Fatalf("time = %v, want %v", stamp, wantTime)
			}
			if ip != "127.0.0.1" || identd != "-" || user != "frank" || request != "GET /index.html HTTP/1.0" ||
				status != 200 || size != 2326 || referrer != "-" || agent != "Mozilla/5.0" {
				t.Fatalf("sample row = %q %q %q %q %d %d %q %q", ip, identd, user, request, status, size, referrer, agent)
			}
		})
	}
}

// TestRun_RerunIsAdditive checks that a second run reuses the reconciled
// table and appends.
func TestRun_RerunIsAdditive(t *testing.T) {
	t.Parallel()

	p, dsn := sqlitePipeline(t, writeLog(t, sampleLine), "s")
	for i := 0; i < 2; i++ {
		if _, err := run(context.Background(), p, zerolog.Nop()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	var n int
	if err := openSQL(t, dsn).QueryRow(`SELECT COUNT(*) FROM logs`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()
		p, _ := sqlitePipeline(t, filepath.Join(t.TempDir(), "missing"), "p")
		if _, err := run(context.Background(), p, zerolog.Nop()); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("run error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("unknown storage", func(t *testing.T) {
		t.Parallel()
		p, _ := sqlitePipeline(t, writeLog(t, sampleLine), "p")
		p.Storage.Kind = "oracle"
		if _, err := run(context.Background(), p, zerolog.Nop()); err == nil || !strings.Contains(err.Error(), "open storage") {
			t.Fatalf("run error = %v", err)
		}
	})

	t.Run("schema failure", func(t *testing.T) {
		t.Parallel()
		p, _ := sqlitePipeline(t, writeLog(t, sampleLine), "p")
		p.Storage.DB.Table = "main.logs.extra"
		_, err := run(context.Background(), p, zerolog.Nop())
		var se *catalog.SchemaError
		if !errors.As(err, &se) {
			t.Fatalf("run error = %v, want *catalog.SchemaError", err)
		}
	})
}
