// Package datasource provides the line sources an ingestion run reads from.
//
// A Source opens a byte stream; Decode layers decompression and charset
// decoding on top of it and NewScanner splits the result into lines.
package datasource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// MaxLineSize bounds a single input line.
const MaxLineSize = 1 << 20

// Source opens the raw byte stream of an input.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Options configures Decode.
type Options struct {
	// Encoding names the input charset using WHATWG labels ("utf-8",
	// "latin1", "windows-1251", ...). Empty means UTF-8.
	Encoding string
}

// Decode wraps rc according to the extension of name (".gz", ".zst") and
// opts.Encoding. Closing the result closes rc.
func Decode(rc io.ReadCloser, name string, opts Options) (io.ReadCloser, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		rc.Close()
		return nil, err
	}

	out := &stack{r: rc, closers: []io.Closer{rc}}
	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		zr, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("datasource: gzip %s: %w", name, err)
		}
		out.r = zr
		out.closers = append(out.closers, zr)
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("datasource: zstd %s: %w", name, err)
		}
		out.r = zr
		out.closers = append(out.closers, closerFunc(func() error { zr.Close(); return nil }))
	}

	if enc != nil {
		out.r = enc.NewDecoder().Reader(out.r)
	}
	return out, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("datasource: unknown encoding %q: %w", name, err)
	}
	if enc == unicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}

// NewScanner returns a line scanner over r that accepts lines up to
// MaxLineSize and strips the trailing CR of CRLF endings.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	return sc
}

// stack reads from its outermost reader and closes every layer, innermost
// last.
type stack struct {
	r       io.Reader
	closers []io.Closer
}

func (s *stack) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *stack) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
