// Package accesslog parses web-server access log lines in the nine-field
// combined format:
//
//	127.0.0.1 - frank [10/Oct/2020:13:55:36 -0700] "GET / HTTP/1.0" 200 2326 "-" "Mozilla/5.0"
//
// Parsing is a single left-to-right pass over the line with no shared state,
// so Parse is safe for concurrent use.
package accesslog

import "time"

// Record is one successfully parsed access log line.
type Record struct {
	IPAddress  string
	Identd     string
	Username   string
	Time       time.Time
	Request    string
	StatusCode int64

	// Size is the response size in bytes. HasSize is false when the source
	// field was not an integer (typically "-"); Size is then zero.
	Size    int64
	HasSize bool

	Referrer  string
	UserAgent string
}

// SizeOr returns the response size, or def when the line carried none.
func (r Record) SizeOr(def int64) int64 {
	if !r.HasSize {
		return def
	}
	return r.Size
}
