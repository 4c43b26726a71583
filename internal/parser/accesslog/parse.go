package accesslog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cetra3/apache-log/internal/schema"
)

// TimeLayout is the layout of the bracketed timestamp field.
const TimeLayout = "02/Jan/2006:15:04:05 -0700"

// Field names reported in ParseError.
const (
	FieldAddress    = "ip_address"
	FieldIdentd     = "identd"
	FieldUsername   = "username"
	FieldTime       = "time"
	FieldRequest    = "request"
	FieldStatusCode = "status_code"
	FieldSize       = "size"
	FieldReferrer   = "referrer"
	FieldUserAgent  = "user_agent"
)

// ErrMalformed is matched by every error returned from Parse.
var ErrMalformed = errors.New("malformed access log line")

var (
	errMissingOpen  = errors.New("missing opening delimiter")
	errMissingClose = errors.New("missing closing delimiter")
	errInvalidUTF8  = errors.New("invalid UTF-8")
	errTooLong      = errors.New("value exceeds column width")
)

// maxQuotedLine bounds how much of the offending line Error() echoes.
const maxQuotedLine = 120

// ParseError reports a line that could not be decomposed into the nine
// fields, whose timestamp or status code failed to convert, or whose text
// fields are not valid UTF-8 or exceed their column width.
type ParseError struct {
	Line  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	line := e.Line
	if len(line) > maxQuotedLine {
		line = line[:maxQuotedLine] + "..."
	}
	return fmt.Sprintf("accesslog: %s: %v: %q", e.Field, e.Err, line)
}

func (e *ParseError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

// Parse decomposes one line. Content after the user agent's closing quote is
// ignored. On failure the returned Record is the zero value.
func Parse(line string) (Record, error) {
	c := cursor{s: line}
	fail := func(field string, err error) (Record, error) {
		return Record{}, &ParseError{Line: line, Field: field, Err: err}
	}

	var rec Record
	rec.IPAddress = c.address()
	rec.Identd = c.token()
	rec.Username = c.token()

	ts, err := c.delimited('[', ']')
	if err != nil {
		return fail(FieldTime, err)
	}
	if rec.Time, err = time.Parse(TimeLayout, ts); err != nil {
		return fail(FieldTime, err)
	}

	if rec.Request, err = c.delimited('"', '"'); err != nil {
		return fail(FieldRequest, err)
	}

	if rec.StatusCode, err = strconv.ParseInt(c.token(), 10, 64); err != nil {
		return fail(FieldStatusCode, err)
	}

	if n, err := strconv.ParseInt(c.token(), 10, 64); err == nil {
		rec.Size, rec.HasSize = n, true
	}

	if rec.Referrer, err = c.delimited('"', '"'); err != nil {
		return fail(FieldReferrer, err)
	}
	if rec.UserAgent, err = c.delimited('"', '"'); err != nil {
		return fail(FieldUserAgent, err)
	}

	// Text fields must be storable as-is in their declared column types.
	texts := [...]struct {
		field string
		value string
		width int
	}{
		{FieldAddress, rec.IPAddress, schema.StringWidth},
		{FieldIdentd, rec.Identd, schema.StringWidth},
		{FieldUsername, rec.Username, schema.StringWidth},
		{FieldRequest, rec.Request, 0},
		{FieldReferrer, rec.Referrer, schema.URLWidth},
		{FieldUserAgent, rec.UserAgent, 0},
	}
	for _, f := range texts {
		if err := checkText(f.value, f.width); err != nil {
			return fail(f.field, err)
		}
	}
	return rec, nil
}

// checkText rejects invalid UTF-8 and, when width > 0, values longer than
// width characters.
func checkText(v string, width int) error {
	if !utf8.ValidString(v) {
		return errInvalidUTF8
	}
	if width > 0 && len(v) > width && utf8.RuneCountInString(v) > width {
		return fmt.Errorf("%w of %d characters", errTooLong, width)
	}
	return nil
}

// cursor walks a line by byte offset.
type cursor struct {
	s   string
	pos int
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

func (c *cursor) skipSpace() {
	for c.pos < len(c.s) && isSpace(c.s[c.pos]) {
		c.pos++
	}
}

// address consumes a possibly empty run of digits and dots.
func (c *cursor) address() string {
	start := c.pos
	for c.pos < len(c.s) {
		b := c.s[c.pos]
		if (b < '0' || b > '9') && b != '.' {
			break
		}
		c.pos++
	}
	return c.s[start:c.pos]
}

// token skips leading whitespace and consumes bytes up to the next space.
func (c *cursor) token() string {
	c.skipSpace()
	start := c.pos
	if i := strings.IndexByte(c.s[start:], ' '); i >= 0 {
		c.pos = start + i
	} else {
		c.pos = len(c.s)
	}
	return c.s[start:c.pos]
}

// delimited skips leading whitespace, expects left, and consumes everything
// up to and including the next right delimiter.
func (c *cursor) delimited(left, right byte) (string, error) {
	c.skipSpace()
	if c.pos >= len(c.s) || c.s[c.pos] != left {
		return "", errMissingOpen
	}
	start := c.pos + 1
	i := strings.IndexByte(c.s[start:], right)
	if i < 0 {
		return "", errMissingClose
	}
	c.pos = start + i + 1
	return c.s[start : start+i], nil
}
