package httpds

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/cetra3/apache-log/internal/datasource"
)

// Source streams a remote log file. Compression is inferred from the URL
// path, as for local files.
type Source struct {
	client *Client
	url    string
	opts   datasource.Options
}

// NewSource returns a Source fetching rawURL with c.
func NewSource(c *Client, rawURL string, opts datasource.Options) (*Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("httpds: parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("httpds: unsupported scheme %q", u.Scheme)
	}
	return &Source{client: c, url: rawURL, opts: opts}, nil
}

// Open fetches the URL and returns the decoded body. Any status outside 2xx
// is an error.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: %s", s.url, resp.Status)
	}
	name := resp.Request.URL.Path
	if resp.Uncompressed {
		// The transport already removed a gzip Content-Encoding.
		name = ""
	}
	return datasource.Decode(resp.Body, name, s.opts)
}

var _ datasource.Source = (*Source)(nil)
