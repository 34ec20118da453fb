package fetch

import (
	"net/http"
	"time"
)

// Default request headers.
const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; luma-sync/1.0; +https://github.com/okian/luma-sync)"
	DefaultAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	DefaultBaseURL   = "https://lu.ma"
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBaseURL sets the provider base URL calendar identifiers are joined to.
func WithBaseURL(u string) Option {
	return func(f *Fetcher) {
		if u != "" {
			f.baseURL = u
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithAccept overrides the Accept header.
func WithAccept(accept string) Option {
	return func(f *Fetcher) {
		if accept != "" {
			f.accept = accept
		}
	}
}

// WithTimeout bounds each request. Zero means no timeout beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d >= 0 {
			f.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}
