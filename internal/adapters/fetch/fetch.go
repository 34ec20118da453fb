// Package fetch retrieves raw calendar and event pages over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/luma-sync/pkg/metrics"
)

// Fetcher performs single-attempt GET requests with fixed headers.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	accept    string
	timeout   time.Duration
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		accept:    DefaultAccept,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CalendarURL returns the page URL for a calendar identifier.
func (f *Fetcher) CalendarURL(calendarID string) string {
	return strings.TrimRight(f.baseURL, "/") + "/" + strings.TrimLeft(calendarID, "/")
}

// FetchCalendar fetches the public page of calendarID.
func (f *Fetcher) FetchCalendar(ctx context.Context, calendarID string) (string, error) {
	if strings.TrimSpace(calendarID) == "" {
		return "", ErrEmptyURL
	}
	return f.FetchURL(ctx, f.CalendarURL(calendarID))
}

// FetchURL fetches url and returns the body. Any non-2xx response is a
// *FetchError carrying the status code.
func (f *Fetcher) FetchURL(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", ErrEmptyURL
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	status := "transport"
	defer func() {
		metrics.RecordFetch(status, float64(time.Since(start).Nanoseconds())/1e6)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", f.accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	status = fmt.Sprintf("%dxx", resp.StatusCode/100)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	return string(body), nil
}
