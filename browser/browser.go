// Package browser retrieves pages for the fetcher. The HTTP client covers
// server-rendered sites; the Chrome client drives a headless browser for
// listings that need script execution.
package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"rewritebot/types"
)

// maxBodyBytes caps a single page.
const maxBodyBytes = 5 << 20

// Page is a retrieved document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
}

// Browser retrieves one page. Failures are returned as *types.FetchError.
type Browser interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Close() error
}

// HTTPBrowser fetches pages with a plain HTTP client.
type HTTPBrowser struct {
	client    *http.Client
	userAgent string
}

// NewHTTP returns an HTTPBrowser with the given per-request timeout.
func NewHTTP(timeout time.Duration, userAgent string) *HTTPBrowser {
	return &HTTPBrowser{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// NewHTTPWithClient wraps a preconfigured client.
func NewHTTPWithClient(client *http.Client, userAgent string) *HTTPBrowser {
	return &HTTPBrowser{client: client, userAgent: userAgent}
}

func (b *HTTPBrowser) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9,en;q=0.8")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &types.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	return &Page{
		URL:        url,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		HTML:       string(body),
	}, nil
}

func (b *HTTPBrowser) Close() error {
	b.client.CloseIdleConnections()
	return nil
}
