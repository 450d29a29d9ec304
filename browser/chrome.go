package browser

import (
	"context"
	"fmt"
	"time"

	"rewritebot/types"

	"github.com/chromedp/chromedp"
)

// ChromeBrowser renders pages in a shared headless Chrome instance.
type ChromeBrowser struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	timeout     time.Duration
}

// NewChrome starts headless Chrome. Each Fetch opens a new tab.
func NewChrome(timeout time.Duration, userAgent string) (*ChromeBrowser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// start the browser so launch failures surface here
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &ChromeBrowser{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancel:      cancel,
		timeout:     timeout,
	}, nil
}

func (b *ChromeBrowser) Fetch(ctx context.Context, url string) (*Page, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	// tie the tab to the caller's context as well
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(url))
	if err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}
	if resp != nil && (resp.Status < 200 || resp.Status > 299) {
		return nil, &types.FetchError{URL: url, StatusCode: int(resp.Status)}
	}

	var html, finalURL string
	if err := chromedp.Run(tabCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, &types.FetchError{URL: url, Err: err}
	}

	return &Page{URL: url, FinalURL: finalURL, StatusCode: 200, HTML: html}, nil
}

func (b *ChromeBrowser) Close() error {
	b.cancel()
	b.cancelAlloc()
	return nil
}
