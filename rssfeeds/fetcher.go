package rssfeeds

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"rewritebot/browser"
	"rewritebot/config"
	"rewritebot/retry"
	"rewritebot/types"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

// ErrEmptyListing is returned when a listing yields no article links.
var ErrEmptyListing = errors.New("listing contains no article links")

// Candidate is a discovered article link, before its page is fetched.
type Candidate struct {
	URL         string
	Title       string
	SourceName  string
	Author      string
	ImageURL    string
	PublishedAt time.Time
}

// Fetcher discovers candidates from listings and retrieves detail pages.
// Feeds always go through feeds; HTML listings and detail pages go through
// pages, which may be a headless browser.
type Fetcher struct {
	feeds  browser.Browser
	pages  browser.Browser
	policy retry.Policy
	log    zerolog.Logger
}

// NewFetcher builds a Fetcher. pages may equal feeds.
func NewFetcher(feeds, pages browser.Browser, policy retry.Policy, log zerolog.Logger) *Fetcher {
	if pages == nil {
		pages = feeds
	}
	return &Fetcher{feeds: feeds, pages: pages, policy: policy, log: log}
}

// Discover lists candidate links for a source in listing order.
func (f *Fetcher) Discover(ctx context.Context, src config.Source) ([]Candidate, error) {
	var (
		cands []Candidate
		err   error
	)
	switch src.Kind {
	case config.SourceHTML:
		cands, err = f.discoverHTML(ctx, src)
	default:
		cands, err = f.discoverFeed(ctx, src)
	}
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, &types.FetchError{URL: src.URL, Err: ErrEmptyListing}
	}

	f.log.Debug().Str("source", src.Name).Int("candidates", len(cands)).Msg("listing parsed")
	return cands, nil
}

// FetchPage retrieves one detail page under the retry policy.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (*browser.Page, error) {
	return f.fetch(ctx, f.pages, pageURL)
}

func (f *Fetcher) fetch(ctx context.Context, b browser.Browser, pageURL string) (*browser.Page, error) {
	var page *browser.Page
	p := f.policy
	p.OnRetry = func(attempt int, class retry.Class, delay time.Duration, err error) {
		f.log.Warn().Err(err).Str("url", pageURL).Int("attempt", attempt).
			Str("class", class.String()).Dur("delay", delay).Msg("fetch failed, retrying")
	}
	err := p.Do(ctx, func(ctx context.Context) error {
		var err error
		page, err = b.Fetch(ctx, pageURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// discoverFeed parses an RSS/Atom feed and maps its items to candidates.
func (f *Fetcher) discoverFeed(ctx context.Context, src config.Source) ([]Candidate, error) {
	page, err := f.fetch(ctx, f.feeds, src.URL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(page.HTML)
	if err != nil {
		return nil, &types.FetchError{URL: src.URL, Err: fmt.Errorf("failed to parse feed: %w", err)}
	}

	cands := make([]Candidate, 0, len(feed.Items))
	seen := make(map[string]bool, len(feed.Items))
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		norm := types.NormalizeURL(link)
		if seen[norm] {
			continue
		}
		seen[norm] = true

		// Parse published date
		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}

		// Extract author
		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		c := Candidate{
			URL:         link,
			Title:       strings.TrimSpace(item.Title),
			SourceName:  src.Name,
			Author:      author,
			PublishedAt: publishedAt,
		}

		// Extract image if available
		if item.Image != nil {
			c.ImageURL = item.Image.URL
		}

		cands = append(cands, c)
	}
	return cands, nil
}

// discoverHTML collects same-host links matching the source's selector.
func (f *Fetcher) discoverHTML(ctx context.Context, src config.Source) ([]Candidate, error) {
	page, err := f.fetch(ctx, f.pages, src.URL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(page.FinalURL)
	if err != nil || page.FinalURL == "" {
		base, err = url.Parse(src.URL)
		if err != nil {
			return nil, &types.FetchError{URL: src.URL, Err: err}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, &types.FetchError{URL: src.URL, Err: fmt.Errorf("failed to parse listing: %w", err)}
	}

	var cands []Candidate
	seen := map[string]bool{types.NormalizeURL(base.String()): true}
	doc.Find(src.LinkSelector).Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "a" {
			s = s.Find("a[href]").First()
		}
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		link, ok := resolveLink(base, href)
		if !ok {
			return
		}
		norm := types.NormalizeURL(link)
		if seen[norm] {
			return
		}
		seen[norm] = true

		cands = append(cands, Candidate{
			URL:        link,
			Title:      strings.Join(strings.Fields(s.Text()), " "),
			SourceName: src.Name,
		})
	})
	return cands, nil
}

// resolveLink makes href absolute and keeps only http(s) links on the
// listing's host.
func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(u.Hostname(), base.Hostname()) {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}
