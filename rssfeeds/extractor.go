package rssfeeds

import (
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"rewritebot/browser"
	"rewritebot/types"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// DefaultMinBodyChars is used when the Extractor has no threshold set.
const DefaultMinBodyChars = 200

// boilerplate is removed before readability sees the page.
const boilerplate = "script, style, noscript, nav, header, footer, aside, form, iframe, svg, button"

// Extractor turns a fetched page into a SourceArticle.
type Extractor struct {
	MinBodyChars int
}

// Extract pulls title and body text from page. Pages that do not look like
// articles return an *types.ExtractionError.
func (e *Extractor) Extract(page *browser.Page, cand Candidate, fetchedAt time.Time) (*types.SourceArticle, error) {
	minBody := e.MinBodyChars
	if minBody <= 0 {
		minBody = DefaultMinBodyChars
	}
	if page == nil || strings.TrimSpace(page.HTML) == "" {
		return nil, &types.ExtractionError{URL: cand.URL, Reason: "empty page"}
	}

	rawURL := page.FinalURL
	if rawURL == "" {
		rawURL = page.URL
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, &types.ExtractionError{URL: cand.URL, Reason: "bad page url", Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, &types.ExtractionError{URL: cand.URL, Reason: "unparsable markup", Err: err}
	}

	ogTitle, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	h1 := doc.Find("h1").First().Text()
	docTitle := doc.Find("title").First().Text()
	ogImage, _ := doc.Find(`meta[property="og:image"]`).Attr("content")

	doc.Find(boilerplate).Remove()
	cleaned, err := doc.Html()
	if err != nil {
		return nil, &types.ExtractionError{URL: cand.URL, Reason: "unparsable markup", Err: err}
	}

	var body, byline, image, readTitle string
	if art, err := readability.FromReader(strings.NewReader(cleaned), pageURL); err == nil {
		body = normalizeBody(art.TextContent)
		byline = art.Byline
		image = art.Image
		readTitle = art.Title
	}
	if utf8.RuneCountInString(body) < minBody {
		// readability can miss short news pages; fall back to paragraphs
		if fallback := paragraphText(doc); utf8.RuneCountInString(fallback) > utf8.RuneCountInString(body) {
			body = fallback
		}
	}

	title := firstNonEmpty(ogTitle, h1, cand.Title, readTitle, docTitle)
	if title == "" {
		return nil, &types.ExtractionError{URL: cand.URL, Reason: "no title"}
	}
	if n := utf8.RuneCountInString(body); n < minBody {
		return nil, &types.ExtractionError{URL: cand.URL, Reason: "body too short"}
	}

	article, err := types.NewSourceArticle(cand.URL, title, body, cand.SourceName, fetchedAt)
	if err != nil {
		return nil, &types.ExtractionError{URL: cand.URL, Reason: "invalid article", Err: err}
	}

	article.Author = firstNonEmpty(cand.Author, byline)
	article.ImageURL = firstNonEmpty(cand.ImageURL, image, ogImage)
	article.PublishedAt = cand.PublishedAt
	return article, nil
}

// paragraphText joins the text of all <p> elements.
func paragraphText(doc *goquery.Document) string {
	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, "\n")
}

// normalizeBody collapses whitespace inside lines and drops blank lines.
func normalizeBody(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if l := strings.Join(strings.Fields(line), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.Join(strings.Fields(v), " "); v != "" {
			return v
		}
	}
	return ""
}
