package rssfeeds

import (
	"errors"
	"strings"
	"testing"
	"time"

	"rewritebot/browser"
	"rewritebot/types"
)

var articleBody = strings.Repeat("Bij een grote brand in de haven van Rotterdam is vannacht veel schade ontstaan. ", 8)

func articlePage(title, body string) string {
	return `<html><head><title>` + title + ` | Nieuws</title>
<meta property="og:title" content="` + title + `">
<meta property="og:image" content="https://img.example.nl/brand.jpg">
<script>var tracking = "` + strings.Repeat("x", 300) + `";</script>
<style>body { color: red; }</style></head>
<body>
<nav><a href="/">Home</a> <a href="/nieuws">Nieuws</a></nav>
<article><h1>` + title + `</h1><p>` + body + `</p><p>De brandweer was met meerdere wagens aanwezig.</p></article>
<footer>Copyright</footer>
</body></html>`
}

func TestExtractArticle(t *testing.T) {
	page := &browser.Page{URL: "https://nieuws.example.nl/brand", FinalURL: "https://nieuws.example.nl/brand", HTML: articlePage("Brand in haven", articleBody)}
	cand := Candidate{URL: "https://nieuws.example.nl/brand?utm_source=rss", SourceName: "example", Author: "Redactie"}

	a, err := (&Extractor{MinBodyChars: 200}).Extract(page, cand, time.Now())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if a.Title != "Brand in haven" {
		t.Fatalf("title = %q", a.Title)
	}
	if !strings.Contains(a.RawContent, "grote brand in de haven") {
		t.Fatalf("body missing article text: %q", a.RawContent)
	}
	for _, junk := range []string{"tracking", "color: red", "Copyright", "Home"} {
		if strings.Contains(a.RawContent, junk) {
			t.Fatalf("body still contains %q: %q", junk, a.RawContent)
		}
	}
	if a.NormalizedURL != "https://nieuws.example.nl/brand" || a.SourceName != "example" {
		t.Fatalf("identity = %q / %q", a.NormalizedURL, a.SourceName)
	}
	if a.Author != "Redactie" || a.ImageURL != "https://img.example.nl/brand.jpg" {
		t.Fatalf("metadata = %q / %q", a.Author, a.ImageURL)
	}
}

func TestExtractRejectsNonArticles(t *testing.T) {
	cases := []struct {
		name string
		html string
	}{
		{"short body", articlePage("Kort", "Te kort.")},
		{"no title", `<html><body><p>` + articleBody + `</p></body></html>`},
		{"empty", "   "},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			page := &browser.Page{URL: "https://x.nl/a", HTML: c.html}
			_, err := (&Extractor{}).Extract(page, Candidate{URL: "https://x.nl/a"}, time.Now())
			var ee *types.ExtractionError
			if !errors.As(err, &ee) {
				t.Fatalf("expected ExtractionError, got %v", err)
			}
		})
	}
}
