package rewriter

import (
	"html"
	"regexp"
	"strings"

	"rewritebot/common"
	"rewritebot/keywords"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxTitleChars   = 160
	summaryChars    = 140
	maxSlugChars    = 80
	headingMaxChars = 80
)

// DefaultTags are used when no relevance keyword matched.
var DefaultTags = []string{"Nederland", "Nieuws", "Actueel"}

var (
	codeFenceRe = regexp.MustCompile("(?s)^```(?:html|json)?\\s*\n?(.*?)\\s*```$")
	htmlTagRe   = regexp.MustCompile(`<(p|h[1-6])[\s>]`)
	slugRe      = regexp.MustCompile(`[^a-z0-9]+`)
)

// stripCodeFence removes markdown code fences from model output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return s
}

// FormatHTML keeps output that already has paragraph or heading tags.
// Plain text is split into lines: short lines after the first become
// <h3> headings, everything else a <p>.
func FormatHTML(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || htmlTagRe.MatchString(text) {
		return text
	}

	var parts []string
	i := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		esc := html.EscapeString(line)
		if i > 0 && len([]rune(line)) < headingMaxChars {
			parts = append(parts, "<h3>"+esc+"</h3>")
		} else {
			parts = append(parts, "<p>"+esc+"</p>")
		}
		i++
	}
	return strings.Join(parts, "\n")
}

// ExtractTitle returns the text of the first <h1> or <h2>, or fallback.
func ExtractTitle(htmlContent, fallback string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err == nil {
		if title := common.CollapseSpace(doc.Find("h1, h2").First().Text()); title != "" {
			return clip(title, maxTitleChars)
		}
	}
	return clip(fallback, maxTitleChars)
}

// Summary is a plain-text excerpt of at most 140 characters cut on a word
// boundary, with "..." appended when cut.
func Summary(htmlContent string) string {
	plain := common.PlainText(htmlContent)
	r := []rune(plain)
	if len(r) <= summaryChars {
		return plain
	}
	cut := string(r[:summaryChars])
	if r[summaryChars] != ' ' {
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}

// Slugify makes a lowercase ASCII slug of at most 80 characters.
func Slugify(title string) string {
	s := slugRe.ReplaceAllString(keywords.Fold(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugChars {
		s = s[:maxSlugChars]
		if i := strings.LastIndex(s, "-"); i > maxSlugChars/2 {
			s = s[:i]
		}
		s = strings.Trim(s, "-")
	}
	if s == "" {
		return "artikel"
	}
	return s
}

// Tags returns up to three matched keywords, or DefaultTags.
func Tags(matched []string) []string {
	var tags []string
	seen := map[string]bool{}
	for _, kw := range matched {
		tag := titleCase(kw)
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == 3 {
			break
		}
	}
	if len(tags) == 0 {
		return append([]string(nil), DefaultTags...)
	}
	return tags
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func clip(s string, n int) string {
	s = common.CollapseSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
