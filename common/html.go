package common

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var spaceRe = regexp.MustCompile(`\s+`)

// PlainText returns the visible text of an HTML fragment with element
// boundaries turned into spaces and whitespace collapsed.
func PlainText(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return CollapseSpace(htmlContent)
	}
	var b strings.Builder
	writeText(doc.Find("body"), &b)
	return CollapseSpace(b.String())
}

func writeText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(c.Text())
		case "script", "style", "#comment":
		default:
			writeText(c, b)
			b.WriteByte(' ')
		}
	})
}

// CollapseSpace trims s and folds whitespace runs into one space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
