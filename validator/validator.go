// Package validator is the quality gate for rewritten articles.
package validator

import (
	"fmt"
	"strings"

	"rewritebot/common"
	"rewritebot/types"

	"github.com/PuerkitoBio/goquery"
)

// dangerous elements are removed with their content.
const dangerous = "script, style, iframe, object, embed, link, meta, form, base"

// Validator checks title, structure and length and strips injection
// patterns from the HTML.
type Validator struct {
	MinChars int
}

func New(minChars int) *Validator {
	return &Validator{MinChars: minChars}
}

// Result is a passing candidate's sanitized content.
type Result struct {
	HTML     string
	Stripped int
}

// Validate returns the sanitized HTML or a *types.ValidationFailure.
func (v *Validator) Validate(title, htmlContent string) (Result, error) {
	var reasons []string
	if strings.TrimSpace(title) == "" {
		reasons = append(reasons, "empty title")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return Result{}, &types.ValidationFailure{Reasons: append(reasons, "unparsable html: "+err.Error())}
	}
	body := doc.Find("body")

	stripped := sanitize(body)

	if body.Find("h1, h2, h3, h4, h5, h6").Length() == 0 {
		reasons = append(reasons, "no heading element")
	}
	if body.Find("p").Length() == 0 {
		reasons = append(reasons, "no paragraph element")
	}

	clean, err := body.Html()
	if err != nil {
		return Result{}, &types.ValidationFailure{Reasons: append(reasons, "render html: "+err.Error())}
	}
	if n := len([]rune(common.PlainText(clean))); n < v.MinChars {
		reasons = append(reasons, fmt.Sprintf("body too short: %d < %d characters", n, v.MinChars))
	}

	if len(reasons) > 0 {
		return Result{}, &types.ValidationFailure{Reasons: reasons}
	}
	return Result{HTML: strings.TrimSpace(clean), Stripped: stripped}, nil
}

// sanitize removes dangerous elements, inline event handlers and
// javascript: URLs, and returns how many it removed.
func sanitize(root *goquery.Selection) int {
	found := root.Find(dangerous)
	n := found.Length()
	found.Remove()

	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		kept := node.Attr[:0]
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			val := strings.ToLower(strings.Join(strings.Fields(attr.Val), ""))
			switch {
			case strings.HasPrefix(key, "on"):
				n++
			case (key == "href" || key == "src" || key == "action" || key == "formaction" || key == "xlink:href") &&
				(strings.HasPrefix(val, "javascript:") || strings.HasPrefix(val, "vbscript:") || strings.HasPrefix(val, "data:text/html")):
				n++
			default:
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	})
	return n
}
