// Package keywords does the word-prefix matching shared by the relevance
// gate and the categorizer.
package keywords

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics ("cocaïne" -> "cocaine").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokens splits folded text into words.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Text is tokenized text that can be matched repeatedly.
type Text []string

func NewText(s string) Text { return Text(Tokens(s)) }

// Count returns how often kw occurs in t. Every word of kw must match a
// whole token except the last, which only has to be a prefix, so Dutch
// compounds like "brandweer" count for "brand".
func (t Text) Count(kw string) int {
	want := Tokens(kw)
	if len(want) == 0 {
		return 0
	}
	n := 0
	last := len(want) - 1
	for i := 0; i+last < len(t); i++ {
		ok := true
		for j, w := range want {
			tok := t[i+j]
			if j == last {
				ok = strings.HasPrefix(tok, w)
			} else {
				ok = tok == w
			}
			if !ok {
				break
			}
		}
		if ok {
			n++
		}
	}
	return n
}

// Matched returns the keywords that occur at least once, in input order.
func (t Text) Matched(kws []string) []string {
	var out []string
	for _, kw := range kws {
		if t.Count(kw) > 0 {
			out = append(out, kw)
		}
	}
	return out
}
