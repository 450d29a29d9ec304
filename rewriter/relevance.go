package rewriter

import (
	"rewritebot/config"
	"rewritebot/keywords"
	"rewritebot/types"
)

// RelevanceGate decides whether an article is worth a service call.
type RelevanceGate struct {
	Keywords []string
	MinHits  int
}

func NewRelevanceGate(p config.RelevancePolicy) RelevanceGate {
	return RelevanceGate{Keywords: p.Keywords, MinHits: p.MinHits}
}

// Check counts keyword occurrences in title and body and returns the
// keywords that matched. An empty keyword list lets everything through.
func (g RelevanceGate) Check(a *types.SourceArticle) (bool, []string) {
	if len(g.Keywords) == 0 {
		return true, nil
	}
	text := keywords.NewText(a.Title + "\n" + a.RawContent)
	hits := 0
	var matched []string
	for _, kw := range g.Keywords {
		if n := text.Count(kw); n > 0 {
			hits += n
			matched = append(matched, kw)
		}
	}
	return hits >= g.MinHits, matched
}
