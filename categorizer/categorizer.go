// Package categorizer assigns one of the fixed categories by weighted
// keyword scoring.
package categorizer

import (
	"sort"

	"rewritebot/config"
	"rewritebot/keywords"
	"rewritebot/types"
)

// Categorizer scores title and body hits per category.
type Categorizer struct {
	keywords    map[types.Category][]weighted
	minScore    float64
	titleWeight float64
	bodyWeight  float64
}

type weighted struct {
	keyword string
	weight  float64
}

// Score is one category's total.
type Score struct {
	Category types.Category
	Score    float64
}

func New(p *config.Policy) (*Categorizer, error) {
	kws, err := p.CategoryKeywords()
	if err != nil {
		return nil, err
	}
	// fixed keyword order so float sums, and therefore ties, are stable
	sorted := make(map[types.Category][]weighted, len(kws))
	for cat, m := range kws {
		list := make([]weighted, 0, len(m))
		for kw, w := range m {
			list = append(list, weighted{keyword: kw, weight: w})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].keyword < list[j].keyword })
		sorted[cat] = list
	}
	return &Categorizer{
		keywords:    sorted,
		minScore:    p.CategoryMinScore,
		titleWeight: p.TitleWeight,
		bodyWeight:  p.BodyWeight,
	}, nil
}

// Scores returns every category's score, highest first, ties in priority
// order.
func (c *Categorizer) Scores(title, body string) []Score {
	t := keywords.NewText(title)
	b := keywords.NewText(body)

	scores := make([]Score, 0, len(types.Categories()))
	for _, cat := range types.Categories() {
		var total float64
		for _, kw := range c.keywords[cat] {
			hits := float64(t.Count(kw.keyword))*c.titleWeight + float64(b.Count(kw.keyword))*c.bodyWeight
			total += hits * kw.weight
		}
		scores = append(scores, Score{Category: cat, Score: total})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return scores
}

// Categorize picks the best category, or unclassified when the best score
// is under the threshold.
func (c *Categorizer) Categorize(title, body string) types.Category {
	scores := c.Scores(title, body)
	if len(scores) == 0 || scores[0].Score <= 0 || scores[0].Score < c.minScore {
		return types.CategoryUnclassified
	}
	return scores[0].Category
}
