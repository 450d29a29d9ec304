package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"rewritebot/types"

	"gopkg.in/yaml.v3"
)

// Source kinds
const (
	SourceRSS  = "rss"
	SourceHTML = "html"
)

// Source is one listing endpoint.
type Source struct {
	Name         string `yaml:"name"`
	URL          string `yaml:"url"`
	Kind         string `yaml:"kind"`
	LinkSelector string `yaml:"link_selector,omitempty"`
}

// RelevancePolicy gates articles before they reach the rewriting service.
type RelevancePolicy struct {
	Keywords []string `yaml:"keywords"`
	MinHits  int      `yaml:"min_hits"`
}

// Policy holds the tunable editorial inputs: where to look, what counts as
// on-topic and how categories are scored.
type Policy struct {
	Sources          []Source                      `yaml:"sources"`
	Relevance        RelevancePolicy               `yaml:"relevance"`
	Categories       map[string]map[string]float64 `yaml:"categories"`
	CategoryMinScore float64                       `yaml:"category_min_score"`
	TitleWeight      float64                       `yaml:"title_weight"`
	BodyWeight       float64                       `yaml:"body_weight"`
}

// LoadPolicy reads a YAML policy file. A missing file yields the defaults.
func LoadPolicy(path string) (*Policy, error) {
	p := &Policy{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read policy %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, p); err != nil {
				return nil, fmt.Errorf("parse policy %s: %w", path, err)
			}
		}
	}

	applyPolicyDefaults(p)
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

// DefaultPolicy returns the built-in sources, keywords and thresholds.
func DefaultPolicy() *Policy {
	p := &Policy{}
	applyPolicyDefaults(p)
	return p
}

// CategoryKeywords returns the keyword weights keyed by typed category.
func (p *Policy) CategoryKeywords() (map[types.Category]map[string]float64, error) {
	out := make(map[types.Category]map[string]float64, len(p.Categories))
	for name, kws := range p.Categories {
		c, err := types.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		if c == types.CategoryUnclassified {
			return nil, fmt.Errorf("category %q cannot carry keywords", name)
		}
		out[c] = kws
	}
	return out, nil
}

func (p *Policy) validate() error {
	for i, s := range p.Sources {
		if s.URL == "" {
			return fmt.Errorf("source %d (%s) has no url", i, s.Name)
		}
		if s.Kind != SourceRSS && s.Kind != SourceHTML {
			return fmt.Errorf("source %s: unknown kind %q", s.Name, s.Kind)
		}
	}
	if _, err := p.CategoryKeywords(); err != nil {
		return err
	}
	if p.Relevance.MinHits < 0 || p.CategoryMinScore < 0 {
		return errors.New("thresholds must not be negative")
	}
	return nil
}

func applyPolicyDefaults(p *Policy) {
	if len(p.Sources) == 0 {
		p.Sources = append([]Source(nil), defaultSources...)
	}
	for i := range p.Sources {
		s := &p.Sources[i]
		s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
		if s.Kind == "" {
			s.Kind = SourceRSS
		}
		if s.Name == "" {
			s.Name = s.URL
		}
		if s.Kind == SourceHTML && s.LinkSelector == "" {
			s.LinkSelector = "article a[href]"
		}
	}
	if len(p.Relevance.Keywords) == 0 {
		p.Relevance.Keywords = append([]string(nil), defaultRelevanceKeywords...)
	}
	if p.Relevance.MinHits == 0 {
		p.Relevance.MinHits = 1
	}
	if len(p.Categories) == 0 {
		p.Categories = make(map[string]map[string]float64, len(defaultCategoryKeywords))
		for c, kws := range defaultCategoryKeywords {
			weights := make(map[string]float64, len(kws))
			for _, kw := range kws {
				weights[kw] = 1
			}
			p.Categories[string(c)] = weights
		}
	}
	if p.CategoryMinScore == 0 {
		p.CategoryMinScore = 2
	}
	if p.TitleWeight == 0 {
		p.TitleWeight = 3
	}
	if p.BodyWeight == 0 {
		p.BodyWeight = 1
	}
}
