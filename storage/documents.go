package storage

import (
	"encoding/json"
	"strings"
	"time"

	"rewritebot/types"
)

// FullDocument is the articles_full shape.
func FullDocument(a *types.SourceArticle) Document {
	doc := Document{
		"title":          a.Title,
		"content":        a.RawContent,
		"url":            a.URL,
		"timestamp":      a.FetchedAt.UTC(),
		"source":         a.SourceName,
		"normalized_url": a.NormalizedURL,
		"content_hash":   a.ContentHash,
	}
	if a.Author != "" {
		doc["author"] = a.Author
	}
	if a.ImageURL != "" {
		doc["image_url"] = a.ImageURL
	}
	if !a.PublishedAt.IsZero() {
		doc["published_at"] = a.PublishedAt.UTC()
	}
	return doc
}

// RewrittenDocument is the articles_rewritten shape. siteBase is used for
// the forum URLs.
func RewrittenDocument(r *types.RewrittenArticle, siteBase string) Document {
	doc := Document{
		"title":        r.Title,
		"content":      r.HTMLContent,
		"category":     r.Category.String(),
		"original_url": r.OriginalURL,
		"timestamp":    r.CreatedAt.UTC(),
		"summary":      r.Summary,
		"source_id":    r.SourceArticleID,
	}
	if r.Slug != "" {
		doc["slug"] = r.Slug
		if siteBase != "" {
			canonical, discussion := ArticleURLs(siteBase, r.Slug)
			doc["canonical_url"] = canonical
			doc["discussion_url"] = discussion
		}
	}
	if len(r.Tags) > 0 {
		doc["tags"] = append([]string(nil), r.Tags...)
	}
	if r.Language != "" {
		doc["language"] = r.Language
	}
	if r.Style != "" {
		doc["style"] = r.Style
	}
	return doc
}

// copyDocument clones doc so stores never alias caller data.
func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		switch t := v.(type) {
		case []string:
			out[k] = append([]string(nil), t...)
		case time.Time:
			out[k] = t.UTC()
		default:
			out[k] = v
		}
	}
	return out
}

// ArticleURLs returns the forum's canonical and discussion URLs for a slug.
func ArticleURLs(siteBase, slug string) (canonical, discussion string) {
	base := strings.TrimRight(siteBase, "/")
	return base + "/article/" + slug, base + "/forum/recente-incidenten/" + slug
}

func encodeDocument(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// decodeDocument reverses encodeDocument. Lists come back as []string and
// "timestamp" and "*_at" fields as time.Time.
func decodeDocument(data []byte) (Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	doc := make(Document, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case []any:
			list := make([]string, 0, len(t))
			for _, item := range t {
				if s, ok := item.(string); ok {
					list = append(list, s)
				}
			}
			doc[k] = list
		case string:
			if k == "timestamp" || strings.HasSuffix(k, "_at") {
				if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
					doc[k] = ts
					continue
				}
			}
			doc[k] = t
		default:
			doc[k] = v
		}
	}
	return doc, nil
}
