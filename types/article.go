package types

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyURL        = errors.New("article url is empty")
	ErrEmptyTitle      = errors.New("article title is empty")
	ErrEmptyBody       = errors.New("article body is empty")
	ErrEmptyHTML       = errors.New("rewritten html is empty")
	ErrNilSource       = errors.New("source article is nil")
	ErrUnknownCategory = errors.New("unknown category")
)

// rewriteNamespace scopes the deterministic rewrite IDs.
var rewriteNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("rewritebot/articles_rewritten"))

// SourceArticle is one fetched and extracted source item, before rewriting.
type SourceArticle struct {
	ID            string    `json:"id"`
	URL           string    `json:"url"`
	NormalizedURL string    `json:"normalized_url"`
	Title         string    `json:"title"`
	RawContent    string    `json:"raw_content"`
	ContentHash   string    `json:"content_hash"`
	SourceName    string    `json:"source_name"`
	Author        string    `json:"author,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	PublishedAt   time.Time `json:"published_at,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// NewSourceArticle builds a SourceArticle and derives its identity from the
// normalized URL and its content hash from the normalized body.
func NewSourceArticle(rawURL, title, body, sourceName string, fetchedAt time.Time) (*SourceArticle, error) {
	normURL := NormalizeURL(rawURL)
	if normURL == "" {
		return nil, ErrEmptyURL
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	return &SourceArticle{
		ID:            GenerateID(normURL),
		URL:           strings.TrimSpace(rawURL),
		NormalizedURL: normURL,
		Title:         title,
		RawContent:    body,
		ContentHash:   ContentHash(body),
		SourceName:    sourceName,
		FetchedAt:     fetchedAt,
	}, nil
}

// RewriteDraft is the parsed output of the rewriting service before it is
// categorized and validated.
type RewriteDraft struct {
	Title       string
	HTMLContent string
	Summary     string
	Slug        string
	Tags        []string
	Language    string
	Style       string
}

// RewrittenArticle is the accepted rewrite of exactly one SourceArticle.
type RewrittenArticle struct {
	ID              string    `json:"id"`
	SourceArticleID string    `json:"source_article_id"`
	OriginalURL     string    `json:"original_url"`
	Title           string    `json:"title"`
	HTMLContent     string    `json:"html_content"`
	Category        Category  `json:"category"`
	Summary         string    `json:"summary"`
	Slug            string    `json:"slug,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	Language        string    `json:"language,omitempty"`
	Style           string    `json:"style,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewRewrittenArticle ties a draft to its source. The ID is derived from the
// source ID so a second write for the same source collides in the store.
func NewRewrittenArticle(source *SourceArticle, draft RewriteDraft, category Category, createdAt time.Time) (*RewrittenArticle, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	html := strings.TrimSpace(draft.HTMLContent)
	if html == "" {
		return nil, ErrEmptyHTML
	}
	if !category.Valid() {
		return nil, ErrUnknownCategory
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return &RewrittenArticle{
		ID:              RewriteID(source.ID),
		SourceArticleID: source.ID,
		OriginalURL:     source.URL,
		Title:           title,
		HTMLContent:     html,
		Category:        category,
		Summary:         strings.TrimSpace(draft.Summary),
		Slug:            draft.Slug,
		Tags:            draft.Tags,
		Language:        draft.Language,
		Style:           draft.Style,
		CreatedAt:       createdAt,
	}, nil
}

// RewriteID returns the deterministic rewrite document ID for a source ID.
func RewriteID(sourceID string) string {
	return uuid.NewSHA1(rewriteNamespace, []byte(sourceID)).String()
}

// DedupRecord marks a source URL and body as processed.
type DedupRecord struct {
	NormalizedURL string    `json:"normalized_url"`
	ContentHash   string    `json:"content_hash"`
	FirstSeenAt   time.Time `json:"first_seen_at"`
}

// NewDedupRecord builds the index record for an article.
func NewDedupRecord(a *SourceArticle, seenAt time.Time) DedupRecord {
	if seenAt.IsZero() {
		seenAt = time.Now().UTC()
	}
	return DedupRecord{
		NormalizedURL: a.NormalizedURL,
		ContentHash:   a.ContentHash,
		FirstSeenAt:   seenAt,
	}
}
