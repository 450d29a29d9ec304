package deduplication

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rewritebot/common"
	"rewritebot/types"
)

// Index is the durable record of processed URLs and content hashes.
type Index interface {
	HasURL(ctx context.Context, normalizedURL string) (bool, error)
	HasHash(ctx context.Context, contentHash string) (bool, error)
	// Record stores rec unless its URL or hash is already present. It
	// returns false, without writing, when either one is.
	Record(ctx context.Context, rec types.DedupRecord) (bool, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Duplicate reasons
const (
	ReasonURL     = "url"
	ReasonContent = "content"
)

// DeduplicationResult contains the result of deduplication check
type DeduplicationResult struct {
	IsDuplicate bool      `json:"is_duplicate"`
	Reason      string    `json:"reason,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Deduplicator answers "have we seen this article" against an Index.
type Deduplicator struct {
	index Index
	now   func() time.Time
}

// NewDeduplicator wraps an index.
func NewDeduplicator(index Index) *Deduplicator {
	return &Deduplicator{index: index, now: time.Now}
}

// Index exposes the underlying index.
func (d *Deduplicator) Index() Index { return d.index }

// Check looks up the URL first, then the content hash.
func (d *Deduplicator) Check(ctx context.Context, normalizedURL, contentHash string) (*DeduplicationResult, error) {
	res := &DeduplicationResult{CheckedAt: d.now()}

	if normalizedURL != "" {
		seen, err := d.index.HasURL(ctx, normalizedURL)
		if err != nil {
			return nil, fmt.Errorf("url lookup: %w", err)
		}
		if seen {
			res.IsDuplicate, res.Reason = true, ReasonURL
			return res, nil
		}
	}

	if contentHash != "" {
		seen, err := d.index.HasHash(ctx, contentHash)
		if err != nil {
			return nil, fmt.Errorf("hash lookup: %w", err)
		}
		if seen {
			res.IsDuplicate, res.Reason = true, ReasonContent
		}
	}
	return res, nil
}

// CheckArticle runs Check for an extracted article.
func (d *Deduplicator) CheckArticle(ctx context.Context, a *types.SourceArticle) (*DeduplicationResult, error) {
	return d.Check(ctx, a.NormalizedURL, a.ContentHash)
}

// Record marks the article as processed. It returns false if another writer
// recorded the same URL or content first.
func (d *Deduplicator) Record(ctx context.Context, a *types.SourceArticle) (bool, error) {
	return d.index.Record(ctx, types.NewDedupRecord(a, d.now().UTC()))
}

func (d *Deduplicator) Close() error {
	return d.index.Close()
}

// Open builds the index and run lock for a DEDUP_INDEX url:
// memory://, sqlite://path or redis://[:password@]host:port/db.
func Open(ctx context.Context, rawURL string) (Index, Locker, error) {
	switch {
	case rawURL == "" || strings.HasPrefix(rawURL, "memory://"):
		return NewMemoryIndex(), NewMemoryLocker(), nil

	case strings.HasPrefix(rawURL, "sqlite://"):
		db, err := common.OpenSQLite(common.SQLitePath(rawURL))
		if err != nil {
			return nil, nil, err
		}
		idx, err := NewSQLiteIndex(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return idx, NewSQLiteLocker(db), nil

	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		idx, err := NewRedisIndexFromURL(ctx, rawURL)
		if err != nil {
			return nil, nil, err
		}
		return idx, NewRedisLocker(idx.Client(), idx.prefix), nil
	}
	return nil, nil, fmt.Errorf("unsupported dedup index %q", rawURL)
}
