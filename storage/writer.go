package storage

import (
	"context"
	"errors"
	"fmt"

	"rewritebot/deduplication"
	"rewritebot/types"

	"github.com/rs/zerolog"
)

// ErrDuplicate means the article was already recorded; nothing new was
// written for it.
var ErrDuplicate = errors.New("article already processed")

// WriteResult reports what Write stored.
type WriteResult struct {
	OriginalWritten  bool
	RewrittenWritten bool
	// RewrittenSkipped is set when a rewrite was passed in but its write
	// failed. The original stands.
	RewrittenSkipped bool
	RewrittenErr     error
}

// Writer stores an original and its optional rewrite, keeping the dedup
// index in step with articles_full.
type Writer struct {
	store       DocumentStore
	dedup       *deduplication.Deduplicator
	siteBaseURL string
	log         zerolog.Logger
}

func NewWriter(store DocumentStore, dedup *deduplication.Deduplicator, siteBaseURL string, log zerolog.Logger) *Writer {
	return &Writer{
		store:       store,
		dedup:       dedup,
		siteBaseURL: siteBaseURL,
		log:         log.With().Str("component", "writer").Logger(),
	}
}

// Write persists source and, when non-nil, rewritten:
//
//  1. re-check the dedup index;
//  2. create the articles_full document;
//  3. record the dedup entry;
//  4. create the articles_rewritten document.
//
// Failures in 1-3 leave no rewrite behind. A failed rewrite write is
// reported in WriteResult, not as an error.
func (w *Writer) Write(ctx context.Context, source *types.SourceArticle, rewritten *types.RewrittenArticle) (WriteResult, error) {
	var res WriteResult

	dup, err := w.dedup.CheckArticle(ctx, source)
	if err != nil {
		return res, &types.PersistenceError{Collection: "dedup_index", ID: source.ID, Err: err}
	}
	if dup.IsDuplicate {
		return res, fmt.Errorf("%w (%s)", ErrDuplicate, dup.Reason)
	}

	err = w.store.Create(ctx, CollectionFull, source.ID, FullDocument(source))
	if errors.Is(err, ErrAlreadyExists) {
		// the store knows the article but the index does not; heal the index
		if _, rerr := w.dedup.Record(ctx, source); rerr != nil {
			w.log.Warn().Err(rerr).Str("url", source.URL).Msg("failed to record dedup entry for stored article")
		}
		return res, fmt.Errorf("%w (stored)", ErrDuplicate)
	}
	if err != nil {
		return res, &types.PersistenceError{Collection: CollectionFull, ID: source.ID, Err: err}
	}
	res.OriginalWritten = true

	recorded, err := w.dedup.Record(ctx, source)
	if err != nil {
		return res, &types.PersistenceError{Collection: "dedup_index", ID: source.ID, Err: err}
	}
	if !recorded {
		return res, fmt.Errorf("%w (concurrent writer)", ErrDuplicate)
	}

	if rewritten == nil {
		return res, nil
	}
	err = w.store.Create(ctx, CollectionRewritten, rewritten.ID, RewrittenDocument(rewritten, w.siteBaseURL))
	if err != nil {
		res.RewrittenSkipped = true
		res.RewrittenErr = &types.PersistenceError{Collection: CollectionRewritten, ID: rewritten.ID, Err: err}
		w.log.Error().Err(err).Str("url", source.URL).Str("rewrite_id", rewritten.ID).
			Msg("rewritten article not stored, original kept")
		return res, nil
	}
	res.RewrittenWritten = true
	return res, nil
}
