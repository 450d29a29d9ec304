// Package orchestrator drives one bounded run of the ingestion and rewrite
// pipeline.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"rewritebot/browser"
	"rewritebot/categorizer"
	"rewritebot/common"
	"rewritebot/config"
	"rewritebot/deduplication"
	"rewritebot/publish"
	"rewritebot/retry"
	"rewritebot/rewriter"
	"rewritebot/rssfeeds"
	"rewritebot/storage"
	"rewritebot/types"
	"rewritebot/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrStoreUnavailable is returned when consecutive persistence failures
// reach the configured limit.
var ErrStoreUnavailable = errors.New("store unavailable")

// Stop reasons reported in the summary.
const (
	StopArticleLimit     = "article limit reached"
	StopRunBudget        = "run budget exhausted"
	StopCancelled        = "cancelled"
	StopStoreUnavailable = "store unavailable"
)

// Fetcher discovers candidates and retrieves their pages.
type Fetcher interface {
	Discover(ctx context.Context, src config.Source) ([]rssfeeds.Candidate, error)
	FetchPage(ctx context.Context, url string) (*browser.Page, error)
}

// Deps are the pipeline components. Publisher may be nil.
type Deps struct {
	Fetcher     Fetcher
	Extractor   *rssfeeds.Extractor
	Dedup       *deduplication.Deduplicator
	Locker      deduplication.Locker
	Rewriter    *rewriter.Rewriter
	Categorizer *categorizer.Categorizer
	Validator   *validator.Validator
	Store       storage.DocumentStore
	Writer      *storage.Writer
	Publisher   publish.Publisher
}

// Options bound a run.
type Options struct {
	Sources           []config.Source
	ArticleLimit      int
	RunBudget         time.Duration
	Pace              time.Duration
	LockTTL           time.Duration
	StoreFailureLimit int
	DryRun            bool
	ScrapeInterval    string
	// SummaryOut receives the rendered summary box. Nil disables it.
	SummaryOut io.Writer
}

// Orchestrator runs the pipeline sequentially, one article at a time, in
// discovery order.
type Orchestrator struct {
	deps Deps
	opts Options
	log  zerolog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(deps Deps, opts Options, log zerolog.Logger) *Orchestrator {
	if deps.Publisher == nil {
		deps.Publisher = publish.Nop{}
	}
	if opts.StoreFailureLimit <= 0 {
		opts.StoreFailureLimit = config.DefaultStoreFailureLimit
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = config.DefaultLockTTL
	}
	return &Orchestrator{
		deps:  deps,
		opts:  opts,
		log:   log.With().Str("component", "orchestrator").Logger(),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// run holds per-run mutable state.
type run struct {
	id            string
	summary       *types.RunSummary
	deadline      time.Time
	attempted     int
	storeFailures int
	log           zerolog.Logger
}

// RunOnce executes one pass. The returned error is non-nil only for
// run-fatal conditions; per-article failures are counted in the summary.
func (o *Orchestrator) RunOnce(ctx context.Context) (*types.RunSummary, error) {
	start := o.now()
	id := uuid.NewString()
	r := &run{
		id:      id,
		summary: types.NewRunSummary(id, start),
	}
	r.summary.DryRun = o.opts.DryRun
	if o.opts.RunBudget > 0 {
		r.deadline = start.Add(o.opts.RunBudget)
	}
	r.log = o.log.With().Str("run_id", r.id).Logger()
	r.log.Info().Int("limit", o.opts.ArticleLimit).Dur("budget", o.opts.RunBudget).
		Bool("dry_run", o.opts.DryRun).Msg("run started")

	err := o.run(ctx, r)
	o.finish(r, err)
	return r.summary, err
}

func (o *Orchestrator) run(ctx context.Context, r *run) error {
	lock, err := o.deps.Locker.Acquire(ctx, r.id, o.opts.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	defer func() {
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(rctx); err != nil {
			r.log.Warn().Err(err).Msg("failed to release run lock")
		}
	}()

	if err := o.deps.Store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, src := range o.opts.Sources {
		if reason := o.stopReason(ctx, r); reason != "" {
			r.stop(reason)
			return nil
		}
		cands, err := o.deps.Fetcher.Discover(ctx, src)
		if err != nil {
			r.summary.SourcesFailed++
			r.summary.RecordFailure(err)
			r.log.Warn().Err(err).Str("source", src.Name).Str("url", src.URL).Str("stage", "listing").
				Msg("source skipped")
			continue
		}
		for _, cand := range cands {
			if reason := o.stopReason(ctx, r); reason != "" {
				r.stop(reason)
				return nil
			}
			if err := o.process(ctx, r, cand); err != nil {
				return err
			}
		}
	}
	if reason := o.stopReason(ctx, r); reason == StopRunBudget || reason == StopCancelled {
		r.stop(reason)
	}
	return nil
}

func (r *run) stop(reason string) {
	r.summary.StoppedEarly = true
	r.summary.StopReason = reason
	r.log.Info().Str("reason", reason).Msg("no further articles this run")
}

// stopReason says why no new article may start, or "".
func (o *Orchestrator) stopReason(ctx context.Context, r *run) string {
	switch {
	case ctx.Err() != nil:
		return StopCancelled
	case o.opts.ArticleLimit > 0 && r.attempted >= o.opts.ArticleLimit:
		return StopArticleLimit
	case !r.deadline.IsZero() && !o.now().Before(r.deadline):
		return StopRunBudget
	}
	return ""
}

// process takes one candidate to a terminal state. Only ErrStoreUnavailable
// is returned; everything else is counted.
func (o *Orchestrator) process(ctx context.Context, r *run, cand rssfeeds.Candidate) error {
	it := newItem()
	log := r.log.With().Str("url", cand.URL).Str("source", cand.SourceName).Logger()

	// cheap URL check before spending a fetch on a known article
	if seen, err := o.deps.Dedup.Index().HasURL(ctx, types.NormalizeURL(cand.URL)); err == nil && seen {
		it.move(StateDuplicate)
		r.summary.Duplicates++
		log.Debug().Str("reason", deduplication.ReasonURL).Msg("duplicate")
		return nil
	}

	r.attempted++
	defer o.pace(ctx, r)

	page, err := o.deps.Fetcher.FetchPage(ctx, cand.URL)
	if err != nil {
		o.fail(r, it, log, "fetch", err)
		return nil
	}
	it.move(StateFetched)
	r.summary.Fetched++

	src, err := o.deps.Extractor.Extract(page, cand, o.now().UTC())
	if err != nil {
		o.fail(r, it, log, "extract", err)
		return nil
	}
	it.move(StateExtracted)
	r.summary.Extracted++
	log = log.With().Str("article_id", src.ID).Logger()

	dup, err := o.deps.Dedup.CheckArticle(ctx, src)
	if err != nil {
		return o.persistFailure(r, it, log, &types.PersistenceError{Collection: "dedup_index", ID: src.ID, Err: err})
	}
	if dup.IsDuplicate {
		it.move(StateDuplicate)
		r.summary.Duplicates++
		log.Debug().Str("reason", dup.Reason).Msg("duplicate")
		return nil
	}

	if ok, _ := o.deps.Rewriter.Relevant(src); !ok {
		log.Info().Str("title", src.Title).Msg("not relevant, storing original only")
		return o.write(ctx, r, it, log, src, nil, StateIrrelevant)
	}

	it.move(StateRewritePending)
	draft, err := o.deps.Rewriter.Rewrite(ctx, src)
	if err != nil {
		o.fail(r, it, log, "rewrite", err)
		return nil
	}
	it.move(StateRewritten)

	category := o.deps.Categorizer.Categorize(draft.Title, common.PlainText(draft.HTMLContent))
	rewritten, err := types.NewRewrittenArticle(src, draft, category, o.now().UTC())
	if err == nil {
		var res validator.Result
		res, err = o.deps.Validator.Validate(rewritten.Title, rewritten.HTMLContent)
		if err == nil {
			rewritten.HTMLContent = res.HTML
			rewritten.Summary = rewriter.Summary(res.HTML)
			if res.Stripped > 0 {
				log.Warn().Int("stripped", res.Stripped).Msg("removed unsafe markup from rewrite")
			}
		}
	} else {
		err = &types.ValidationFailure{Reasons: []string{err.Error()}}
	}
	if err != nil {
		r.summary.RecordFailure(err)
		log.Warn().Err(err).Str("stage", "validate").Msg("rewrite rejected, storing original only")
		return o.write(ctx, r, it, log, src, nil, StateRejected)
	}
	it.move(StateValidated)
	log.Debug().Str("category", category.String()).Str("title", rewritten.Title).Msg("rewrite accepted")

	return o.write(ctx, r, it, log, src, rewritten, StatePersisted)
}

// write stores the original and optional rewrite and moves it to done.
func (o *Orchestrator) write(ctx context.Context, r *run, it *item, log zerolog.Logger,
	src *types.SourceArticle, rewritten *types.RewrittenArticle, done State) error {

	if o.opts.DryRun {
		it.move(done)
		o.countPersisted(r, done, rewritten != nil)
		log.Info().Str("state", string(done)).Msg("dry run, nothing written")
		return nil
	}

	res, err := o.deps.Writer.Write(ctx, src, rewritten)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		it.move(StateDuplicate)
		r.summary.Duplicates++
		log.Info().Err(err).Msg("duplicate at write time")
		return nil
	case err != nil:
		return o.persistFailure(r, it, log, err)
	}

	r.storeFailures = 0
	it.move(done)
	o.countPersisted(r, done, res.RewrittenWritten)
	if res.RewrittenSkipped {
		r.summary.RecordFailure(res.RewrittenErr)
	}
	if res.RewrittenWritten {
		if err := o.deps.Publisher.Publish(ctx, rewritten); err != nil {
			log.Warn().Err(err).Msg("publish failed")
		}
	}
	log.Info().Str("trail", it.path()).Bool("rewritten", res.RewrittenWritten).Msg("article stored")
	return nil
}

func (o *Orchestrator) countPersisted(r *run, done State, rewritten bool) {
	r.summary.Persisted++
	switch done {
	case StateIrrelevant:
		r.summary.Irrelevant++
	case StateRejected:
		r.summary.Rejected++
	}
	if rewritten {
		r.summary.Rewritten++
	}
}

func (o *Orchestrator) fail(r *run, it *item, log zerolog.Logger, stage string, err error) {
	it.move(StateFailed)
	r.summary.Failed++
	r.summary.RecordFailure(err)
	ev := log.Warn().Err(err).Str("stage", stage).Str("trail", it.path())
	if n := retry.Attempts(err); n > 0 {
		ev = ev.Int("attempts", n)
	}
	ev.Msg("article failed")
}

// persistFailure counts a store error and turns a run of them into
// ErrStoreUnavailable.
func (o *Orchestrator) persistFailure(r *run, it *item, log zerolog.Logger, err error) error {
	o.fail(r, it, log, "persist", err)
	r.storeFailures++
	if r.storeFailures >= o.opts.StoreFailureLimit {
		r.stop(StopStoreUnavailable)
		return fmt.Errorf("%w: %d consecutive write failures: %v", ErrStoreUnavailable, r.storeFailures, err)
	}
	return nil
}

func (o *Orchestrator) pace(ctx context.Context, r *run) {
	if o.opts.Pace <= 0 {
		return
	}
	if err := o.sleep(ctx, o.opts.Pace); err != nil {
		r.log.Debug().Err(err).Msg("pace interrupted")
	}
}

func (o *Orchestrator) finish(r *run, err error) {
	s := r.summary
	s.FinishedAt = o.now()
	if next, nerr := config.NextRun(o.opts.ScrapeInterval, s.FinishedAt); nerr == nil {
		s.NextRun = next
	}

	ev := r.log.Info()
	if err != nil {
		ev = r.log.Error().Err(err)
	}
	LogSummary(ev, s).Msg("run finished")
	if o.opts.SummaryOut != nil {
		fmt.Fprintln(o.opts.SummaryOut, RenderSummary(s, err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
