package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"

	"rewritebot/browser"
	"rewritebot/categorizer"
	"rewritebot/config"
	"rewritebot/deduplication"
	"rewritebot/publish"
	"rewritebot/retry"
	"rewritebot/rewriter"
	"rewritebot/rssfeeds"
	"rewritebot/storage"
	"rewritebot/validator"

	"github.com/rs/zerolog"
)

// FromConfig wires every component from cfg. The returned close function
// releases browsers, index, store and producer.
func FromConfig(ctx context.Context, cfg *config.Config, summaryOut io.Writer, log zerolog.Logger) (*Orchestrator, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*Orchestrator, func() error, error) {
		closeAll()
		return nil, nil, err
	}

	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}

	feeds := browser.NewHTTP(cfg.FetchTimeout, cfg.UserAgent)
	closers = append(closers, feeds.Close)
	var pages browser.Browser = feeds
	if cfg.Browser == "chrome" {
		chrome, err := browser.NewChrome(cfg.FetchTimeout, cfg.UserAgent)
		if err != nil {
			return fail(fmt.Errorf("start chrome: %w", err))
		}
		closers = append(closers, chrome.Close)
		pages = chrome
	}

	index, locker, err := deduplication.Open(ctx, cfg.DedupIndex)
	if err != nil {
		return fail(fmt.Errorf("open dedup index: %w", err))
	}
	dedup := deduplication.NewDeduplicator(index)
	closers = append(closers, dedup.Close)

	store, err := storage.Open(ctx, cfg.Store, cfg.ServiceAccountPath)
	if err != nil {
		return fail(fmt.Errorf("open store: %w", err))
	}
	closers = append(closers, store.Close)

	var service rewriter.Service = unavailableService{}
	if cfg.APIKey != "" {
		service, err = rewriter.NewService(cfg)
		if err != nil {
			return fail(err)
		}
	}

	cat, err := categorizer.New(cfg.Policy)
	if err != nil {
		return fail(err)
	}

	var pub publish.Publisher = publish.Nop{}
	if len(cfg.KafkaBrokers) > 0 && !cfg.DryRun {
		kp, err := publish.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, kp.Close)
		pub = kp
	}

	deps := Deps{
		Fetcher:     rssfeeds.NewFetcher(feeds, pages, policy, log.With().Str("component", "fetcher").Logger()),
		Extractor:   &rssfeeds.Extractor{MinBodyChars: cfg.MinBodyChars},
		Dedup:       dedup,
		Locker:      locker,
		Rewriter:    rewriter.New(service, rewriter.OptionsFromConfig(cfg), log),
		Categorizer: cat,
		Validator:   validator.New(cfg.MinRewriteChars),
		Store:       store,
		Writer:      storage.NewWriter(store, dedup, cfg.SiteBaseURL, log),
		Publisher:   pub,
	}
	opts := Options{
		Sources:           cfg.Policy.Sources,
		ArticleLimit:      cfg.ArticleLimit,
		RunBudget:         cfg.RunBudget,
		Pace:              cfg.Pace,
		LockTTL:           cfg.LockTTL,
		StoreFailureLimit: cfg.StoreFailureLimit,
		DryRun:            cfg.DryRun,
		ScrapeInterval:    cfg.ScrapeInterval,
		SummaryOut:        summaryOut,
	}
	return New(deps, opts, log), closeAll, nil
}

// unavailableService stands in when no API key is configured, which only
// Validate allows for dry runs. Relevant articles then fail at the
// rewrite stage.
type unavailableService struct{}

func (unavailableService) Complete(context.Context, rewriter.Request) (string, error) {
	return "", errNoAPIKey
}

var errNoAPIKey = errors.New("no rewrite service API key configured")
