package rewriter

import (
	"context"
	"errors"
	"time"

	"rewritebot/config"
	"rewritebot/retry"
	"rewritebot/types"

	"github.com/rs/zerolog"
)

// ErrIrrelevant is returned when an article fails the relevance gate.
var ErrIrrelevant = errors.New("article is not relevant")

const (
	maxOutputTokens = 2048
	temperature     = 0.7
)

// Rewriter produces a RewriteDraft for one source article.
type Rewriter struct {
	service       Service
	policy        retry.Policy
	gate          RelevanceGate
	style         string
	language      string
	maxInputChars int
	log           zerolog.Logger
}

type Options struct {
	Style         string
	Language      string
	MaxInputChars int
	Gate          RelevanceGate
	Retry         retry.Policy
}

// OptionsFromConfig collects the rewriter settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Style:         cfg.Style,
		Language:      cfg.Language,
		MaxInputChars: cfg.MaxInputChars,
		Gate:          NewRelevanceGate(cfg.Policy.Relevance),
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
	}
}

func New(service Service, opts Options, log zerolog.Logger) *Rewriter {
	if !ValidStyle(opts.Style, opts.Language) {
		log.Warn().Str("style", opts.Style).Str("language", opts.Language).
			Msg("unknown style or language, using Normal/Dutch")
		opts.Style, opts.Language = config.DefaultStyle, config.DefaultLanguage
	}
	r := &Rewriter{
		service:       service,
		policy:        opts.Retry,
		gate:          opts.Gate,
		style:         opts.Style,
		language:      opts.Language,
		maxInputChars: opts.MaxInputChars,
		log:           log.With().Str("component", "rewriter").Logger(),
	}
	if r.policy.OnRetry == nil {
		r.policy.OnRetry = func(attempt int, class retry.Class, delay time.Duration, err error) {
			r.log.Warn().Err(err).Int("attempt", attempt).Stringer("class", class).
				Dur("delay", delay).Msg("rewrite attempt failed, backing off")
		}
	}
	return r
}

// Relevant runs the relevance gate.
func (r *Rewriter) Relevant(a *types.SourceArticle) (bool, []string) {
	return r.gate.Check(a)
}

// Rewrite calls the service under the retry policy and parses the output.
// It returns ErrIrrelevant without calling the service when the article
// fails the gate.
func (r *Rewriter) Rewrite(ctx context.Context, a *types.SourceArticle) (types.RewriteDraft, error) {
	ok, matched := r.gate.Check(a)
	if !ok {
		return types.RewriteDraft{}, ErrIrrelevant
	}

	req := Request{
		System:      StylePrompt(r.style, r.language),
		User:        UserPrompt(a.Title, Truncate(a.RawContent, r.maxInputChars), r.style),
		MaxTokens:   maxOutputTokens,
		Temperature: temperature,
	}

	var out string
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		text, err := r.service.Complete(ctx, req)
		if err != nil {
			return err
		}
		out = stripCodeFence(text)
		if out == "" {
			return &types.RewriteServiceError{Err: errors.New("empty completion")}
		}
		return nil
	})
	if err != nil {
		return types.RewriteDraft{}, err
	}

	content := FormatHTML(out)
	title := ExtractTitle(content, a.Title)
	return types.RewriteDraft{
		Title:       title,
		HTMLContent: content,
		Summary:     Summary(content),
		Slug:        Slugify(title),
		Tags:        Tags(matched),
		Language:    r.language,
		Style:       r.style,
	}, nil
}
