// Package rewriter turns a source article into an original HTML article
// through an AI text service.
package rewriter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"rewritebot/config"
)

// Request is one chat-style completion call.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Service is an AI text service. Implementations map throttling to
// *types.RateLimitError and every other failure to *types.RewriteServiceError.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NewService builds the client selected by cfg.Provider.
func NewService(cfg *config.Config) (Service, error) {
	httpClient := &http.Client{Timeout: 120 * time.Second}
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.BaseURL, cfg.Model, cfg.APIKey, httpClient), nil
	case "cohere":
		return NewCohereClient(cfg.APIKey, cfg.Model, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown rewrite provider %q", cfg.Provider)
	}
}
