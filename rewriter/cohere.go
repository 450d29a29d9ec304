package rewriter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"rewritebot/types"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"
)

// CohereClient uses the Cohere chat API.
type CohereClient struct {
	client *cohereclient.Client
	model  string
}

func NewCohereClient(apiKey, model string, httpClient *http.Client) *CohereClient {
	client := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereClient{client: client, model: model}
}

func (c *CohereClient) Complete(ctx context.Context, req Request) (string, error) {
	chatReq := &cohere.ChatRequest{
		Message:     req.User,
		Temperature: &req.Temperature,
	}
	if req.System != "" {
		chatReq.Preamble = &req.System
	}
	if c.model != "" {
		chatReq.Model = &c.model
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = &req.MaxTokens
	}

	resp, err := c.client.Chat(ctx, chatReq)
	if err != nil {
		return "", cohereError(err)
	}
	if resp == nil {
		return "", &types.RewriteServiceError{Err: errors.New("cohere chat returned empty response")}
	}
	text := stripCodeFence(resp.Text)
	if text == "" {
		return "", &types.RewriteServiceError{Err: errors.New("empty completion")}
	}
	return text, nil
}

func cohereError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr *core.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
		return statusError(apiErr.StatusCode, "", strings.TrimSpace(apiErr.Error()))
	}
	return &types.RewriteServiceError{Err: fmt.Errorf("cohere chat: %w", err)}
}
