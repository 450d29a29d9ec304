package rewriter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rewritebot/types"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// The default base URL is Groq's.
type OpenAIClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewOpenAIClient(baseURL, model, apiKey string, httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion and returns the assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", &types.RewriteServiceError{Permanent: true, Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &types.RewriteServiceError{Permanent: true, Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", &types.RewriteServiceError{Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", statusError(resp.StatusCode, resp.Header.Get("Retry-After"), strings.TrimSpace(string(msg)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &types.RewriteServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &types.RewriteServiceError{StatusCode: resp.StatusCode, Err: errors.New("no choices in response")}
	}

	content := stripCodeFence(chatResp.Choices[0].Message.Content)
	if content == "" {
		return "", &types.RewriteServiceError{StatusCode: resp.StatusCode, Err: errors.New("empty completion")}
	}
	return content, nil
}

// statusError maps a non-200 status onto the error taxonomy.
func statusError(status int, retryAfter, msg string) error {
	err := fmt.Errorf("service returned %d: %s", status, msg)
	switch {
	case status == http.StatusTooManyRequests:
		return &types.RateLimitError{RetryAfter: parseRetryAfter(retryAfter), Err: err}
	case status >= 500:
		return &types.RewriteServiceError{StatusCode: status, Err: err}
	case status == http.StatusRequestTimeout:
		return &types.RewriteServiceError{StatusCode: status, Err: err}
	default:
		return &types.RewriteServiceError{StatusCode: status, Permanent: true, Err: err}
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
