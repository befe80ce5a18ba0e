// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// RetryBaseDelay is the first backoff between failed completion attempts.
// Tests override it to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

// systemPrompt frames every request sent to the OpenAI backend.
const systemPrompt = "You are a biomedical research assistant. Always respond with a single valid JSON object."

// OpenAIBackend requests chat completions in JSON mode.
type OpenAIBackend struct {
	client     *openai.Client
	model      string
	maxRetries int
	log        *zap.Logger
}

// NewOpenAIBackend returns a backend using httpClient for transport. An empty
// cfg.BaseURL keeps the public OpenAI endpoint.
func NewOpenAIBackend(cfg types.LLMConfig, httpClient *http.Client, log *zap.Logger) *OpenAIBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4o
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenAIBackend{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		maxRetries: cfg.MaxRetries,
		log:        log,
	}
}

// Complete sends prompt as a single user message and returns the reply text.
// Rate limits and server errors are retried with exponential backoff.
func (b *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	}

	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := RetryBaseDelay * time.Duration(1<<(attempt-1))
			b.log.Debug("retrying completion",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := b.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			if !retryable(err) {
				break
			}
			continue
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("OpenAI returned no choices")
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("calling OpenAI: %w", lastErr)
}

// retryable reports whether err is a rate limit or a server-side failure.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return false
}
