// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm sends structured prompts to a language model and decodes the
// JSON object it returns.
//
// Two backends implement Completer: OpenAIBackend (Chat Completions in JSON
// mode) and ClaudeBackend (Anthropic Messages API). Agents depend only on
// Completer, so tests substitute a canned implementation.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// ErrNoAPIKey is returned by New when the selected provider has no key.
var ErrNoAPIKey = errors.New("no API key configured for LLM provider")

// Completer returns the model's raw text reply to a single-turn prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Validator is implemented by response types that can reject a decoded
// but semantically empty reply.
type Validator interface {
	Validate() error
}

// SchemaError reports a reply that was valid JSON but did not match the
// expected object shape.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "response schema: " + e.Reason }

// New builds the backend selected by cfg.Provider.
func New(cfg types.LLMConfig, log *zap.Logger) (Completer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w (%s)", ErrNoAPIKey, cfg.Provider)
	}
	client := &http.Client{Timeout: cfg.Timeout}

	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		return NewOpenAIBackend(cfg, client, log), nil
	case types.ProviderClaude:
		return &ClaudeBackend{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Client:     client,
			MaxRetries: cfg.MaxRetries,
			log:        log,
		}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (available: openai, claude)", cfg.Provider)
	}
}

// CompleteJSON sends prompt and decodes the reply into v. When v implements
// Validator its Validate method runs after decoding.
func CompleteJSON(ctx context.Context, c Completer, prompt string, v any) error {
	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	if err := DecodeJSON(raw, v); err != nil {
		return err
	}
	if val, ok := v.(Validator); ok {
		if err := val.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DecodeJSON parses the first JSON object in raw into v. Models sometimes
// wrap the object in a Markdown code fence or a sentence; anything outside
// the outermost braces is ignored.
func DecodeJSON(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return &SchemaError{Reason: "no JSON object in model reply"}
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("parsing model reply JSON: %w", err)
	}
	return nil
}
