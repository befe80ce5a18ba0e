// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. The
// filename is the key name and the trimmed file contents are the value.
// Keys with a known environment variable fall back to it when no file is
// present.
//
// Supported key files: openai-api-key, anthropic-api-key,
// semantic-scholar-api-key, openalex-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

const (
	OpenAIKey          = "openai-api-key"
	AnthropicKey       = "anthropic-api-key"
	SemanticScholarKey = "semantic-scholar-api-key"
	OpenAlexEmail      = "openalex-email"
)

// envFallback maps key names to the environment variable consulted when
// the key file is absent.
var envFallback = map[string]string{
	OpenAIKey:          "OPENAI_API_KEY",
	AnthropicKey:       "ANTHROPIC_API_KEY",
	SemanticScholarKey: "SEMANTIC_SCHOLAR_API_KEY",
	OpenAlexEmail:      "OPENALEX_EMAIL",
}

// Set holds loaded secrets.
type Set map[string]string

// Load reads all files in dir. A missing directory is not an error; Load
// returns an empty Set. Unreadable files are logged and skipped.
func Load(dir string, log *zap.Logger) (Set, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Get returns the secret called name, falling back to its environment
// variable.
func (s Set) Get(name string) string {
	if v := s[name]; v != "" {
		return v
	}
	if env, ok := envFallback[name]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}

// APIKey returns the key for an LLM provider.
func (s Set) APIKey(provider types.LLMProvider) string {
	if provider == types.ProviderClaude {
		return s.Get(AnthropicKey)
	}
	return s.Get(OpenAIKey)
}
