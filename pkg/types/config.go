// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout bounds each request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "hyphotesys/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMProvider selects the completion backend.
type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderClaude LLMProvider = "claude"
)

// LLMConfig holds settings for the LLM completion service.
type LLMConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects openai or claude.
	Provider LLMProvider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible servers).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for the literature search service.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the number of papers requested (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MinInterval is the minimum spacing between requests to the API (default 3s).
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// Backends names the sources queried in order: arxiv,
	// semantic_scholar, openalex (default arxiv only).
	Backends []string `json:"backends" yaml:"backends"`

	// SemanticScholarKey is the optional Semantic Scholar API key.
	SemanticScholarKey string `json:"-" yaml:"-"`

	// OpenAlexEmail is sent as mailto for the OpenAlex polite pool.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// StoreConfig locates the persisted session registry, project files, and profile.
type StoreConfig struct {
	// DataDir is the base directory; relative paths below resolve against it.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// RegistryFile holds every session in one JSON document (default "sessions.json").
	RegistryFile string `json:"registry_file" yaml:"registry_file"`

	// ProjectsDir holds one JSON document per project (default "projects").
	ProjectsDir string `json:"projects_dir" yaml:"projects_dir"`

	// ProfileFile holds the researcher profile (default "profile.json").
	ProfileFile string `json:"profile_file" yaml:"profile_file"`

	// PapersDir receives downloaded PDFs, one subdirectory per session
	// (default "papers").
	PapersDir string `json:"papers_dir" yaml:"papers_dir"`
}

// LibraryConfig holds settings for the cross-session paper library.
type LibraryConfig struct {
	// Enabled turns indexing on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir contains library.db and exports (default "library").
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default number of lookup results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// DocumentBackend selects how the file agent extracts text.
type DocumentBackend string

const (
	DocumentAuto       DocumentBackend = "auto"
	DocumentText       DocumentBackend = "text"
	DocumentMarkitdown DocumentBackend = "markitdown"
)

// PipelineConfig holds orchestration settings.
type PipelineConfig struct {
	// AgentTimeout bounds a single agent run, including its network calls (default 60s).
	AgentTimeout time.Duration `json:"agent_timeout" yaml:"agent_timeout"`

	// ReaderPapers is how many search results the reader summarizes (default 3).
	ReaderPapers int `json:"reader_papers" yaml:"reader_papers"`
}

// Config groups all component settings.
type Config struct {
	Store    StoreConfig     `json:"store" yaml:"store"`
	Library  LibraryConfig   `json:"library" yaml:"library"`
	LLM      LLMConfig       `json:"llm" yaml:"llm"`
	Search   SearchConfig    `json:"search" yaml:"search"`
	Pipeline PipelineConfig  `json:"pipeline" yaml:"pipeline"`
	Document DocumentBackend `json:"document_backend" yaml:"document_backend"`
}

// DefaultConfig returns the settings used when no config file is present.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			DataDir:      ".",
			RegistryFile: "sessions.json",
			ProjectsDir:  "projects",
			ProfileFile:  "profile.json",
			PapersDir:    "papers",
		},
		Library: LibraryConfig{
			Enabled:    true,
			Dir:        "library",
			MaxResults: 20,
		},
		LLM: LLMConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second},
			Provider:   ProviderOpenAI,
			Model:      "gpt-4o",
			MaxRetries: 2,
		},
		Search: SearchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "hyphotesys/0.1",
			},
			MaxResults:  10,
			MinInterval: 3 * time.Second,
			Backends:    []string{"arxiv"},
		},
		Pipeline: PipelineConfig{
			AgentTimeout: 60 * time.Second,
			ReaderPapers: 3,
		},
		Document: DocumentAuto,
	}
}
