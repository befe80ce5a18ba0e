// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/viper"

	"github.com/pdiddy/hyphotesys/internal/secrets"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// setDefaults registers every config key with its default so that
// AutomaticEnv can resolve HYPHOTESYS_<KEY> for each one.
func setDefaults() {
	d := types.DefaultConfig()

	viper.SetDefault("data_dir", d.Store.DataDir)
	viper.SetDefault("registry_file", d.Store.RegistryFile)
	viper.SetDefault("projects_dir", d.Store.ProjectsDir)
	viper.SetDefault("profile_file", d.Store.ProfileFile)
	viper.SetDefault("papers_dir", d.Store.PapersDir)

	viper.SetDefault("library.enabled", d.Library.Enabled)
	viper.SetDefault("library.dir", d.Library.Dir)
	viper.SetDefault("library.max_results", d.Library.MaxResults)

	viper.SetDefault("llm.provider", string(d.LLM.Provider))
	viper.SetDefault("llm.model", d.LLM.Model)
	viper.SetDefault("llm.base_url", d.LLM.BaseURL)
	viper.SetDefault("llm.max_retries", d.LLM.MaxRetries)
	viper.SetDefault("llm.timeout", d.LLM.Timeout)

	viper.SetDefault("search.max_results", d.Search.MaxResults)
	viper.SetDefault("search.timeout", d.Search.Timeout)
	viper.SetDefault("search.user_agent", d.Search.UserAgent)
	viper.SetDefault("search.min_interval", d.Search.MinInterval)
	viper.SetDefault("search.backends", d.Search.Backends)
	viper.SetDefault("search.openalex_email", d.Search.OpenAlexEmail)

	viper.SetDefault("pipeline.agent_timeout", d.Pipeline.AgentTimeout)
	viper.SetDefault("pipeline.reader_papers", d.Pipeline.ReaderPapers)

	viper.SetDefault("document.backend", string(d.Document))
}

// loadConfig assembles the effective configuration from viper. API keys
// come from .secrets/ or the matching environment variable. A gpt-* model
// left over from the default is replaced by the Claude backend's own.
func loadConfig() types.Config {
	provider := types.LLMProvider(viper.GetString("llm.provider"))

	email := viper.GetString("search.openalex_email")
	if email == "" {
		email = loadedSecrets.Get(secrets.OpenAlexEmail)
	}

	return types.Config{
		Store: types.StoreConfig{
			DataDir:      viper.GetString("data_dir"),
			RegistryFile: viper.GetString("registry_file"),
			ProjectsDir:  viper.GetString("projects_dir"),
			ProfileFile:  viper.GetString("profile_file"),
			PapersDir:    viper.GetString("papers_dir"),
		},
		Library: types.LibraryConfig{
			Enabled:    viper.GetBool("library.enabled"),
			Dir:        viper.GetString("library.dir"),
			MaxResults: viper.GetInt("library.max_results"),
		},
		LLM: types.LLMConfig{
			HTTPConfig: types.HTTPConfig{Timeout: viper.GetDuration("llm.timeout")},
			Provider:   provider,
			Model:      viper.GetString("llm.model"),
			APIKey:     loadedSecrets.APIKey(provider),
			BaseURL:    viper.GetString("llm.base_url"),
			MaxRetries: viper.GetInt("llm.max_retries"),
		},
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("search.user_agent"),
			},
			MaxResults:         viper.GetInt("search.max_results"),
			MinInterval:        viper.GetDuration("search.min_interval"),
			Backends:           viper.GetStringSlice("search.backends"),
			SemanticScholarKey: loadedSecrets.Get(secrets.SemanticScholarKey),
			OpenAlexEmail:      email,
		},
		Pipeline: types.PipelineConfig{
			AgentTimeout: viper.GetDuration("pipeline.agent_timeout"),
			ReaderPapers: viper.GetInt("pipeline.reader_papers"),
		},
		Document: types.DocumentBackend(viper.GetString("document.backend")),
	}
}
