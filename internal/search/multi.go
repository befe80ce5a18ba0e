// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// Multi queries several backends in turn and merges their papers. A
// backend failure becomes a Result warning; only when every backend fails
// is an error returned.
type Multi struct {
	Backends []Backend

	// MaxResults caps the merged list when a Query sets no limit.
	MaxResults int

	Log *zap.Logger
}

// Name joins the backend names with "+".
func (m *Multi) Name() string {
	names := make([]string, len(m.Backends))
	for i, b := range m.Backends {
		names[i] = b.Name()
	}
	return strings.Join(names, "+")
}

// Search runs query against each backend, de-duplicates by id and title,
// and keeps the highest-ranked papers up to the query limit. Query reports the
// first successful backend's query string.
func (m *Multi) Search(ctx context.Context, query Query) (Result, error) {
	if len(m.Backends) == 0 {
		return Result{}, errors.New("no search backends configured")
	}

	if query.MaxResults <= 0 {
		query.MaxResults = query.LimitOr(m.MaxResults)
	}

	var (
		merged Result
		all    []types.Paper
		errs   []error
	)
	for _, b := range m.Backends {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := b.Search(ctx, query)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			merged.Warnings = append(merged.Warnings, fmt.Sprintf("%s search failed: %v", b.Name(), err))
			if m.Log != nil {
				m.Log.Warn("search backend failed", zap.String("backend", b.Name()), zap.Error(err))
			}
			continue
		}
		if merged.Query == "" {
			merged.Query = res.Query
		}
		merged.Skipped += res.Skipped
		merged.Warnings = append(merged.Warnings, res.Warnings...)
		all = append(all, res.Papers...)
	}

	if len(errs) == len(m.Backends) {
		return Result{}, errors.Join(errs...)
	}
	merged.Papers = rank(all, query.MaxResults)
	return merged, nil
}

// New builds the backend for cfg.Backends: one backend is used directly,
// several are wrapped in a Multi. An empty list means arXiv.
func New(cfg types.SearchConfig, log *zap.Logger) (Backend, error) {
	names := cfg.Backends
	if len(names) == 0 {
		names = []string{"arxiv"}
	}

	var backends []Backend
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "arxiv":
			backends = append(backends, NewArxivBackend(cfg, log))
		case "semantic_scholar", "semantic-scholar", "s2":
			backends = append(backends, NewSemanticScholarBackend(cfg, log))
		case "openalex":
			backends = append(backends, NewOpenAlexBackend(cfg, log))
		default:
			return nil, fmt.Errorf("unknown search backend %q (available: arxiv, semantic_scholar, openalex)", name)
		}
	}
	if len(backends) == 1 {
		return backends[0], nil
	}
	return &Multi{Backends: backends, MaxResults: cfg.MaxResults, Log: log}, nil
}
