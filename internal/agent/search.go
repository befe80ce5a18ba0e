// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/hyphotesys/internal/search"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// Search finds papers for the thesis keywords, or for Input.Keywords when
// the caller supplies them.
type Search struct {
	Backend search.Backend
}

func (*Search) Name() types.AgentName { return types.AgentSearch }

func (s *Search) Run(ctx context.Context, in Input) (types.Output, error) {
	keywords := in.Keywords
	if len(keywords) == 0 {
		thesis, ok := in.Result(types.AgentThesis)
		if !ok || thesis.Metadata.Thesis == nil {
			return types.Output{}, prerequisite(types.AgentSearch, "Run thesis agent first")
		}
		keywords = thesis.Metadata.Thesis.Keywords
	}
	q := search.Query{Keywords: keywords, MaxResults: in.MaxResults}
	if q.IsEmpty() {
		return types.Output{}, invalidInput(types.AgentSearch, "No search keywords available")
	}
	if s.Backend == nil {
		return types.Output{}, external(types.AgentSearch, "Literature search failed", errors.New("no search backend configured"))
	}

	res, err := s.Backend.Search(ctx, q)
	if err != nil {
		return types.Output{}, external(types.AgentSearch, "Literature search failed", err)
	}

	papers := res.Papers
	if papers == nil {
		papers = []types.Paper{}
	}
	meta := types.SearchMetadata{Papers: papers, SearchTerms: q.Terms(), Query: res.Query}
	sources := make([]string, 0, len(papers))
	for _, p := range papers {
		sources = append(sources, p.URL)
	}

	confidence := 0.9
	var warnings []string
	if len(papers) == 0 {
		confidence = 0.3
		warnings = append(warnings, "No papers found for search terms")
	}
	if res.Skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("Skipped %d malformed search results", res.Skipped))
	}
	warnings = append(warnings, res.Warnings...)
	return types.NewOutput(types.AgentSearch,
		fmt.Sprintf("Found %d relevant papers from %s", len(papers), s.Backend.Name()),
		confidence, sources, warnings,
		types.Metadata{Search: &meta})
}
