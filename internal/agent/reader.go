// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/hyphotesys/internal/llm"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

const defaultReaderPapers = 3

// Reader summarizes the top search results one paper at a time. A paper
// whose summary cannot be produced gets a stub record.
type Reader struct {
	LLM llm.Completer
}

func (*Reader) Name() types.AgentName { return types.AgentReader }

func (r *Reader) Run(ctx context.Context, in Input) (types.Output, error) {
	found, ok := in.Result(types.AgentSearch)
	if !ok || found.Metadata.Search == nil || len(found.Metadata.Search.Papers) == 0 {
		return types.Output{}, prerequisite(types.AgentReader, "Run search agent first")
	}

	limit := in.ReaderPapers
	if limit <= 0 {
		limit = defaultReaderPapers
	}
	papers := found.Metadata.Search.Papers
	if len(papers) > limit {
		papers = papers[:limit]
	}

	meta := types.ReaderMetadata{Summaries: make([]types.PaperSummary, 0, len(papers))}
	var sources, warnings []string
	analyzed := 0
	for _, p := range papers {
		summary, err := r.summarize(ctx, in.Session.ResearchQuestion, p)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Could not analyze %q: %v", p.Title, err))
		} else {
			analyzed++
		}
		meta.Summaries = append(meta.Summaries, summary)
		sources = append(sources, summary.Title)
	}
	if analyzed == 0 {
		warnings = append(warnings, "All summaries are placeholders")
	}

	return types.NewOutput(types.AgentReader,
		fmt.Sprintf("Summarized %d papers", analyzed),
		round2(0.85*float64(analyzed)/float64(len(papers))),
		sources, warnings,
		types.Metadata{Reader: &meta})
}

// summarize returns the model's digest of p, or a stub and the error.
func (r *Reader) summarize(ctx context.Context, question string, p types.Paper) (types.PaperSummary, error) {
	stub := types.PaperSummary{
		PaperID:     p.ID,
		Title:       p.Title,
		Authors:     p.Authors,
		KeyFindings: []string{"Analysis pending"},
		Methodology: "Not analyzed",
		Relevance:   0.5,
		Stub:        true,
	}
	if r.LLM == nil {
		return stub, errNoLLM
	}
	prompt, err := llm.ReaderPrompt(question, p)
	if err != nil {
		return stub, err
	}
	var a llm.PaperAnalysis
	if err := llm.CompleteJSON(ctx, r.LLM, prompt, &a); err != nil {
		return stub, err
	}

	s := types.PaperSummary{
		PaperID:     p.ID,
		Title:       strings.TrimSpace(a.Title),
		Authors:     a.Authors,
		KeyFindings: a.KeyFindings,
		Methodology: strings.TrimSpace(a.Methodology),
		Relevance:   a.Relevance,
	}
	if s.Title == "" {
		s.Title = p.Title
	}
	if len(s.Authors) == 0 {
		s.Authors = p.Authors
	}
	return s, nil
}
