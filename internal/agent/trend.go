// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"

	"github.com/pdiddy/hyphotesys/internal/llm"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// stubConfidence is assigned to outputs built from placeholder analysis.
const stubConfidence = 0.3

// Trend finds patterns, contradictions and gaps across reader summaries.
type Trend struct {
	LLM llm.Completer
}

func (*Trend) Name() types.AgentName { return types.AgentTrend }

func (t *Trend) Run(ctx context.Context, in Input) (types.Output, error) {
	read, ok := in.Result(types.AgentReader)
	if !ok || read.Metadata.Reader == nil || len(read.Metadata.Reader.Summaries) == 0 {
		return types.Output{}, prerequisite(types.AgentTrend, "Run reader agent first")
	}
	summaries := read.Metadata.Reader.Summaries

	sources := make([]string, 0, len(summaries))
	for _, s := range summaries {
		sources = append(sources, s.Title)
	}

	resp, err := t.analyze(ctx, in.Session.ResearchQuestion, summaries)
	if err != nil {
		meta := types.TrendMetadata{
			Patterns:        []string{"Analysis pending"},
			Contradictions:  []string{},
			Gaps:            []string{"Comprehensive analysis needed"},
			CommonVariables: []string{},
			Stub:            true,
		}
		return types.NewOutput(types.AgentTrend,
			fmt.Sprintf("Trend analysis across %d papers is a placeholder", len(summaries)),
			stubConfidence, sources,
			[]string{fmt.Sprintf("Trend analysis failed: %v", err)},
			types.Metadata{Trend: &meta})
	}

	meta := types.TrendMetadata{
		Patterns:        resp.Patterns,
		Contradictions:  resp.Contradictions,
		Gaps:            resp.Gaps,
		CommonVariables: resp.CommonVariables,
	}
	return types.NewOutput(types.AgentTrend,
		fmt.Sprintf("Analyzed trends across %d papers", len(summaries)),
		0.8, sources, meta.Contradictions,
		types.Metadata{Trend: &meta})
}

func (t *Trend) analyze(ctx context.Context, question string, summaries []types.PaperSummary) (llm.TrendResponse, error) {
	var resp llm.TrendResponse
	if t.LLM == nil {
		return resp, errNoLLM
	}
	prompt, err := llm.TrendPrompt(question, summaries)
	if err != nil {
		return resp, err
	}
	err = llm.CompleteJSON(ctx, t.LLM, prompt, &resp)
	return resp, err
}
