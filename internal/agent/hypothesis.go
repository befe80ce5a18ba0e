// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"

	"github.com/pdiddy/hyphotesys/internal/llm"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// Hypothesis proposes testable hypotheses from the thesis and trend results.
type Hypothesis struct {
	LLM llm.Completer
}

func (*Hypothesis) Name() types.AgentName { return types.AgentHypothesis }

func (h *Hypothesis) Run(ctx context.Context, in Input) (types.Output, error) {
	thesis, okThesis := in.Result(types.AgentThesis)
	trend, okTrend := in.Result(types.AgentTrend)
	if !okThesis || !okTrend || thesis.Metadata.Thesis == nil || trend.Metadata.Trend == nil {
		return types.Output{}, prerequisite(types.AgentHypothesis, "Run thesis and trend agents first")
	}
	th := thesis.Metadata.Thesis
	sources := []string{string(types.AgentThesis), string(types.AgentTrend)}

	resp, err := h.generate(ctx, llm.HypothesisInput{
		Question:  in.Session.ResearchQuestion,
		Summary:   th.Summary,
		Keywords:  th.Keywords,
		Variables: th.Variables,
		Trend:     *trend.Metadata.Trend,
	})
	if err != nil {
		meta := types.HypothesisMetadata{
			Hypotheses: []types.Hypothesis{{
				Statement:   "Hypothesis generation pending",
				Rationale:   "Requires model analysis",
				Experiments: []string{"Design experiments based on analysis"},
				Feasibility: 0.5,
			}},
			Recommendations: []string{"Complete model analysis for detailed hypotheses"},
			Stub:            true,
		}
		return types.NewOutput(types.AgentHypothesis,
			"Hypothesis generation is a placeholder",
			stubConfidence, sources,
			[]string{fmt.Sprintf("Hypothesis generation failed: %v", err)},
			types.Metadata{Hypothesis: &meta})
	}

	meta := types.HypothesisMetadata{
		Hypotheses:      resp.Hypotheses,
		Recommendations: resp.Recommendations,
	}
	var warnings []string
	if trend.Metadata.Trend.Stub {
		warnings = append(warnings, "Based on placeholder trend analysis")
	}
	return types.NewOutput(types.AgentHypothesis,
		fmt.Sprintf("Generated %d hypotheses", len(meta.Hypotheses)),
		0.85, sources, warnings,
		types.Metadata{Hypothesis: &meta})
}

func (h *Hypothesis) generate(ctx context.Context, in llm.HypothesisInput) (llm.HypothesisResponse, error) {
	var resp llm.HypothesisResponse
	if h.LLM == nil {
		return resp, errNoLLM
	}
	prompt, err := llm.HypothesisPrompt(in)
	if err != nil {
		return resp, err
	}
	err = llm.CompleteJSON(ctx, h.LLM, prompt, &resp)
	return resp, err
}
