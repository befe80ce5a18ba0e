// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/hyphotesys/internal/llm"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

var errNoLLM = errors.New("no LLM backend configured")

// Thesis extracts keywords and research variables from the question.
type Thesis struct {
	LLM llm.Completer
}

func (*Thesis) Name() types.AgentName { return types.AgentThesis }

func (t *Thesis) Run(ctx context.Context, in Input) (types.Output, error) {
	question := strings.TrimSpace(in.Session.ResearchQuestion)
	if question == "" {
		return types.Output{}, invalidInput(types.AgentThesis, "Session has no research question")
	}
	if t.LLM == nil {
		return types.Output{}, external(types.AgentThesis, "Analysis failed - check API key", errNoLLM)
	}

	prompt, err := llm.ThesisPrompt(question, in.Session.Profile.ResearchFocus)
	if err != nil {
		return types.Output{}, external(types.AgentThesis, "Analysis failed", err)
	}
	var resp llm.ThesisResponse
	if err := llm.CompleteJSON(ctx, t.LLM, prompt, &resp); err != nil {
		return types.Output{}, external(types.AgentThesis, "Analysis failed - check API key", err)
	}

	meta := types.ThesisMetadata{
		Keywords:       resp.Keywords,
		Variables:      resp.Variables,
		Summary:        strings.TrimSpace(resp.Summary),
		Considerations: resp.Considerations,
	}
	return types.NewOutput(types.AgentThesis,
		fmt.Sprintf("Extracted %d keywords and research variables", len(meta.Keywords)),
		0.92,
		[]string{"LLM analysis"},
		meta.Considerations,
		types.Metadata{Thesis: &meta})
}
