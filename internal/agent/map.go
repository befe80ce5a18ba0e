// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// stageLabels are the diagram captions, by stage.
var stageLabels = map[types.AgentName]string{
	types.AgentThesis:     "Thesis Analysis",
	types.AgentFile:       "File Processing",
	types.AgentSearch:     "Literature Search",
	types.AgentReader:     "Paper Summarization",
	types.AgentTrend:      "Trend Analysis",
	types.AgentHypothesis: "Hypothesis Generation",
	types.AgentMap:        "Research Pipeline",
}

// pipelineEdges is the stage DAG, rendered in this order.
var pipelineEdges = [][2]types.AgentName{
	{types.AgentThesis, types.AgentFile},
	{types.AgentThesis, types.AgentSearch},
	{types.AgentFile, types.AgentReader},
	{types.AgentSearch, types.AgentReader},
	{types.AgentReader, types.AgentTrend},
	{types.AgentTrend, types.AgentHypothesis},
	{types.AgentHypothesis, types.AgentMap},
}

// Map reports pipeline progress. It reads only stored results and does not
// fail.
type Map struct{}

func (*Map) Name() types.AgentName { return types.AgentMap }

func (*Map) Run(_ context.Context, in Input) (types.Output, error) {
	var completed []types.AgentName
	stages := make([]types.StageStatus, 0, len(types.AllAgents))
	var last *time.Time
	for _, name := range types.AllAgents {
		st := types.StageStatus{Agent: name, Label: stageLabels[name]}
		if out, ok := in.Result(name); ok {
			ts := out.Timestamp
			st.Completed = true
			st.CompletedAt = &ts
			completed = append(completed, name)
			if last == nil || ts.After(*last) {
				last = &ts
			}
		}
		stages = append(stages, st)
	}
	if completed == nil {
		completed = []types.AgentName{}
	}

	meta := types.MapMetadata{
		MermaidDiagram:  mermaid(completed),
		Stages:          stages,
		CompletedAgents: completed,
		PipelineSummary: types.PipelineSummary{
			TotalAgents:          types.TotalAgents,
			CompletedAgents:      len(completed),
			CompletionPercentage: round1(float64(len(completed)) / types.TotalAgents * 100),
			LastExecuted:         last,
		},
	}

	sources := make([]string, 0, len(completed))
	for _, name := range completed {
		sources = append(sources, string(name))
	}
	return types.NewOutput(types.AgentMap,
		fmt.Sprintf("Generated research pipeline map (%d of %d stages complete)", len(completed), types.TotalAgents),
		0.9, sources, nil,
		types.Metadata{Map: &meta})
}

// mermaid renders the stage DAG as a flowchart with completed stages styled.
func mermaid(completed []types.AgentName) string {
	done := make(map[types.AgentName]bool, len(completed))
	for _, n := range completed {
		done[n] = true
	}

	var b strings.Builder
	b.WriteString("graph TD\n")
	fmt.Fprintf(&b, "    question[Research Question] --> %s[%s]\n", types.AgentThesis, stageLabels[types.AgentThesis])
	for _, e := range pipelineEdges {
		fmt.Fprintf(&b, "    %s --> %s[%s]\n", e[0], e[1], stageLabels[e[1]])
	}

	var pending []string
	var finished []string
	for _, n := range types.AllAgents {
		if done[n] {
			finished = append(finished, string(n))
		} else {
			pending = append(pending, string(n))
		}
	}
	if len(finished) > 0 {
		fmt.Fprintf(&b, "    class %s completed\n", strings.Join(finished, ","))
	}
	if len(pending) > 0 {
		fmt.Fprintf(&b, "    class %s pending\n", strings.Join(pending, ","))
	}
	b.WriteString("    classDef completed fill:#10b981,stroke:#065f46,color:#fff\n")
	b.WriteString("    classDef pending fill:#6b7280,stroke:#374151,color:#fff\n")
	return b.String()
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
