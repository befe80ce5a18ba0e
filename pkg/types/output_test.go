package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutputConfidenceRange(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantErr    bool
	}{
		{"zero", 0.0, false},
		{"one", 1.0, false},
		{"middle", 0.42, false},
		{"negative", -0.01, true},
		{"above one", 1.01, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewOutput(AgentThesis, "r", tt.confidence, nil, nil, Metadata{})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrConfidenceRange))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.confidence, out.Confidence)
			assert.False(t, out.Timestamp.IsZero())
		})
	}
}

func TestNewOutputCopiesSlices(t *testing.T) {
	sources := []string{"a", "b"}
	out, err := NewOutput(AgentSearch, "r", 0.5, sources, nil, Metadata{})
	require.NoError(t, err)

	sources[0] = "changed"
	assert.Equal(t, "a", out.Sources[0])
	assert.NotNil(t, out.Warnings)
}

func TestOutputJSONRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 0, 123, time.UTC)
	tests := []struct {
		name string
		out  Output
	}{
		{
			name: "thesis",
			out: Output{
				Agent: AgentThesis, Result: "extracted", Confidence: 0.92,
				Sources: []string{"model analysis"}, Warnings: []string{"small cohort"},
				Metadata: Metadata{Thesis: &ThesisMetadata{
					Keywords:       []string{"compound X", "pathway Y"},
					Variables:      Variables{Independent: []string{"dose"}, Dependent: []string{"activity"}},
					Summary:        "inhibition",
					Considerations: []string{"small cohort"},
				}},
				Timestamp: ts,
			},
		},
		{
			name: "search",
			out: Output{
				Agent: AgentSearch, Result: "found", Confidence: 0.9,
				Sources: []string{"http://arxiv.org/abs/1"}, Warnings: []string{},
				Metadata: Metadata{Search: &SearchMetadata{
					Papers:      []Paper{{ID: "1", Title: "T", URL: "http://arxiv.org/abs/1", Authors: []string{"A"}}},
					SearchTerms: []string{"x"},
					Query:       `all:"x"`,
				}},
				Timestamp: ts,
			},
		},
		{
			name: "fallback with error only",
			out: Output{
				Agent: AgentReader, Result: "failed", Confidence: 0,
				Sources: []string{}, Warnings: []string{"Summarization failed"},
				Metadata:  Metadata{Error: "boom"},
				Timestamp: ts,
			},
		},
		{
			name: "map",
			out: Output{
				Agent: AgentMap, Result: "map", Confidence: 0.9,
				Sources: []string{}, Warnings: []string{},
				Metadata: Metadata{Map: &MapMetadata{
					MermaidDiagram:  "graph TD",
					Stages:          []StageStatus{{Agent: AgentThesis, Label: "Thesis Analysis", Completed: true, CompletedAt: &ts}},
					CompletedAgents: []AgentName{AgentThesis},
					PipelineSummary: PipelineSummary{TotalAgents: 7, CompletedAgents: 1, CompletionPercentage: 14.3, LastExecuted: &ts},
				}},
				Timestamp: ts,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := json.Marshal(tt.out)
			require.NoError(t, err)

			var decoded Output
			require.NoError(t, json.Unmarshal(first, &decoded))

			second, err := json.Marshal(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, string(first), string(second))
			assert.Equal(t, tt.out.Agent, decoded.Agent)
			assert.Equal(t, tt.out.Metadata.Error, decoded.Metadata.Error)
			assert.True(t, tt.out.Timestamp.Equal(decoded.Timestamp))
		})
	}
}

func TestOutputMetadataIsFlattened(t *testing.T) {
	out, err := NewOutput(AgentTrend, "trends", 0.8, nil, nil, Metadata{Trend: &TrendMetadata{
		Patterns: []string{"p1"},
	}})
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var raw struct {
		Metadata map[string]json.RawMessage `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw.Metadata, "patterns")
	assert.Contains(t, raw.Metadata, "common_variables")
	assert.NotContains(t, raw.Metadata, "error")
}

func TestOutputUnmarshalRejectsConfidence(t *testing.T) {
	data := []byte(`{"agent":"thesis","result":"r","confidence":1.5,"sources":[],"warnings":[],"metadata":{},"timestamp":"2026-01-01T00:00:00Z"}`)
	var out Output
	err := json.Unmarshal(data, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfidenceRange))
}

func TestParseAgentName(t *testing.T) {
	for _, a := range AllAgents {
		got, err := ParseAgentName(string(a))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseAgentName("summarize")
	assert.Error(t, err)
	assert.Len(t, AllAgents, TotalAgents)
}
