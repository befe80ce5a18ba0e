// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metadata is the agent-specific payload of an Output. Exactly one variant
// is set for a successful Output, matching Output.Agent; fallback Outputs
// may carry only Error. On the wire the variant's fields are flattened into
// a single object, selected by the Output's agent name.
type Metadata struct {
	Thesis     *ThesisMetadata     `json:"-"`
	File       *FileMetadata       `json:"-"`
	Search     *SearchMetadata     `json:"-"`
	Reader     *ReaderMetadata     `json:"-"`
	Trend      *TrendMetadata      `json:"-"`
	Hypothesis *HypothesisMetadata `json:"-"`
	Map        *MapMetadata        `json:"-"`

	// Error holds the underlying failure for fallback Outputs.
	Error string `json:"-"`
}

// Variables groups the research variables extracted from a question.
type Variables struct {
	Independent []string `json:"independent"`
	Dependent   []string `json:"dependent"`
	Control     []string `json:"control"`
}

// IsEmpty reports whether no variables were extracted.
func (v Variables) IsEmpty() bool {
	return len(v.Independent) == 0 && len(v.Dependent) == 0 && len(v.Control) == 0
}

// ThesisMetadata is produced by the thesis agent.
type ThesisMetadata struct {
	Keywords       []string  `json:"keywords"`
	Variables      Variables `json:"variables"`
	Summary        string    `json:"summary"`
	Considerations []string  `json:"considerations"`
}

// ParsedFile is one document processed by the file agent.
type ParsedFile struct {
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	Content   string `json:"content"`
	Pages     int    `json:"pages"`
	WordCount int    `json:"word_count"`
}

// FileMetadata is produced by the file agent.
type FileMetadata struct {
	ParsedFiles []ParsedFile `json:"parsed_files"`
	Failed      []string     `json:"failed,omitempty"`
}

// SearchMetadata is produced by the search agent.
type SearchMetadata struct {
	Papers      []Paper  `json:"papers"`
	SearchTerms []string `json:"search_terms"`
	Query       string   `json:"query"`
}

// PaperSummary is the reader agent's digest of one paper.
type PaperSummary struct {
	PaperID     string   `json:"paper_id,omitempty"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	KeyFindings []string `json:"key_findings"`
	Methodology string   `json:"methodology"`
	Relevance   float64  `json:"relevance"`

	// Stub marks a placeholder written when the model call failed.
	Stub bool `json:"stub,omitempty"`
}

// ReaderMetadata is produced by the reader agent.
type ReaderMetadata struct {
	Summaries []PaperSummary `json:"summaries"`
}

// TrendMetadata is produced by the trend agent.
type TrendMetadata struct {
	Patterns        []string `json:"patterns"`
	Contradictions  []string `json:"contradictions"`
	Gaps            []string `json:"gaps"`
	CommonVariables []string `json:"common_variables"`
	Stub            bool     `json:"stub,omitempty"`
}

// Hypothesis is one candidate research direction.
type Hypothesis struct {
	Statement   string   `json:"statement"`
	Rationale   string   `json:"rationale"`
	Experiments []string `json:"experiments"`
	Feasibility float64  `json:"feasibility"`
}

// HypothesisMetadata is produced by the hypothesis agent.
type HypothesisMetadata struct {
	Hypotheses      []Hypothesis `json:"hypotheses"`
	Recommendations []string     `json:"recommendations"`
	Stub            bool         `json:"stub,omitempty"`
}

// StageStatus reports one stage of the pipeline map.
type StageStatus struct {
	Agent       AgentName  `json:"agent"`
	Label       string     `json:"label"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PipelineSummary is the completion roll-up carried by the map agent.
type PipelineSummary struct {
	TotalAgents          int        `json:"total_agents"`
	CompletedAgents      int        `json:"completed_agents"`
	CompletionPercentage float64    `json:"completion_percentage"`
	LastExecuted         *time.Time `json:"last_executed,omitempty"`
}

// MapMetadata is produced by the map agent.
type MapMetadata struct {
	MermaidDiagram  string          `json:"mermaid_diagram"`
	Stages          []StageStatus   `json:"stages"`
	CompletedAgents []AgentName     `json:"completed_agents"`
	PipelineSummary PipelineSummary `json:"pipeline_summary"`
}

// variant returns the payload selected by agent, or nil when it is unset.
func (m Metadata) variant(agent AgentName) any {
	switch agent {
	case AgentThesis:
		if m.Thesis != nil {
			return m.Thesis
		}
	case AgentFile:
		if m.File != nil {
			return m.File
		}
	case AgentSearch:
		if m.Search != nil {
			return m.Search
		}
	case AgentReader:
		if m.Reader != nil {
			return m.Reader
		}
	case AgentTrend:
		if m.Trend != nil {
			return m.Trend
		}
	case AgentHypothesis:
		if m.Hypothesis != nil {
			return m.Hypothesis
		}
	case AgentMap:
		if m.Map != nil {
			return m.Map
		}
	}
	return nil
}

// encodeMetadata flattens the variant for agent and the error field into one object.
func encodeMetadata(agent AgentName, m Metadata) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if v := m.variant(agent); v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
	}
	if m.Error != "" {
		data, err := json.Marshal(m.Error)
		if err != nil {
			return nil, err
		}
		fields["error"] = data
	}
	return json.Marshal(fields)
}

// decodeMetadata is the inverse of encodeMetadata.
func decodeMetadata(agent AgentName, raw json.RawMessage) (Metadata, error) {
	var m Metadata
	if len(raw) == 0 || string(raw) == "null" {
		return m, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return m, fmt.Errorf("decoding %s metadata: %w", agent, err)
	}
	if e, ok := fields["error"]; ok {
		if err := json.Unmarshal(e, &m.Error); err != nil {
			return m, fmt.Errorf("decoding %s metadata error: %w", agent, err)
		}
		delete(fields, "error")
	}
	if len(fields) == 0 {
		return m, nil
	}

	var target any
	switch agent {
	case AgentThesis:
		m.Thesis = &ThesisMetadata{}
		target = m.Thesis
	case AgentFile:
		m.File = &FileMetadata{}
		target = m.File
	case AgentSearch:
		m.Search = &SearchMetadata{}
		target = m.Search
	case AgentReader:
		m.Reader = &ReaderMetadata{}
		target = m.Reader
	case AgentTrend:
		m.Trend = &TrendMetadata{}
		target = m.Trend
	case AgentHypothesis:
		m.Hypothesis = &HypothesisMetadata{}
		target = m.Hypothesis
	case AgentMap:
		m.Map = &MapMetadata{}
		target = m.Map
	default:
		return m, fmt.Errorf("metadata for unknown agent %q", agent)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return m, fmt.Errorf("decoding %s metadata: %w", agent, err)
	}
	return m, nil
}
