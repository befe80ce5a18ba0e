// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared by the hyphotesys pipeline:
// the Output envelope every agent returns, the per-agent metadata variants,
// sessions, projects, the researcher profile, and configuration.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrConfidenceRange is returned when an Output is built or decoded with a
// confidence outside [0.0, 1.0].
var ErrConfidenceRange = errors.New("confidence out of range [0,1]")

// AgentName identifies one of the seven pipeline stages.
type AgentName string

const (
	AgentThesis     AgentName = "thesis"
	AgentFile       AgentName = "file"
	AgentSearch     AgentName = "search"
	AgentReader     AgentName = "reader"
	AgentTrend      AgentName = "trend"
	AgentHypothesis AgentName = "hypothesis"
	AgentMap        AgentName = "map"
)

// AllAgents lists the stages in pipeline order.
var AllAgents = []AgentName{
	AgentThesis, AgentFile, AgentSearch, AgentReader, AgentTrend, AgentHypothesis, AgentMap,
}

// TotalAgents is the number of pipeline stages.
const TotalAgents = 7

// Valid reports whether n names a known stage.
func (n AgentName) Valid() bool {
	for _, a := range AllAgents {
		if a == n {
			return true
		}
	}
	return false
}

// ParseAgentName converts user input into an AgentName.
func ParseAgentName(s string) (AgentName, error) {
	n := AgentName(s)
	if !n.Valid() {
		return "", fmt.Errorf("unknown agent %q (available: thesis, file, search, reader, trend, hypothesis, map)", s)
	}
	return n, nil
}

// Output is the uniform result envelope produced by every agent. Outputs are
// values: construct them with NewOutput and do not modify them afterwards.
type Output struct {
	// Agent is the producing stage.
	Agent AgentName `json:"agent"`

	// Result is a one-line human-readable summary.
	Result string `json:"result"`

	// Confidence is in [0.0, 1.0].
	Confidence float64 `json:"confidence"`

	// Sources lists identifiers or URLs in the order they were used.
	Sources []string `json:"sources"`

	// Warnings lists degraded-path explanations and model-raised caveats.
	Warnings []string `json:"warnings"`

	// Metadata carries the agent-specific payload.
	Metadata Metadata `json:"metadata"`

	// Timestamp is set once at construction.
	Timestamp time.Time `json:"timestamp"`
}

// NewOutput builds an Output stamped with the current time. Sources and
// warnings are copied so later changes to the caller's slices do not leak in.
func NewOutput(agent AgentName, result string, confidence float64, sources, warnings []string, meta Metadata) (Output, error) {
	return NewOutputAt(time.Now(), agent, result, confidence, sources, warnings, meta)
}

// NewOutputAt is NewOutput with an explicit timestamp. A zero ts means now.
func NewOutputAt(ts time.Time, agent AgentName, result string, confidence float64, sources, warnings []string, meta Metadata) (Output, error) {
	if confidence < 0.0 || confidence > 1.0 {
		return Output{}, fmt.Errorf("%s output: %w: %f", agent, ErrConfidenceRange, confidence)
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	return Output{
		Agent:      agent,
		Result:     result,
		Confidence: confidence,
		Sources:    cloneStrings(sources),
		Warnings:   cloneStrings(warnings),
		Metadata:   meta,
		Timestamp:  ts,
	}, nil
}

// outputWire is the JSON shape of an Output.
type outputWire struct {
	Agent      AgentName       `json:"agent"`
	Result     string          `json:"result"`
	Confidence float64         `json:"confidence"`
	Sources    []string        `json:"sources"`
	Warnings   []string        `json:"warnings"`
	Metadata   json.RawMessage `json:"metadata"`
	Timestamp  time.Time       `json:"timestamp"`
}

// MarshalJSON flattens the metadata variant selected by o.Agent.
func (o Output) MarshalJSON() ([]byte, error) {
	meta, err := encodeMetadata(o.Agent, o.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encoding %s metadata: %w", o.Agent, err)
	}
	return json.Marshal(outputWire{
		Agent:      o.Agent,
		Result:     o.Result,
		Confidence: o.Confidence,
		Sources:    nonNil(o.Sources),
		Warnings:   nonNil(o.Warnings),
		Metadata:   meta,
		Timestamp:  o.Timestamp,
	})
}

// UnmarshalJSON decodes an Output and rejects out-of-range confidence.
func (o *Output) UnmarshalJSON(data []byte) error {
	var w outputWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Confidence < 0.0 || w.Confidence > 1.0 {
		return fmt.Errorf("%s output: %w: %f", w.Agent, ErrConfidenceRange, w.Confidence)
	}
	meta, err := decodeMetadata(w.Agent, w.Metadata)
	if err != nil {
		return err
	}
	*o = Output{
		Agent:      w.Agent,
		Result:     w.Result,
		Confidence: w.Confidence,
		Sources:    nonNil(w.Sources),
		Warnings:   nonNil(w.Warnings),
		Metadata:   meta,
		Timestamp:  w.Timestamp,
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
