// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent implements the seven research pipeline stages.
//
// Every agent returns (types.Output, error). Execute is the only place
// errors become Outputs: it turns an *Error into the canonical fallback
// Output (confidence 0.0, the error's warning) so callers never see an
// agent failure as anything other than a low-confidence result.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/internal/document"
	"github.com/pdiddy/hyphotesys/internal/llm"
	"github.com/pdiddy/hyphotesys/internal/search"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// Agent is one pipeline stage.
type Agent interface {
	Name() types.AgentName
	Run(ctx context.Context, in Input) (types.Output, error)
}

// Input is everything a stage may read. Session is a snapshot taken before
// the run; agents never write it back.
type Input struct {
	Session types.Session

	// FilePaths is the file agent's batch.
	FilePaths []string

	// Keywords overrides the thesis keywords for the search agent.
	Keywords []string

	// MaxResults caps search results; 0 means the backend default.
	MaxResults int

	// ReaderPapers is how many search results the reader summarizes; 0 means 3.
	ReaderPapers int
}

// Result returns the stored Output of a prior stage.
func (in Input) Result(name types.AgentName) (types.Output, bool) {
	out, ok := in.Session.AgentResults[name]
	return out, ok
}

// Kind classifies an agent failure.
type Kind string

const (
	// KindExternal is a failed or malformed LLM or search call.
	KindExternal Kind = "external"
	// KindPrerequisite means a required prior stage has no usable Output.
	KindPrerequisite Kind = "prerequisite"
	// KindInput means the caller supplied nothing to work on.
	KindInput Kind = "input"
)

// Error is an agent failure carrying the user-facing warning for its
// fallback Output.
type Error struct {
	Agent   types.AgentName
	Kind    Kind
	Warning string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s agent: %s", e.Agent, e.Warning)
	}
	return fmt.Sprintf("%s agent: %s: %v", e.Agent, e.Warning, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

func external(agent types.AgentName, warning string, err error) *Error {
	return &Error{Agent: agent, Kind: KindExternal, Warning: warning, Err: err}
}

func prerequisite(agent types.AgentName, warning string) *Error {
	return &Error{Agent: agent, Kind: KindPrerequisite, Warning: warning}
}

func invalidInput(agent types.AgentName, warning string) *Error {
	return &Error{Agent: agent, Kind: KindInput, Warning: warning}
}

// Fallback builds the zero-confidence Output for a failed run.
func Fallback(name types.AgentName, err error) types.Output {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = external(name, "Agent failed", err)
	}

	result := ae.Warning
	meta := types.Metadata{}
	if ae.Err != nil {
		result = fmt.Sprintf("%s: %v", ae.Warning, ae.Err)
		meta.Error = ae.Err.Error()
	}
	out, _ := types.NewOutput(name, result, 0.0, nil, []string{ae.Warning}, meta)
	return out
}

// Execute runs a and always returns a renderable Output. When the run
// failed, the Output is the Fallback and the returned error is the failure,
// kept so the caller can decide whether to persist it.
func Execute(ctx context.Context, a Agent, in Input, log *zap.Logger) (types.Output, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()
	out, err := a.Run(ctx, in)
	if err == nil && ctx.Err() != nil {
		err = external(a.Name(), "Agent timed out", ctx.Err())
	}
	if err != nil {
		var ae *Error
		if !errors.As(err, &ae) {
			err = external(a.Name(), "Agent failed", err)
			errors.As(err, &ae)
		}
		log.Warn("agent fallback",
			zap.String("agent", string(a.Name())),
			zap.String("session", in.Session.ID),
			zap.String("kind", string(ae.Kind)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return Fallback(a.Name(), err), err
	}

	log.Info("agent finished",
		zap.String("agent", string(a.Name())),
		zap.String("session", in.Session.ID),
		zap.Float64("confidence", out.Confidence),
		zap.Duration("duration", time.Since(start)))
	return out, nil
}

// Deps are the collaborators the agents call out to.
type Deps struct {
	LLM    llm.Completer
	Search search.Backend
	Parser document.Parser
}

// All returns one instance of every stage keyed by name.
func All(d Deps) map[types.AgentName]Agent {
	agents := []Agent{
		&Thesis{LLM: d.LLM},
		&File{Parser: d.Parser},
		&Search{Backend: d.Search},
		&Reader{LLM: d.LLM},
		&Trend{LLM: d.LLM},
		&Hypothesis{LLM: d.LLM},
		&Map{},
	}
	m := make(map[types.AgentName]Agent, len(agents))
	for _, a := range agents {
		m[a.Name()] = a
	}
	return m
}
