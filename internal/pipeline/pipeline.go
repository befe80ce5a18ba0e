// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline dispatches agent runs against persisted sessions.
//
// Run executes one agent synchronously: it snapshots the session, runs the
// agent under a timeout, persists the Output, and indexes any papers or
// summaries in the library. Ordering between agents is enforced by the
// agents themselves, which refuse to run without their prerequisites.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/internal/agent"
	"github.com/pdiddy/hyphotesys/internal/session"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// ErrUnknownAgent is returned when Run is asked for an agent it does not have.
var ErrUnknownAgent = errors.New("unknown agent")

// Prerequisites lists, for each agent, the agents whose Outputs it reads.
// Search can also run from explicit keywords; Map runs at any time.
var Prerequisites = map[types.AgentName][]types.AgentName{
	types.AgentThesis:     nil,
	types.AgentFile:       nil,
	types.AgentSearch:     {types.AgentThesis},
	types.AgentReader:     {types.AgentSearch},
	types.AgentTrend:      {types.AgentReader},
	types.AgentHypothesis: {types.AgentThesis, types.AgentTrend},
	types.AgentMap:        nil,
}

// Indexer receives papers and summaries for the cross-session library.
type Indexer interface {
	IndexPapers(ctx context.Context, sessionID string, papers []types.Paper) (int, error)
	IndexSummaries(ctx context.Context, sessionID string, summaries []types.PaperSummary) (int, error)
}

// Args carries the per-run inputs that do not come from the session.
type Args struct {
	// FilePaths is the file agent's batch.
	FilePaths []string

	// Keywords overrides the thesis keywords for search.
	Keywords []string

	// MaxResults caps search results; 0 uses the configured default.
	MaxResults int
}

// Pipeline runs agents against a session store.
type Pipeline struct {
	store   *session.Store
	agents  map[types.AgentName]agent.Agent
	library Indexer
	cfg     types.PipelineConfig
	log     *zap.Logger
}

// New returns a Pipeline. library may be nil to disable indexing.
func New(store *session.Store, agents map[types.AgentName]agent.Agent, library Indexer, cfg types.PipelineConfig, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = 60 * time.Second
	}
	if cfg.ReaderPapers <= 0 {
		cfg.ReaderPapers = 3
	}
	return &Pipeline{store: store, agents: agents, library: library, cfg: cfg, log: log}
}

// Run executes agent name for the session identified by id (a full id or
// a unique prefix) and returns its Output.
//
// Agent failures never surface as errors: the Output is then the
// zero-confidence fallback. Fallbacks for missing prerequisites or bad
// input are returned without being stored; every other Output replaces the
// agent's stored result. The error is non-nil only when the session cannot
// be resolved or persisted. A *session.MirrorError comes with a valid,
// stored Output.
func (p *Pipeline) Run(ctx context.Context, id string, name types.AgentName, args Args) (types.Output, error) {
	a, ok := p.agents[name]
	if !ok {
		return types.Output{}, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}
	sessionID, err := p.store.ResolveID(id)
	if err != nil {
		return types.Output{}, err
	}
	sess, _ := p.store.GetSession(sessionID)

	in := agent.Input{
		Session:      sess,
		FilePaths:    args.FilePaths,
		Keywords:     args.Keywords,
		MaxResults:   args.MaxResults,
		ReaderPapers: p.cfg.ReaderPapers,
	}

	runCtx, cancel := context.WithTimeout(ctx, p.cfg.AgentTimeout)
	p.log.Debug("agent started", zap.String("agent", string(name)), zap.String("session", sessionID))
	out, runErr := agent.Execute(runCtx, a, in, p.log)
	cancel()

	if agent.IsKind(runErr, agent.KindPrerequisite) || agent.IsKind(runErr, agent.KindInput) {
		return out, nil
	}

	saveErr := p.store.SaveAgentResult(sessionID, name, out)
	var mirrorErr *session.MirrorError
	if saveErr != nil && !errors.As(saveErr, &mirrorErr) {
		return out, fmt.Errorf("saving %s result: %w", name, saveErr)
	}

	if runErr == nil {
		p.index(ctx, sessionID, out)
	}
	return out, saveErr
}

// index feeds the library. Failures are logged, never returned.
func (p *Pipeline) index(ctx context.Context, sessionID string, out types.Output) {
	if p.library == nil {
		return
	}
	var (
		n   int
		err error
	)
	switch {
	case out.Agent == types.AgentSearch && out.Metadata.Search != nil:
		n, err = p.library.IndexPapers(ctx, sessionID, out.Metadata.Search.Papers)
	case out.Agent == types.AgentReader && out.Metadata.Reader != nil:
		n, err = p.library.IndexSummaries(ctx, sessionID, out.Metadata.Reader.Summaries)
	default:
		return
	}
	if err != nil {
		p.log.Warn("library indexing failed",
			zap.String("agent", string(out.Agent)),
			zap.String("session", sessionID),
			zap.Error(err))
		return
	}
	p.log.Debug("library indexed",
		zap.String("agent", string(out.Agent)),
		zap.String("session", sessionID),
		zap.Int("records", n))
}

// Sequence is the order RunAll walks the pipeline.
var Sequence = []types.AgentName{
	types.AgentThesis,
	types.AgentFile,
	types.AgentSearch,
	types.AgentReader,
	types.AgentTrend,
	types.AgentHypothesis,
	types.AgentMap,
}

// RunAll runs every stage in Sequence. The file stage is skipped when args
// has no paths. A degraded stage does not stop the walk; a persistence
// failure other than a mirror failure does.
func (p *Pipeline) RunAll(ctx context.Context, id string, args Args) ([]types.Output, error) {
	var (
		outputs   []types.Output
		mirrorErr error
	)
	for _, name := range Sequence {
		if name == types.AgentFile && len(args.FilePaths) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return outputs, err
		}
		out, err := p.Run(ctx, id, name, args)
		var me *session.MirrorError
		switch {
		case err == nil:
		case errors.As(err, &me):
			mirrorErr = err
		default:
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, mirrorErr
}

// Ready returns the agents whose prerequisites are stored in sess and that
// have not completed yet, in Sequence order.
func Ready(sess types.Session) []types.AgentName {
	var ready []types.AgentName
	for _, name := range Sequence {
		if _, done := sess.AgentResults[name]; done {
			continue
		}
		ok := true
		for _, req := range Prerequisites[name] {
			if _, done := sess.AgentResults[req]; !done {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, name)
		}
	}
	return ready
}
