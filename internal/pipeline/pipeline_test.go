// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/hyphotesys/internal/agent"
	"github.com/pdiddy/hyphotesys/internal/search"
	"github.com/pdiddy/hyphotesys/internal/session"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// --- mocks ---

// scriptedLLM answers by matching a substring of the prompt.
type scriptedLLM struct {
	replies map[string]string
	err     error
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for key, reply := range s.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return "", errors.New("no scripted reply")
}

type mockBackend struct {
	papers []types.Paper
	calls  int
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Search(_ context.Context, q search.Query) (search.Result, error) {
	m.calls++
	return search.Result{Papers: m.papers, Query: search.BooleanQuery(q.Terms())}, nil
}

type fakeIndexer struct {
	papers    map[string][]types.Paper
	summaries map[string][]types.PaperSummary
	err       error
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{papers: map[string][]types.Paper{}, summaries: map[string][]types.PaperSummary{}}
}

func (f *fakeIndexer) IndexPapers(_ context.Context, sessionID string, papers []types.Paper) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.papers[sessionID] = append(f.papers[sessionID], papers...)
	return len(papers), nil
}

func (f *fakeIndexer) IndexSummaries(_ context.Context, sessionID string, sums []types.PaperSummary) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.summaries[sessionID] = append(f.summaries[sessionID], sums...)
	return len(sums), nil
}

// blockingAgent waits for its context to end.
type blockingAgent struct{}

func (blockingAgent) Name() types.AgentName { return types.AgentThesis }

func (blockingAgent) Run(ctx context.Context, _ agent.Input) (types.Output, error) {
	<-ctx.Done()
	return types.Output{}, ctx.Err()
}

// --- helpers ---

var scenarioReplies = map[string]string{
	"Analyze this biomedical": `{"keywords":["compound X","pathway Y"],"variables":{"independent":["X dose"],"dependent":["Y activity"],"control":[]},"summary":"X on Y","considerations":[]}`,
	"Summarize this paper":    `{"title":"","authors":[],"key_findings":["X lowers Y"],"methodology":"in vitro","relevance":0.8}`,
	"Identify trends":         `{"patterns":["X consistently lowers Y"],"contradictions":[],"gaps":["no in vivo data"],"common_variables":["Y activity"]}`,
	"Generate testable":       `{"hypotheses":[{"statement":"X inhibits Y in vivo","rationale":"in vitro evidence","experiments":["mouse model"],"feasibility":0.6}],"recommendations":["start with mice"]}`,
}

func scenarioPapers() []types.Paper {
	return []types.Paper{
		{ID: "2401.00001", Title: "X and Y in cell culture", URL: "http://arxiv.org/abs/2401.00001", Authors: []string{"A"}},
		{ID: "2401.00002", Title: "Pathway Y regulation", URL: "http://arxiv.org/abs/2401.00002", Authors: []string{"B"}},
	}
}

type fixture struct {
	pipe    *Pipeline
	store   *session.Store
	backend *mockBackend
	lib     *fakeIndexer
	id      string
}

func newFixture(t *testing.T, llm *scriptedLLM) *fixture {
	t.Helper()
	store, err := session.Open(types.StoreConfig{DataDir: t.TempDir()}, nil)
	require.NoError(t, err)

	backend := &mockBackend{papers: scenarioPapers()}
	lib := newFakeIndexer()
	agents := agent.All(agent.Deps{LLM: llm, Search: backend})
	pipe := New(store, agents, lib, types.PipelineConfig{}, nil)

	id, err := store.CreateSession("X/Y", "Does compound X inhibit pathway Y?")
	require.NoError(t, err)
	return &fixture{pipe: pipe, store: store, backend: backend, lib: lib, id: id}
}

// --- tests ---

func TestFullScenarioMapReportsFiveOfSeven(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: scenarioReplies})
	ctx := context.Background()

	for _, name := range []types.AgentName{
		types.AgentThesis, types.AgentSearch, types.AgentReader, types.AgentTrend, types.AgentHypothesis,
	} {
		out, err := f.pipe.Run(ctx, f.id, name, Args{})
		require.NoError(t, err, name)
		assert.Positive(t, out.Confidence, name)
	}

	out, err := f.pipe.Run(ctx, f.id, types.AgentMap, Args{})
	require.NoError(t, err)
	m := out.Metadata.Map
	require.NotNil(t, m)
	assert.Equal(t, 5, m.PipelineSummary.CompletedAgents)
	assert.Equal(t, 7, m.PipelineSummary.TotalAgents)
	assert.Contains(t, m.MermaidDiagram, "class thesis,search,reader,trend,hypothesis completed")
	assert.Contains(t, m.MermaidDiagram, "class file,map pending")

	sess, ok := f.store.GetSession(f.id)
	require.True(t, ok)
	assert.Len(t, sess.AgentResults, 6)
	assert.Equal(t, []string{"compound X", "pathway Y"}, sess.Memory.Keywords)
	assert.Equal(t, 2, sess.Memory.PaperCount)

	assert.Len(t, f.lib.papers[f.id], 2)
	assert.Len(t, f.lib.summaries[f.id], 2)
}

func TestSearchBeforeThesisIsNotPersisted(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: scenarioReplies})

	out, err := f.pipe.Run(context.Background(), f.id, types.AgentSearch, Args{})
	require.NoError(t, err)
	assert.Zero(t, out.Confidence)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "thesis")
	assert.Zero(t, f.backend.calls)

	_, stored := f.store.AgentResult(f.id, types.AgentSearch)
	assert.False(t, stored)
	assert.Empty(t, f.lib.papers)
}

func TestExplicitKeywordsSearchWithoutThesis(t *testing.T) {
	f := newFixture(t, &scriptedLLM{})

	out, err := f.pipe.Run(context.Background(), f.id, types.AgentSearch, Args{Keywords: []string{"pathway Y"}})
	require.NoError(t, err)
	assert.Equal(t, 0.9, out.Confidence)
	assert.Equal(t, 1, f.backend.calls)
	assert.Equal(t, `all:"pathway Y"`, out.Metadata.Search.Query)
}

func TestRerunOverwrites(t *testing.T) {
	llm := &scriptedLLM{replies: scenarioReplies}
	f := newFixture(t, llm)
	ctx := context.Background()

	_, err := f.pipe.Run(ctx, f.id, types.AgentThesis, Args{})
	require.NoError(t, err)

	llm.replies = map[string]string{"Analyze this biomedical": `{"keywords":["second"],"variables":{},"summary":"s","considerations":[]}`}
	_, err = f.pipe.Run(ctx, f.id, types.AgentThesis, Args{})
	require.NoError(t, err)

	got, ok := f.store.AgentResult(f.id, types.AgentThesis)
	require.True(t, ok)
	assert.Equal(t, []string{"second"}, got.Metadata.Thesis.Keywords)
	assert.Len(t, f.store.AgentResults(f.id), 1)
}

func TestExternalFailureIsPersisted(t *testing.T) {
	f := newFixture(t, &scriptedLLM{err: errors.New("connection refused")})

	out, err := f.pipe.Run(context.Background(), f.id, types.AgentThesis, Args{})
	require.NoError(t, err)
	assert.Zero(t, out.Confidence)
	assert.Equal(t, []string{"Analysis failed - check API key"}, out.Warnings)

	stored, ok := f.store.AgentResult(f.id, types.AgentThesis)
	require.True(t, ok)
	assert.Contains(t, stored.Metadata.Error, "connection refused")
}

func TestFileWithoutPathsIsNotPersisted(t *testing.T) {
	f := newFixture(t, &scriptedLLM{})

	out, err := f.pipe.Run(context.Background(), f.id, types.AgentFile, Args{})
	require.NoError(t, err)
	assert.Zero(t, out.Confidence)
	_, stored := f.store.AgentResult(f.id, types.AgentFile)
	assert.False(t, stored)
}

func TestRunResolvesPrefix(t *testing.T) {
	f := newFixture(t, &scriptedLLM{})

	out, err := f.pipe.Run(context.Background(), f.id[:8], types.AgentMap, Args{})
	require.NoError(t, err)
	assert.Equal(t, types.AgentMap, out.Agent)
	_, stored := f.store.AgentResult(f.id, types.AgentMap)
	assert.True(t, stored)
}

func TestRunUnknownSession(t *testing.T) {
	f := newFixture(t, &scriptedLLM{})
	_, err := f.pipe.Run(context.Background(), "nope", types.AgentMap, Args{})
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRunUnknownAgent(t *testing.T) {
	f := newFixture(t, &scriptedLLM{})
	_, err := f.pipe.Run(context.Background(), f.id, "summarize", Args{})
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestAgentTimeout(t *testing.T) {
	store, err := session.Open(types.StoreConfig{DataDir: t.TempDir()}, nil)
	require.NoError(t, err)
	id, err := store.CreateSession("t", "q")
	require.NoError(t, err)

	agents := map[types.AgentName]agent.Agent{types.AgentThesis: blockingAgent{}}
	pipe := New(store, agents, nil, types.PipelineConfig{AgentTimeout: 20 * time.Millisecond}, nil)

	start := time.Now()
	out, err := pipe.Run(context.Background(), id, types.AgentThesis, Args{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Zero(t, out.Confidence)
	assert.Contains(t, out.Metadata.Error, "deadline exceeded")
}

func TestIndexFailureIsNotReturned(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: scenarioReplies})
	f.lib.err = errors.New("database is locked")
	ctx := context.Background()

	_, err := f.pipe.Run(ctx, f.id, types.AgentThesis, Args{})
	require.NoError(t, err)
	out, err := f.pipe.Run(ctx, f.id, types.AgentSearch, Args{})
	require.NoError(t, err)
	assert.Len(t, out.Metadata.Search.Papers, 2)
}

func TestRunAllSkipsFileWithoutPaths(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: scenarioReplies})

	outs, err := f.pipe.RunAll(context.Background(), f.id, Args{})
	require.NoError(t, err)
	require.Len(t, outs, 6)
	assert.Equal(t, types.AgentThesis, outs[0].Agent)
	assert.Equal(t, types.AgentMap, outs[5].Agent)
	assert.Equal(t, 5, outs[5].Metadata.Map.PipelineSummary.CompletedAgents)
}

func TestRunAllContinuesPastDegradedStages(t *testing.T) {
	f := newFixture(t, &scriptedLLM{err: errors.New("offline")})

	outs, err := f.pipe.RunAll(context.Background(), f.id, Args{})
	require.NoError(t, err)
	require.Len(t, outs, 6)
	for _, out := range outs[:5] {
		assert.Zero(t, out.Confidence, out.Agent)
	}
}

func TestReady(t *testing.T) {
	sess := types.Session{AgentResults: map[types.AgentName]types.Output{}}
	assert.Equal(t, []types.AgentName{types.AgentThesis, types.AgentFile, types.AgentMap}, Ready(sess))

	sess.AgentResults[types.AgentThesis] = types.Output{Agent: types.AgentThesis}
	sess.AgentResults[types.AgentSearch] = types.Output{Agent: types.AgentSearch}
	assert.Equal(t, []types.AgentName{types.AgentFile, types.AgentReader, types.AgentMap}, Ready(sess))
}
