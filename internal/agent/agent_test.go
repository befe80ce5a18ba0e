// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/internal/search"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// --- mocks ---

// scriptedLLM answers by matching a substring of the prompt.
type scriptedLLM struct {
	replies map[string]string
	errs    map[string]error
	calls   int
}

func (s *scriptedLLM) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	for key, err := range s.errs {
		if strings.Contains(prompt, key) {
			return "", err
		}
	}
	for key, reply := range s.replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return "", errors.New("no scripted reply")
}

type mockBackend struct {
	result search.Result
	err    error
	calls  int
	got    search.Query
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Search(_ context.Context, q search.Query) (search.Result, error) {
	m.calls++
	m.got = q
	return m.result, m.err
}

type mockParser struct {
	fail map[string]bool
}

func (m mockParser) Parse(_ context.Context, path string) (types.ParsedFile, error) {
	if m.fail[path] {
		return types.ParsedFile{}, errors.New("corrupt")
	}
	return types.ParsedFile{Filename: path, Path: path, Content: "text", WordCount: 1}, nil
}

// --- helpers ---

func session(question string, results ...types.Output) types.Session {
	s := types.Session{
		ID:               "s1",
		ResearchQuestion: question,
		AgentResults:     map[types.AgentName]types.Output{},
	}
	for _, r := range results {
		s.AgentResults[r.Agent] = r
	}
	return s
}

func mustOutput(t *testing.T, agent types.AgentName, meta types.Metadata) types.Output {
	t.Helper()
	out, err := types.NewOutput(agent, "ok", 0.9, nil, nil, meta)
	require.NoError(t, err)
	return out
}

func thesisResult(t *testing.T, keywords ...string) types.Output {
	return mustOutput(t, types.AgentThesis, types.Metadata{Thesis: &types.ThesisMetadata{
		Keywords: keywords, Summary: "focus",
		Variables: types.Variables{Independent: []string{"dose"}, Dependent: []string{"activity"}},
	}})
}

func papers(n int) []types.Paper {
	var out []types.Paper
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("2401.%05d", i)
		out = append(out, types.Paper{ID: id, Title: "Paper " + id, URL: "http://arxiv.org/abs/" + id, Authors: []string{"A"}})
	}
	return out
}

func searchResult(t *testing.T, n int) types.Output {
	return mustOutput(t, types.AgentSearch, types.Metadata{Search: &types.SearchMetadata{Papers: papers(n)}})
}

func readerResult(t *testing.T) types.Output {
	return mustOutput(t, types.AgentReader, types.Metadata{Reader: &types.ReaderMetadata{Summaries: []types.PaperSummary{
		{Title: "P1", KeyFindings: []string{"f1"}, Methodology: "RCT", Relevance: 0.7},
	}}})
}

func trendResult(t *testing.T) types.Output {
	return mustOutput(t, types.AgentTrend, types.Metadata{Trend: &types.TrendMetadata{
		Patterns: []string{"pattern"}, Gaps: []string{"gap"},
	}})
}

// --- Execute / Fallback ---

func TestExecuteConvertsErrorsToFallback(t *testing.T) {
	llmErr := errors.New("401 unauthorized")
	a := &Thesis{LLM: &scriptedLLM{errs: map[string]error{"": llmErr}}}

	out, err := Execute(context.Background(), a, Input{Session: session("Q?")}, zap.NewNop())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindExternal))
	assert.ErrorIs(t, err, llmErr)

	assert.Equal(t, types.AgentThesis, out.Agent)
	assert.Zero(t, out.Confidence)
	assert.Equal(t, []string{"Analysis failed - check API key"}, out.Warnings)
	assert.Contains(t, out.Metadata.Error, "401")
	assert.False(t, out.Timestamp.IsZero())
}

type plainFailure struct{}

func (plainFailure) Name() types.AgentName { return types.AgentTrend }
func (plainFailure) Run(context.Context, Input) (types.Output, error) {
	return types.Output{}, errors.New("unexpected")
}

func TestExecuteWrapsPlainErrors(t *testing.T) {
	out, err := Execute(context.Background(), plainFailure{}, Input{}, nil)
	var ae *Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, KindExternal, ae.Kind)
	assert.Equal(t, types.AgentTrend, out.Agent)
	assert.Equal(t, []string{"Agent failed"}, out.Warnings)
}

func TestFallbackPrerequisite(t *testing.T) {
	out := Fallback(types.AgentReader, prerequisite(types.AgentReader, "Run search agent first"))
	assert.Equal(t, "Run search agent first", out.Result)
	assert.Equal(t, []string{"Run search agent first"}, out.Warnings)
	assert.Empty(t, out.Metadata.Error)
	assert.Zero(t, out.Confidence)
}

// --- Thesis ---

func TestThesis(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{
		"compound X": `{"keywords":["compound X","pathway Y"],"variables":{"independent":["X dose"],"dependent":["Y activity"],"control":["cell line"]},"summary":"X on Y","considerations":["off-target effects"]}`,
	}}
	out, err := (&Thesis{LLM: llm}).Run(context.Background(), Input{Session: session("Does compound X inhibit pathway Y?")})
	require.NoError(t, err)
	assert.Equal(t, 0.92, out.Confidence)
	require.NotNil(t, out.Metadata.Thesis)
	assert.Equal(t, []string{"compound X", "pathway Y"}, out.Metadata.Thesis.Keywords)
	assert.Equal(t, []string{"cell line"}, out.Metadata.Thesis.Variables.Control)
	assert.Equal(t, []string{"off-target effects"}, out.Warnings)
}

func TestThesisRejectsSchemaViolation(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{"": `{"summary":"no keywords here"}`}}
	_, err := (&Thesis{LLM: llm}).Run(context.Background(), Input{Session: session("Q?")})
	assert.True(t, IsKind(err, KindExternal))
}

func TestThesisNeedsQuestion(t *testing.T) {
	llm := &scriptedLLM{}
	_, err := (&Thesis{LLM: llm}).Run(context.Background(), Input{Session: session("  ")})
	assert.True(t, IsKind(err, KindInput))
	assert.Zero(t, llm.calls)
}

// --- File ---

func TestFilePartialFailure(t *testing.T) {
	f := &File{Parser: mockParser{fail: map[string]bool{"bad.pdf": true}}}
	out, err := f.Run(context.Background(), Input{FilePaths: []string{"a.md", "bad.pdf", "b.txt"}})
	require.NoError(t, err)
	require.NotNil(t, out.Metadata.File)
	assert.Len(t, out.Metadata.File.ParsedFiles, 2)
	assert.Equal(t, []string{"bad.pdf"}, out.Metadata.File.Failed)
	assert.Equal(t, []string{"a.md", "b.txt"}, out.Sources)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "bad.pdf")
	assert.Equal(t, 0.63, out.Confidence)
}

func TestFileAllFail(t *testing.T) {
	f := &File{Parser: mockParser{fail: map[string]bool{"x": true}}}
	out, err := f.Run(context.Background(), Input{FilePaths: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, 0.1, out.Confidence)
	assert.Empty(t, out.Metadata.File.ParsedFiles)
}

func TestFileNoPaths(t *testing.T) {
	_, err := (&File{Parser: mockParser{}}).Run(context.Background(), Input{})
	assert.True(t, IsKind(err, KindInput))
}

// --- Search ---

func TestSearchWithoutThesisMakesNoCall(t *testing.T) {
	b := &mockBackend{}
	out, err := Execute(context.Background(), &Search{Backend: b}, Input{Session: session("Q")}, nil)
	assert.True(t, IsKind(err, KindPrerequisite))
	assert.Zero(t, b.calls)
	assert.Zero(t, out.Confidence)
	assert.Equal(t, []string{"Run thesis agent first"}, out.Warnings)
}

func TestSearchUsesThesisKeywords(t *testing.T) {
	b := &mockBackend{result: search.Result{Papers: papers(2), Query: `all:"a" AND all:"b"`}}
	in := Input{Session: session("Q", thesisResult(t, "a", "b")), MaxResults: 7}
	out, err := (&Search{Backend: b}).Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, b.got.Keywords)
	assert.Equal(t, 7, b.got.MaxResults)
	assert.Equal(t, 0.9, out.Confidence)
	assert.Len(t, out.Sources, 2)
	assert.Equal(t, `all:"a" AND all:"b"`, out.Metadata.Search.Query)
	assert.Equal(t, []string{"a", "b"}, out.Metadata.Search.SearchTerms)
}

func TestSearchExplicitKeywordsSkipThesis(t *testing.T) {
	b := &mockBackend{result: search.Result{Papers: papers(1)}}
	_, err := (&Search{Backend: b}).Run(context.Background(), Input{Session: session("Q"), Keywords: []string{"crispr"}})
	require.NoError(t, err)
	assert.Equal(t, 1, b.calls)
}

func TestSearchNoPapers(t *testing.T) {
	b := &mockBackend{}
	out, err := (&Search{Backend: b}).Run(context.Background(), Input{Session: session("Q", thesisResult(t, "a"))})
	require.NoError(t, err)
	assert.Equal(t, 0.3, out.Confidence)
	assert.Equal(t, []string{"No papers found for search terms"}, out.Warnings)
	assert.NotNil(t, out.Metadata.Search.Papers)
}

func TestSearchBackendFailure(t *testing.T) {
	b := &mockBackend{err: errors.New("connection refused")}
	out, err := Execute(context.Background(), &Search{Backend: b}, Input{Session: session("Q", thesisResult(t, "a"))}, nil)
	assert.True(t, IsKind(err, KindExternal))
	assert.Zero(t, out.Confidence)
	assert.Equal(t, []string{"Literature search failed"}, out.Warnings)
}

// --- Reader ---

func TestReaderNeedsSearch(t *testing.T) {
	llm := &scriptedLLM{}
	_, err := (&Reader{LLM: llm}).Run(context.Background(), Input{Session: session("Q")})
	assert.True(t, IsKind(err, KindPrerequisite))

	_, err = (&Reader{LLM: llm}).Run(context.Background(), Input{Session: session("Q", searchResult(t, 0))})
	assert.True(t, IsKind(err, KindPrerequisite))
	assert.Zero(t, llm.calls)
}

func TestReaderSummarizesFirstThreeWithStubs(t *testing.T) {
	llm := &scriptedLLM{
		replies: map[string]string{"Title: Paper": `{"title":"","authors":[],"key_findings":["finding"],"methodology":"cohort","relevance":0.8}`},
		errs:    map[string]error{"Paper 2401.00001": errors.New("timeout")},
	}
	out, err := (&Reader{LLM: llm}).Run(context.Background(), Input{Session: session("Q", searchResult(t, 5))})
	require.NoError(t, err)
	assert.Equal(t, 3, llm.calls)

	sums := out.Metadata.Reader.Summaries
	require.Len(t, sums, 3)
	assert.Equal(t, "Paper 2401.00000", sums[0].Title)
	assert.Equal(t, []string{"A"}, sums[0].Authors)
	assert.False(t, sums[0].Stub)

	assert.True(t, sums[1].Stub)
	assert.Equal(t, []string{"Analysis pending"}, sums[1].KeyFindings)
	assert.Equal(t, 0.5, sums[1].Relevance)

	assert.Equal(t, 0.57, out.Confidence)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], "timeout")
}

// --- Trend ---

func TestTrend(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{"Identify trends": `{"patterns":["p"],"contradictions":["c"],"gaps":["g"],"common_variables":["v"]}`}}
	out, err := (&Trend{LLM: llm}).Run(context.Background(), Input{Session: session("Q", readerResult(t))})
	require.NoError(t, err)
	assert.Equal(t, 0.8, out.Confidence)
	assert.Equal(t, []string{"c"}, out.Warnings)
	assert.Equal(t, []string{"P1"}, out.Sources)
	assert.False(t, out.Metadata.Trend.Stub)
}

func TestTrendStubOnFailure(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{"": "not json"}}
	out, err := (&Trend{LLM: llm}).Run(context.Background(), Input{Session: session("Q", readerResult(t))})
	require.NoError(t, err)
	assert.True(t, out.Metadata.Trend.Stub)
	assert.Equal(t, []string{"Analysis pending"}, out.Metadata.Trend.Patterns)
	assert.Equal(t, []string{"Comprehensive analysis needed"}, out.Metadata.Trend.Gaps)
	assert.Equal(t, stubConfidence, out.Confidence)
}

func TestTrendNeedsReader(t *testing.T) {
	_, err := (&Trend{LLM: &scriptedLLM{}}).Run(context.Background(), Input{Session: session("Q")})
	assert.True(t, IsKind(err, KindPrerequisite))
}

// --- Hypothesis ---

func TestHypothesis(t *testing.T) {
	llm := &scriptedLLM{replies: map[string]string{"testable": `{"hypotheses":[{"statement":"X inhibits Y","rationale":"r","experiments":["e1"],"feasibility":0.7}],"recommendations":["do it"]}`}}
	in := Input{Session: session("Q", thesisResult(t, "a"), trendResult(t))}
	out, err := (&Hypothesis{LLM: llm}).Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 0.85, out.Confidence)
	require.Len(t, out.Metadata.Hypothesis.Hypotheses, 1)
	assert.Equal(t, 0.7, out.Metadata.Hypothesis.Hypotheses[0].Feasibility)
}

func TestHypothesisPrerequisites(t *testing.T) {
	h := &Hypothesis{LLM: &scriptedLLM{}}
	for _, s := range []types.Session{
		session("Q"),
		session("Q", thesisResult(t, "a")),
		session("Q", trendResult(t)),
	} {
		out, err := Execute(context.Background(), h, Input{Session: s}, nil)
		assert.True(t, IsKind(err, KindPrerequisite))
		assert.Equal(t, []string{"Run thesis and trend agents first"}, out.Warnings)
	}
}

func TestHypothesisStubOnFailure(t *testing.T) {
	llm := &scriptedLLM{errs: map[string]error{"": errors.New("quota")}}
	out, err := (&Hypothesis{LLM: llm}).Run(context.Background(), Input{Session: session("Q", thesisResult(t, "a"), trendResult(t))})
	require.NoError(t, err)
	assert.True(t, out.Metadata.Hypothesis.Stub)
	assert.Equal(t, "Hypothesis generation pending", out.Metadata.Hypothesis.Hypotheses[0].Statement)
}

// --- Map ---

func TestMapReportsCompletedStages(t *testing.T) {
	s := session("Q", thesisResult(t, "a"), searchResult(t, 2), readerResult(t), trendResult(t),
		mustOutput(t, types.AgentHypothesis, types.Metadata{Hypothesis: &types.HypothesisMetadata{}}))

	out, err := (&Map{}).Run(context.Background(), Input{Session: s})
	require.NoError(t, err)
	m := out.Metadata.Map
	require.NotNil(t, m)

	assert.Equal(t, 5, m.PipelineSummary.CompletedAgents)
	assert.Equal(t, 7, m.PipelineSummary.TotalAgents)
	assert.Equal(t, 71.4, m.PipelineSummary.CompletionPercentage)
	assert.NotNil(t, m.PipelineSummary.LastExecuted)
	assert.Equal(t, []types.AgentName{"thesis", "search", "reader", "trend", "hypothesis"}, m.CompletedAgents)

	assert.True(t, strings.HasPrefix(m.MermaidDiagram, "graph TD\n"))
	assert.Contains(t, m.MermaidDiagram, "class thesis,search,reader,trend,hypothesis completed")
	assert.Contains(t, m.MermaidDiagram, "class file,map pending")

	require.Len(t, m.Stages, 7)
	assert.False(t, m.Stages[1].Completed)
	assert.True(t, m.Stages[0].Completed)
}

func TestMapEmptySession(t *testing.T) {
	out, err := (&Map{}).Run(context.Background(), Input{Session: session("Q")})
	require.NoError(t, err)
	assert.Zero(t, out.Metadata.Map.PipelineSummary.CompletedAgents)
	assert.Zero(t, out.Metadata.Map.PipelineSummary.CompletionPercentage)
	assert.Nil(t, out.Metadata.Map.PipelineSummary.LastExecuted)
	assert.NotContains(t, out.Metadata.Map.MermaidDiagram, " completed\n")
}

func TestExecuteTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	out, err := Execute(ctx, &Map{}, Input{Session: session("Q")}, nil)
	assert.True(t, IsKind(err, KindExternal))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, out.Confidence)
}

func TestAllRegistersEveryStage(t *testing.T) {
	all := All(Deps{})
	for _, name := range types.AllAgents {
		a, ok := all[name]
		require.True(t, ok, name)
		assert.Equal(t, name, a.Name())
	}
}
