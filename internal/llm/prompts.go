// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

var funcs = template.FuncMap{
	"join": strings.Join,
}

var thesisPromptTmpl = template.Must(template.New("thesis").Funcs(funcs).Parse(`Analyze this biomedical research question and extract the key components.

Research question: {{.Question}}
{{- if .Focus}}
Researcher focus: {{.Focus}}
{{- end}}

Respond with a JSON object with exactly these fields:
- "keywords": 3 to 6 search terms suitable for a literature database
- "variables": an object with "independent", "dependent" and "control" string arrays
- "summary": one or two sentences restating the research focus
- "considerations": methodological or ethical caveats worth flagging

Example response:
{"keywords": ["compound X", "pathway Y"], "variables": {"independent": ["compound X dose"], "dependent": ["pathway Y activity"], "control": ["cell line"]}, "summary": "Tests whether compound X inhibits pathway Y.", "considerations": ["Off-target effects of compound X"]}
`))

var readerPromptTmpl = template.Must(template.New("reader").Funcs(funcs).Parse(`Summarize this paper for a researcher investigating: {{.Question}}

Title: {{.Paper.Title}}
Authors: {{join .Paper.Authors ", "}}
Abstract:
{{.Paper.Abstract}}

Respond with a JSON object with these fields:
- "title": the paper title
- "authors": the author list
- "key_findings": the main findings, one per entry
- "methodology": one sentence describing the study design
- "relevance": a number between 0.0 and 1.0 rating relevance to the research question
`))

var trendPromptTmpl = template.Must(template.New("trend").Funcs(funcs).Parse(`Identify trends across these paper summaries{{if .Question}} for the research question: {{.Question}}{{end}}
{{range $i, $s := .Summaries}}
Paper {{$i}}: {{$s.Title}}
Findings: {{join $s.KeyFindings "; "}}
Methodology: {{$s.Methodology}}
{{end}}
Respond with a JSON object with these fields:
- "patterns": recurring findings or approaches
- "contradictions": findings that disagree between papers
- "gaps": open questions none of the papers address
- "common_variables": variables measured in more than one paper
`))

var hypothesisPromptTmpl = template.Must(template.New("hypothesis").Funcs(funcs).Parse(`Generate testable research hypotheses.

Research question: {{.Question}}
Research focus: {{.Summary}}
Keywords: {{join .Keywords ", "}}
Independent variables: {{join .Variables.Independent ", "}}
Dependent variables: {{join .Variables.Dependent ", "}}
Observed patterns: {{join .Trend.Patterns "; "}}
Research gaps: {{join .Trend.Gaps "; "}}
{{- if .Trend.Contradictions}}
Contradictions: {{join .Trend.Contradictions "; "}}
{{- end}}

Respond with a JSON object with these fields:
- "hypotheses": an array of objects, each with "statement", "rationale", "experiments" (an array of candidate experiments) and "feasibility" (a number between 0.0 and 1.0)
- "recommendations": next steps for the researcher
`))

// ThesisPrompt renders the thesis extraction prompt.
func ThesisPrompt(question, focus string) (string, error) {
	return render(thesisPromptTmpl, struct{ Question, Focus string }{question, focus})
}

// ReaderPrompt renders the per-paper summary prompt.
func ReaderPrompt(question string, paper types.Paper) (string, error) {
	return render(readerPromptTmpl, struct {
		Question string
		Paper    types.Paper
	}{question, paper})
}

// TrendPrompt renders the cross-paper trend prompt.
func TrendPrompt(question string, summaries []types.PaperSummary) (string, error) {
	return render(trendPromptTmpl, struct {
		Question  string
		Summaries []types.PaperSummary
	}{question, summaries})
}

// HypothesisInput is everything the hypothesis prompt draws on.
type HypothesisInput struct {
	Question  string
	Summary   string
	Keywords  []string
	Variables types.Variables
	Trend     types.TrendMetadata
}

// HypothesisPrompt renders the hypothesis generation prompt.
func HypothesisPrompt(in HypothesisInput) (string, error) {
	return render(hypothesisPromptTmpl, in)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// ThesisResponse is the object the thesis prompt asks for.
type ThesisResponse struct {
	Keywords       []string        `json:"keywords"`
	Variables      types.Variables `json:"variables"`
	Summary        string          `json:"summary"`
	Considerations []string        `json:"considerations"`
}

// Validate requires at least one non-blank keyword.
func (r *ThesisResponse) Validate() error {
	r.Keywords = compact(r.Keywords)
	if len(r.Keywords) == 0 {
		return &SchemaError{Reason: "thesis reply has no keywords"}
	}
	return nil
}

// PaperAnalysis is the object the reader prompt asks for.
type PaperAnalysis struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	KeyFindings []string `json:"key_findings"`
	Methodology string   `json:"methodology"`
	Relevance   float64  `json:"relevance"`
}

// Validate requires findings and a relevance within [0, 1].
func (r *PaperAnalysis) Validate() error {
	r.KeyFindings = compact(r.KeyFindings)
	if len(r.KeyFindings) == 0 {
		return &SchemaError{Reason: "paper analysis has no key_findings"}
	}
	if r.Relevance < 0 || r.Relevance > 1 {
		return &SchemaError{Reason: fmt.Sprintf("relevance %v outside [0,1]", r.Relevance)}
	}
	return nil
}

// TrendResponse is the object the trend prompt asks for.
type TrendResponse struct {
	Patterns        []string `json:"patterns"`
	Contradictions  []string `json:"contradictions"`
	Gaps            []string `json:"gaps"`
	CommonVariables []string `json:"common_variables"`
}

// Validate requires at least one pattern or gap.
func (r *TrendResponse) Validate() error {
	r.Patterns = compact(r.Patterns)
	r.Gaps = compact(r.Gaps)
	if len(r.Patterns) == 0 && len(r.Gaps) == 0 {
		return &SchemaError{Reason: "trend reply has neither patterns nor gaps"}
	}
	return nil
}

// HypothesisResponse is the object the hypothesis prompt asks for.
type HypothesisResponse struct {
	Hypotheses      []types.Hypothesis `json:"hypotheses"`
	Recommendations []string           `json:"recommendations"`
}

// Validate drops hypotheses without a statement, clamps feasibility into
// [0, 1], and requires at least one hypothesis.
func (r *HypothesisResponse) Validate() error {
	kept := r.Hypotheses[:0]
	for _, h := range r.Hypotheses {
		if strings.TrimSpace(h.Statement) == "" {
			continue
		}
		h.Feasibility = min(max(h.Feasibility, 0), 1)
		kept = append(kept, h)
	}
	r.Hypotheses = kept
	if len(r.Hypotheses) == 0 {
		return &SchemaError{Reason: "hypothesis reply has no hypotheses"}
	}
	return nil
}

// compact trims entries and drops blanks.
func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
