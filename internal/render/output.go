// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"strings"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// Output prints an agent Output: header, result, agent details, sources
// and warnings.
func (p *Printer) Output(out types.Output) {
	p.printf("%s  confidence %s  %s\n",
		p.s.title.Render(strings.ToUpper(string(out.Agent))),
		p.confidence(out.Confidence),
		p.s.muted.Render(out.Timestamp.Local().Format("2006-01-02 15:04:05")))
	p.printf("%s\n", out.Result)

	p.details(out)

	if len(out.Sources) > 0 {
		p.printf("\n%s\n", p.s.label.Render("Sources"))
		for i, src := range out.Sources {
			if i == maxSources {
				p.printf("  %s\n", p.s.muted.Render(fmt.Sprintf("... and %d more", len(out.Sources)-maxSources)))
				break
			}
			p.printf("  - %s\n", src)
		}
	}
	if len(out.Warnings) > 0 {
		p.printf("\n%s\n", p.s.label.Render("Warnings"))
		for _, w := range out.Warnings {
			p.printf("  %s\n", p.s.warning.Render("! "+w))
		}
	}
}

func (p *Printer) details(out types.Output) {
	m := out.Metadata
	switch {
	case m.Thesis != nil:
		p.list("Keywords", m.Thesis.Keywords)
		p.list("Independent variables", m.Thesis.Variables.Independent)
		p.list("Dependent variables", m.Thesis.Variables.Dependent)
		p.list("Control variables", m.Thesis.Variables.Control)
		if m.Thesis.Summary != "" {
			p.printf("\n%s\n  %s\n", p.s.label.Render("Focus"), m.Thesis.Summary)
		}
	case m.File != nil:
		rows := make([][]string, 0, len(m.File.ParsedFiles))
		for _, f := range m.File.ParsedFiles {
			rows = append(rows, []string{f.Filename, fmt.Sprint(f.Pages), fmt.Sprint(f.WordCount)})
		}
		p.printf("\n")
		p.Table("Parsed files", []string{"FILE", "PAGES", "WORDS"}, rows)
	case m.Search != nil:
		if m.Search.Query != "" {
			p.printf("%s\n", p.s.muted.Render("query: "+m.Search.Query))
		}
		rows := make([][]string, 0, len(m.Search.Papers))
		for _, paper := range m.Search.Papers {
			rows = append(rows, []string{paper.ID, Truncate(paper.Title, 70)})
		}
		p.printf("\n")
		p.Table("Papers", []string{"ID", "TITLE"}, rows)
	case m.Reader != nil:
		for _, s := range m.Reader.Summaries {
			status := p.confidence(s.Relevance)
			if s.Stub {
				status = p.s.muted.Render("not analyzed")
			}
			p.printf("\n%s  relevance %s\n", p.s.label.Render(Truncate(s.Title, 70)), status)
			if s.Methodology != "" {
				p.printf("  %s\n", p.s.muted.Render(s.Methodology))
			}
			for _, f := range s.KeyFindings {
				p.printf("  - %s\n", f)
			}
		}
	case m.Trend != nil:
		p.list("Patterns", m.Trend.Patterns)
		p.list("Contradictions", m.Trend.Contradictions)
		p.list("Gaps", m.Trend.Gaps)
		p.list("Common variables", m.Trend.CommonVariables)
	case m.Hypothesis != nil:
		for i, h := range m.Hypothesis.Hypotheses {
			body := fmt.Sprintf("%s\n%s", h.Statement, p.s.muted.Render(h.Rationale))
			for _, e := range h.Experiments {
				body += "\n- " + e
			}
			body += fmt.Sprintf("\nfeasibility %s", p.confidence(h.Feasibility))
			p.printf("\n%s\n%s\n", p.s.label.Render(fmt.Sprintf("Hypothesis %d", i+1)), p.s.box.Render(body))
		}
		p.list("Recommendations", m.Hypothesis.Recommendations)
	case m.Map != nil:
		for _, st := range m.Map.Stages {
			mark := p.s.muted.Render("[ ]")
			when := ""
			if st.Completed {
				mark = p.s.good.Render("[x]")
				if st.CompletedAt != nil {
					when = p.s.muted.Render(st.CompletedAt.Local().Format("2006-01-02 15:04"))
				}
			}
			p.printf("  %s %-12s %s\n", mark, st.Label, when)
		}
		p.printf("\n%d/%d stages, %.1f%% complete\n",
			m.Map.PipelineSummary.CompletedAgents,
			m.Map.PipelineSummary.TotalAgents,
			m.Map.PipelineSummary.CompletionPercentage)
		p.printf("\n%s\n", p.s.box.Render(strings.TrimRight(m.Map.MermaidDiagram, "\n")))
	}
}

func (p *Printer) list(label string, items []string) {
	if len(items) == 0 {
		return
	}
	p.printf("\n%s\n", p.s.label.Render(label))
	for _, it := range items {
		p.printf("  - %s\n", it)
	}
}
