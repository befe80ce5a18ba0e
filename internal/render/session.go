// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

const timeLayout = "2006-01-02 15:04"

// Sessions prints the session listing with shortened ids.
func (p *Printer) Sessions(list []types.SessionSummary) {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			ShortID(s.ID),
			Truncate(s.Title, 30),
			fmt.Sprintf("%d/%d", s.AgentCount, types.TotalAgents),
			s.UpdatedAt.Local().Format(timeLayout),
		})
	}
	p.Table("Sessions", []string{"ID", "TITLE", "AGENTS", "UPDATED"}, rows)
}

// Projects prints the project listing.
func (p *Printer) Projects(list []types.ProjectSummary) {
	rows := make([][]string, 0, len(list))
	for _, pr := range list {
		rows = append(rows, []string{
			pr.ID,
			ShortID(pr.SessionID),
			Truncate(pr.Title, 30),
			pr.UpdatedAt.Local().Format(timeLayout),
		})
	}
	p.Table("Projects", []string{"PROJECT", "SESSION", "TITLE", "UPDATED"}, rows)
}

// Session prints a session header and its per-agent progress.
func (p *Printer) Session(s types.Session) {
	p.printf("%s  %s\n", p.s.title.Render(s.Title), p.s.muted.Render(s.ID))
	p.printf("%s\n", s.ResearchQuestion)
	if s.Memory.Focus != "" {
		p.printf("%s %s\n", p.s.label.Render("Focus:"), s.Memory.Focus)
	}
	if s.ProjectID != "" {
		p.printf("%s %s\n", p.s.label.Render("Project:"), s.ProjectID)
	}
	p.printf("\n")

	rows := make([][]string, 0, types.TotalAgents)
	for _, name := range types.AllAgents {
		out, ok := s.AgentResults[name]
		if !ok {
			rows = append(rows, []string{string(name), "-", "", ""})
			continue
		}
		rows = append(rows, []string{
			string(name),
			p.confidence(out.Confidence),
			out.Timestamp.Local().Format(timeLayout),
			Truncate(out.Result, 50),
		})
	}
	p.Table("Agents", []string{"AGENT", "CONF", "RUN AT", "RESULT"}, rows)
}

// Statistics prints a session's progress roll-up.
func (p *Printer) Statistics(st types.Statistics) {
	p.printf("%s\n", p.s.title.Render("Statistics"))
	p.printf("  %-20s %d/%d (%.1f%%)\n", "Completed agents", st.CompletedAgents, st.TotalAgents, st.CompletionPercentage)
	p.printf("  %-20s %s\n", "Average confidence", p.confidence(st.AverageConfidence))
	p.printf("  %-20s %d\n", "Sources", st.TotalSources)
	p.printf("  %-20s %d\n", "Warnings", st.TotalWarnings)
	if !st.LastUpdate.IsZero() {
		p.printf("  %-20s %s\n", "Last update", st.LastUpdate.Local().Format(timeLayout))
	}
}

// Profile prints the researcher profile.
func (p *Printer) Profile(pr types.ResearcherProfile) {
	if pr.IsZero() {
		p.printf("%s\n", p.s.muted.Render("No researcher profile set. Use `profile set`."))
		return
	}
	p.printf("%s\n", p.s.title.Render("Researcher profile"))
	for _, f := range []struct{ k, v string }{
		{"Name", pr.Name},
		{"Email", pr.Email},
		{"Affiliation", pr.Affiliation},
		{"Research focus", pr.ResearchFocus},
		{"ORCID", pr.ORCID},
		{"PubMed ID", pr.PubMedID},
	} {
		if f.v != "" {
			p.printf("  %-16s %s\n", f.k, f.v)
		}
	}
}
