// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render formats pipeline Outputs, session listings and statistics
// for the terminal. Colors follow the writer: a pipe or file gets plain text.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const (
	// ShortIDLen is how many characters of a session id listings show.
	ShortIDLen = 8

	maxSources = 5
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	good    lipgloss.Style
	fair    lipgloss.Style
	poor    lipgloss.Style
	warning lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	box     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true),
		label:   r.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		good:    r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		fair:    r.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		poor:    r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		header:  r.NewStyle().Bold(true).Underline(true),
		cell:    r.NewStyle(),
		box: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1),
	}
}

// Printer writes styled text to w.
type Printer struct {
	w io.Writer
	s styles
}

// New returns a Printer whose color profile is detected from w.
func New(w io.Writer) *Printer {
	return &Printer{w: w, s: newStyles(lipgloss.NewRenderer(w))}
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// confidence colors c by band: >= 0.7 good, >= 0.3 fair, below that poor.
func (p *Printer) confidence(c float64) string {
	text := fmt.Sprintf("%.0f%%", c*100)
	switch {
	case c >= 0.7:
		return p.s.good.Render(text)
	case c >= 0.3:
		return p.s.fair.Render(text)
	default:
		return p.s.poor.Render(text)
	}
}

// ShortID truncates a session id for display.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

// Table renders rows under headers as a borderless lipgloss table indented
// by two spaces.
func (p *Printer) Table(title string, headers []string, rows [][]string) {
	if title != "" {
		p.printf("%s\n", p.s.title.Render(title))
	}
	if len(rows) == 0 {
		p.printf("%s\n", p.s.muted.Render("  (none)"))
		return
	}

	last := len(headers) - 1
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := p.s.cell
			if row == table.HeaderRow {
				s = p.s.header
			}
			if col < last {
				s = s.PaddingRight(2)
			}
			return s
		})

	for _, line := range strings.Split(t.Render(), "\n") {
		p.printf("  %s\n", strings.TrimRight(line, " "))
	}
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
