// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the literature search service for papers matching
// a keyword list.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// DefaultMaxResults is used when a Query does not set MaxResults.
const DefaultMaxResults = 10

// Backend searches a single literature API. Tests supply a mock.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query) (Result, error)
}

// Query holds the search parameters.
type Query struct {
	// Keywords are ANDed; each one is matched as a quoted phrase.
	Keywords []string

	// MaxResults caps the number of papers requested.
	MaxResults int
}

// Terms returns the trimmed, non-empty keywords in order, dropping
// case-insensitive duplicates.
func (q Query) Terms() []string {
	seen := make(map[string]bool, len(q.Keywords))
	var terms []string
	for _, kw := range q.Keywords {
		kw = strings.Join(strings.Fields(kw), " ")
		key := strings.ToLower(kw)
		if kw == "" || seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, kw)
	}
	return terms
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return len(q.Terms()) == 0
}

// Limit returns MaxResults or the default.
func (q Query) Limit() int {
	return q.LimitOr(0)
}

// LimitOr returns MaxResults when set, otherwise def when positive,
// otherwise DefaultMaxResults. Backends pass their configured cap as def.
func (q Query) LimitOr(def int) int {
	switch {
	case q.MaxResults > 0:
		return q.MaxResults
	case def > 0:
		return def
	default:
		return DefaultMaxResults
	}
}

// Result is one search response after parsing.
type Result struct {
	// Papers are ordered by relevance, highest first, without duplicates.
	Papers []types.Paper

	// Query is the query string sent to the service.
	Query string

	// Skipped counts entries dropped because required fields were missing.
	Skipped int

	// Warnings reports backends that failed while others succeeded.
	Warnings []string
}

// BooleanQuery builds the search expression for terms: each term quoted as
// a phrase, all of them ANDed.
func BooleanQuery(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, "")
		parts = append(parts, fmt.Sprintf(`all:"%s"`, t))
	}
	return strings.Join(parts, " AND ")
}

// positionScore maps a result's position in a relevance-sorted response
// to [0.1, 1.0], first result highest.
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}

// rank removes duplicates, sorts by relevance, and truncates to limit.
func rank(papers []types.Paper, limit int) []types.Paper {
	out := deduplicate(papers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// deduplicate drops papers sharing an id or a normalized title with an
// earlier paper. The first occurrence wins.
func deduplicate(papers []types.Paper) []types.Paper {
	seen := make(map[string]bool)
	out := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		idKey := "id:" + p.ID
		titleKey := "title:" + normalizeTitle(p.Title)
		if seen[idKey] || (titleKey != "title:" && seen[titleKey]) {
			continue
		}
		seen[idKey] = true
		if titleKey != "title:" {
			seen[titleKey] = true
		}
		out = append(out, p)
	}
	return out
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
