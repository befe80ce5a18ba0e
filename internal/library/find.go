// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// FindOptions holds parameters for library lookups.
type FindOptions struct {
	// Query is matched against titles, abstracts and summary findings.
	// Empty lists the whole library, newest first.
	Query string

	// SessionID restricts results to papers found by one session.
	SessionID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// Entry is a library paper with the sessions that found it and any
// findings the reader recorded.
type Entry struct {
	types.Paper `yaml:",inline"`

	FirstSeen   time.Time `json:"first_seen" yaml:"first_seen"`
	Sessions    []string  `json:"sessions" yaml:"sessions"`
	Findings    []string  `json:"findings,omitempty" yaml:"findings,omitempty"`
	Methodology string    `json:"methodology,omitempty" yaml:"methodology,omitempty"`
}

// ftsQuery quotes every term so user input cannot reach FTS5 operator
// syntax. Terms are implicitly ANDed.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// Find queries the library. Full-text results are ranked by title and
// abstract relevance; papers matching only through their findings follow.
func (s *Store) Find(ctx context.Context, opts FindOptions) ([]Entry, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		match  = ftsQuery(opts.Query)
		useFTS = match != ""
	)

	qb.WriteString(`SELECT p.id, p.title, p.abstract, p.url, p.authors, p.published, p.first_seen FROM papers p`)
	if useFTS {
		qb.WriteString(`
			LEFT JOIN (SELECT rowid, rank FROM papers_fts WHERE papers_fts MATCH ?) r ON r.rowid = p.rowid
			WHERE (r.rowid IS NOT NULL OR p.id IN (
				SELECT s.paper_id FROM summaries s
				JOIN summaries_fts f ON f.rowid = s.rowid
				WHERE summaries_fts MATCH ?))`)
		args = append(args, match, match)
	} else {
		qb.WriteString(` WHERE 1=1`)
	}

	if opts.SessionID != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM paper_sessions ps WHERE ps.paper_id = p.id AND ps.session_id = ?)`)
		args = append(args, opts.SessionID)
	}

	if useFTS {
		qb.WriteString(` ORDER BY coalesce(r.rank, 0), p.title`)
	} else {
		qb.WriteString(` ORDER BY p.first_seen DESC, p.title`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying library: %w", err)
	}

	var entries []Entry
	for rows.Next() {
		var (
			e                          Entry
			abstract, url, authorsJSON sql.NullString
			published                  sql.NullString
			firstSeen                  string
		)
		if err := rows.Scan(&e.ID, &e.Title, &abstract, &url, &authorsJSON, &published, &firstSeen); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Abstract = abstract.String
		e.URL = url.String
		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &e.Authors)
		}
		if published.String != "" {
			e.Published, _ = time.Parse(time.RFC3339, published.String)
		}
		e.FirstSeen, _ = time.Parse(time.RFC3339, firstSeen)
		entries = append(entries, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		if err := s.attach(ctx, &entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// attach fills the session list and merged findings for e.
func (s *Store) attach(ctx context.Context, e *Entry) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, relevance FROM paper_sessions WHERE paper_id = ? ORDER BY session_id`, e.ID)
	if err != nil {
		return fmt.Errorf("loading sessions for %s: %w", e.ID, err)
	}
	for rows.Next() {
		var (
			sid       string
			relevance sql.NullFloat64
		)
		if err := rows.Scan(&sid, &relevance); err != nil {
			rows.Close()
			return fmt.Errorf("scanning session row: %w", err)
		}
		e.Sessions = append(e.Sessions, sid)
		if relevance.Float64 > e.RelevanceScore {
			e.RelevanceScore = relevance.Float64
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT findings, methodology FROM summaries WHERE paper_id = ? ORDER BY updated_at DESC`, e.ID)
	if err != nil {
		return fmt.Errorf("loading summaries for %s: %w", e.ID, err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	for rows.Next() {
		var (
			findingsJSON string
			methodology  sql.NullString
		)
		if err := rows.Scan(&findingsJSON, &methodology); err != nil {
			return fmt.Errorf("scanning summary row: %w", err)
		}
		var findings []string
		json.Unmarshal([]byte(findingsJSON), &findings)
		for _, f := range findings {
			if !seen[f] {
				seen[f] = true
				e.Findings = append(e.Findings, f)
			}
		}
		if e.Methodology == "" {
			e.Methodology = methodology.String
		}
	}
	return rows.Err()
}
