// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library keeps a cross-session SQLite index of every paper the
// search agent found and every summary the reader agent wrote, with FTS5
// full-text lookup over titles, abstracts and findings.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

const dbFile = "library.db"

// Store manages the library database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// Open opens or creates dir/library.db and its schema.
func Open(cfg types.LibraryConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "library"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating library directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	s := &Store{db: db, dir: dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			abstract TEXT,
			url TEXT,
			authors TEXT,
			published TEXT,
			first_seen TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS paper_sessions (
			paper_id TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			session_id TEXT NOT NULL,
			relevance REAL,
			PRIMARY KEY (paper_id, session_id)
		)`,
		`CREATE TABLE IF NOT EXISTS summaries (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			session_id TEXT NOT NULL,
			findings TEXT NOT NULL,
			methodology TEXT,
			relevance REAL,
			updated_at TEXT NOT NULL,
			UNIQUE (paper_id, session_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_paper_sessions_session ON paper_sessions(session_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=rowid)`,
		`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
			INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
		END`,
		`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
			INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
		END`,
		`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
			INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
		END`,
		`CREATE VIRTUAL TABLE summaries_fts USING fts5(findings, methodology, content=summaries, content_rowid=rowid)`,
		`CREATE TRIGGER summaries_ai AFTER INSERT ON summaries BEGIN
			INSERT INTO summaries_fts(rowid, findings, methodology) VALUES (new.rowid, new.findings, new.methodology);
		END`,
		`CREATE TRIGGER summaries_ad AFTER DELETE ON summaries BEGIN
			INSERT INTO summaries_fts(summaries_fts, rowid, findings, methodology) VALUES('delete', old.rowid, old.findings, old.methodology);
		END`,
		`CREATE TRIGGER summaries_au AFTER UPDATE ON summaries BEGIN
			INSERT INTO summaries_fts(summaries_fts, rowid, findings, methodology) VALUES('delete', old.rowid, old.findings, old.methodology);
			INSERT INTO summaries_fts(rowid, findings, methodology) VALUES (new.rowid, new.findings, new.methodology);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// IndexPapers upserts papers and links them to sessionID. It returns the
// number of papers not previously in the library.
func (s *Store) IndexPapers(ctx context.Context, sessionID string, papers []types.Paper) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	added := 0
	for _, p := range papers {
		if p.ID == "" {
			continue
		}
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM papers WHERE id = ?`, p.ID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("checking paper %s: %w", p.ID, err)
		}
		if exists == 0 {
			added++
		}

		authorsJSON, _ := json.Marshal(p.Authors)
		published := ""
		if !p.Published.IsZero() {
			published = p.Published.Format(time.RFC3339)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO papers (id, title, abstract, url, authors, published, first_seen)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				title=excluded.title, abstract=excluded.abstract, url=excluded.url,
				authors=excluded.authors, published=excluded.published`,
			p.ID, p.Title, p.Abstract, p.URL, string(authorsJSON), published, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upserting paper %s: %w", p.ID, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO paper_sessions (paper_id, session_id, relevance) VALUES (?, ?, ?)
			 ON CONFLICT(paper_id, session_id) DO UPDATE SET relevance=excluded.relevance`,
			p.ID, sessionID, p.RelevanceScore,
		)
		if err != nil {
			return 0, fmt.Errorf("linking paper %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// IndexSummaries stores reader summaries for sessionID. Placeholder
// summaries and summaries for papers not in the library are skipped.
func (s *Store) IndexSummaries(ctx context.Context, sessionID string, summaries []types.PaperSummary) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	stored := 0
	for _, sum := range summaries {
		if sum.Stub || sum.PaperID == "" {
			continue
		}
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM papers WHERE id = ?`, sum.PaperID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("checking paper %s: %w", sum.PaperID, err)
		}
		if exists == 0 {
			continue
		}

		findingsJSON, _ := json.Marshal(sum.KeyFindings)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO summaries (paper_id, session_id, findings, methodology, relevance, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(paper_id, session_id) DO UPDATE SET
				findings=excluded.findings, methodology=excluded.methodology,
				relevance=excluded.relevance, updated_at=excluded.updated_at`,
			sum.PaperID, sessionID, string(findingsJSON), sum.Methodology, sum.Relevance, now,
		)
		if err != nil {
			return 0, fmt.Errorf("storing summary for %s: %w", sum.PaperID, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return stored, nil
}

// Count returns the number of papers in the library.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n)
	return n, err
}
