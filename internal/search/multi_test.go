// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

type stubBackend struct {
	name  string
	res   Result
	err   error
	calls int
	last  Query
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Search(_ context.Context, q Query) (Result, error) {
	s.calls++
	s.last = q
	return s.res, s.err
}

func TestMultiMergesAndDeduplicates(t *testing.T) {
	a := &stubBackend{name: "arxiv", res: Result{
		Query: `all:"tau"`,
		Papers: []types.Paper{
			{ID: "2107.00001", Title: "Tau aggregation", RelevanceScore: 1.0},
			{ID: "2107.00002", Title: "Tau imaging", RelevanceScore: 0.1},
		},
		Skipped: 1,
	}}
	b := &stubBackend{name: "semantic_scholar", res: Result{
		Query: "tau",
		Papers: []types.Paper{
			{ID: "2107.00001", Title: "Tau aggregation", RelevanceScore: 1.0},
			{ID: "s2-x", Title: "Tau propagation", RelevanceScore: 0.55},
		},
		Skipped: 2,
	}}

	m := &Multi{Backends: []Backend{a, b}}
	res, err := m.Search(context.Background(), Query{Keywords: []string{"tau"}, MaxResults: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Query != `all:"tau"` {
		t.Errorf("Query = %q, want first backend's", res.Query)
	}
	if res.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", res.Skipped)
	}
	var ids []string
	for _, p := range res.Papers {
		ids = append(ids, p.ID)
	}
	if got := strings.Join(ids, ","); got != "2107.00001,s2-x,2107.00002" {
		t.Errorf("papers = %s", got)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", res.Warnings)
	}
}

func TestMultiPartialFailure(t *testing.T) {
	a := &stubBackend{name: "arxiv", err: errors.New("HTTP 503")}
	b := &stubBackend{name: "openalex", res: Result{
		Query:  `"tau"`,
		Papers: []types.Paper{{ID: "10.1/x", Title: "X", RelevanceScore: 1}},
	}}

	m := &Multi{Backends: []Backend{a, b}}
	res, err := m.Search(context.Background(), Query{Keywords: []string{"tau"}, MaxResults: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Query != `"tau"` {
		t.Errorf("Query = %q", res.Query)
	}
	if len(res.Papers) != 1 {
		t.Errorf("got %d papers, want 1", len(res.Papers))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "arxiv search failed") {
		t.Errorf("Warnings = %v", res.Warnings)
	}
}

func TestMultiAllFail(t *testing.T) {
	a := &stubBackend{name: "arxiv", err: errors.New("down")}
	b := &stubBackend{name: "openalex", err: errors.New("also down")}

	m := &Multi{Backends: []Backend{a, b}}
	_, err := m.Search(context.Background(), Query{Keywords: []string{"tau"}})
	if err == nil {
		t.Fatal("expected error when every backend fails")
	}
	if !strings.Contains(err.Error(), "arxiv: down") || !strings.Contains(err.Error(), "openalex: also down") {
		t.Errorf("error = %v", err)
	}
}

func TestMultiStopsOnCancelledContext(t *testing.T) {
	a := &stubBackend{name: "arxiv"}
	m := &Multi{Backends: []Backend{a}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Search(ctx, Query{Keywords: []string{"tau"}}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if a.calls != 0 {
		t.Errorf("backend called %d times after cancel", a.calls)
	}
}

func TestMultiConfiguredMaxResults(t *testing.T) {
	a := &stubBackend{name: "arxiv", res: Result{Papers: []types.Paper{
		{ID: "a", Title: "A", RelevanceScore: 1},
		{ID: "b", Title: "B", RelevanceScore: 0.5},
		{ID: "c", Title: "C", RelevanceScore: 0.1},
	}}}
	m := &Multi{Backends: []Backend{a}, MaxResults: 2}

	res, err := m.Search(context.Background(), Query{Keywords: []string{"tau"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if a.last.MaxResults != 2 {
		t.Errorf("backend asked for %d results, want 2", a.last.MaxResults)
	}
	if len(res.Papers) != 2 {
		t.Errorf("got %d papers, want 2", len(res.Papers))
	}
}

func TestMultiName(t *testing.T) {
	m := &Multi{Backends: []Backend{&stubBackend{name: "arxiv"}, &stubBackend{name: "openalex"}}}
	if got := m.Name(); got != "arxiv+openalex" {
		t.Errorf("Name() = %q", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		backends []string
		want     string
		wantErr  bool
	}{
		{"default", nil, "arxiv", false},
		{"single", []string{"openalex"}, "openalex", false},
		{"alias", []string{" S2 "}, "semantic_scholar", false},
		{"several", []string{"arxiv", "semantic_scholar", "openalex"}, "arxiv+semantic_scholar+openalex", false},
		{"unknown", []string{"pubmed-central"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(types.SearchConfig{Backends: tt.backends}, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if b.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.want)
			}
		})
	}
}
