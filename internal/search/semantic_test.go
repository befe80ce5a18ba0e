// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

const sampleSemanticJSON = `{
  "total": 4,
  "data": [
    {
      "paperId": "s2-aaa",
      "title": "Tau  aggregation in Alzheimer disease",
      "abstract": " Tau forms tangles. ",
      "url": "",
      "year": 2021,
      "publicationDate": "2021-07-01",
      "authors": [{"name": "Rosalind Franklin"}, {"name": "  "}],
      "externalIds": {"ArXiv": "2107.00001", "DOI": "10.1000/tau"}
    },
    {
      "paperId": "s2-bbb",
      "title": "Amyloid clearance",
      "url": "https://www.semanticscholar.org/paper/s2-bbb",
      "year": 2019,
      "authors": [],
      "externalIds": {"DOI": "10.1000/amyloid"}
    },
    {
      "paperId": "s2-ccc",
      "title": "Microglia and neuroinflammation",
      "authors": [],
      "externalIds": {}
    },
    {
      "paperId": "",
      "title": "No identifier",
      "externalIds": {}
    }
  ]
}`

func semanticServer(t *testing.T, status int, body string, got *http.Request) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			*got = *r.Clone(context.Background())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	t.Cleanup(func() { semanticAPIBase = old })
}

func TestSemanticSearchRequest(t *testing.T) {
	var req http.Request
	semanticServer(t, http.StatusOK, `{"total":0,"data":[]}`, &req)

	b := &SemanticScholarBackend{APIKey: "s2-key", UserAgent: "hyphotesys-test"}
	res, err := b.Search(context.Background(), Query{Keywords: []string{"tau", "alzheimer disease"}, MaxResults: 7})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	params, _ := url.ParseQuery(req.URL.RawQuery)
	if params.Get("query") != "tau alzheimer disease" {
		t.Errorf("query = %q", params.Get("query"))
	}
	if params.Get("limit") != "7" {
		t.Errorf("limit = %q, want 7", params.Get("limit"))
	}
	if params.Get("fields") != semanticFields {
		t.Errorf("fields = %q", params.Get("fields"))
	}
	if req.Header.Get("x-api-key") != "s2-key" {
		t.Errorf("x-api-key = %q", req.Header.Get("x-api-key"))
	}
	if req.Header.Get("User-Agent") != "hyphotesys-test" {
		t.Errorf("User-Agent = %q", req.Header.Get("User-Agent"))
	}
	if res.Query != "tau alzheimer disease" {
		t.Errorf("Result.Query = %q", res.Query)
	}
}

func TestSemanticSearchNoAPIKeyHeader(t *testing.T) {
	var req http.Request
	semanticServer(t, http.StatusOK, `{"total":0,"data":[]}`, &req)

	b := &SemanticScholarBackend{}
	if _, err := b.Search(context.Background(), Query{Keywords: []string{"tau"}}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if req.Header.Get("x-api-key") != "" {
		t.Errorf("x-api-key sent without a key: %q", req.Header.Get("x-api-key"))
	}
	params, _ := url.ParseQuery(req.URL.RawQuery)
	if params.Get("limit") != fmt.Sprint(DefaultMaxResults) {
		t.Errorf("limit = %q, want default", params.Get("limit"))
	}
}

func TestSemanticSearchParsesPapers(t *testing.T) {
	semanticServer(t, http.StatusOK, sampleSemanticJSON, nil)

	b := &SemanticScholarBackend{}
	res, err := b.Search(context.Background(), Query{Keywords: []string{"tau"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", res.Skipped)
	}
	if len(res.Papers) != 3 {
		t.Fatalf("got %d papers, want 3", len(res.Papers))
	}

	tests := []struct {
		id, url string
		score   float64
	}{
		{"2107.00001", semanticPaperURL + "s2-aaa", 1.0},
		{"10.1000/amyloid", "https://www.semanticscholar.org/paper/s2-bbb", 0.7},
		{"s2-ccc", semanticPaperURL + "s2-ccc", 0.4},
	}
	for i, tt := range tests {
		p := res.Papers[i]
		if p.ID != tt.id {
			t.Errorf("paper %d ID = %q, want %q", i, p.ID, tt.id)
		}
		if p.URL != tt.url {
			t.Errorf("paper %d URL = %q, want %q", i, p.URL, tt.url)
		}
		if d := p.RelevanceScore - tt.score; d > 1e-9 || d < -1e-9 {
			t.Errorf("paper %d score = %v, want %v", i, p.RelevanceScore, tt.score)
		}
	}

	first := res.Papers[0]
	if first.Title != "Tau aggregation in Alzheimer disease" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Abstract != "Tau forms tangles." {
		t.Errorf("Abstract = %q", first.Abstract)
	}
	if len(first.Authors) != 1 || first.Authors[0] != "Rosalind Franklin" {
		t.Errorf("Authors = %v", first.Authors)
	}
	if !first.Published.Equal(time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Published = %v", first.Published)
	}
	if !res.Papers[1].Published.Equal(time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("year-only Published = %v", res.Papers[1].Published)
	}
	if !res.Papers[2].Published.IsZero() {
		t.Errorf("undated Published = %v, want zero", res.Papers[2].Published)
	}
}

func TestSemanticSearchErrors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		b := &SemanticScholarBackend{}
		if _, err := b.Search(context.Background(), Query{Keywords: []string{" "}}); err == nil {
			t.Error("expected error for empty query")
		}
	})
	t.Run("non-200", func(t *testing.T) {
		semanticServer(t, http.StatusForbidden, `{"message":"Forbidden"}`, nil)
		b := &SemanticScholarBackend{}
		if _, err := b.Search(context.Background(), Query{Keywords: []string{"tau"}}); err == nil {
			t.Error("expected error for HTTP 403")
		}
	})
	t.Run("malformed JSON", func(t *testing.T) {
		semanticServer(t, http.StatusOK, `[`, nil)
		b := &SemanticScholarBackend{}
		if _, err := b.Search(context.Background(), Query{Keywords: []string{"tau"}}); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}

func TestSemanticScholarBackendName(t *testing.T) {
	if got := (&SemanticScholarBackend{}).Name(); got != "semantic_scholar" {
		t.Errorf("Name() = %q", got)
	}
}
