// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/internal/httputil"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const (
	semanticFields   = "title,abstract,authors,externalIds,year,publicationDate,url"
	semanticPaperURL = "https://www.semanticscholar.org/paper/"
)

// SemanticScholarBackend queries the Semantic Scholar API. The keyword
// search has no boolean syntax, so terms are sent space-separated.
type SemanticScholarBackend struct {
	Client     *http.Client
	APIKey     string
	UserAgent  string
	MaxRetries int

	// MaxResults is used when a Query sets no limit.
	MaxResults int

	Log *zap.Logger
}

// NewSemanticScholarBackend configures a backend from cfg.
func NewSemanticScholarBackend(cfg types.SearchConfig, log *zap.Logger) *SemanticScholarBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &SemanticScholarBackend{
		Client:     &http.Client{Timeout: cfg.Timeout},
		APIKey:     cfg.SemanticScholarKey,
		UserAgent:  cfg.UserAgent,
		MaxResults: cfg.MaxResults,
		Log:        log,
	}
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search queries the Semantic Scholar API. Entries without a title or any
// identifier are skipped.
func (b *SemanticScholarBackend) Search(ctx context.Context, query Query) (Result, error) {
	terms := query.Terms()
	if len(terms) == 0 {
		return Result{}, fmt.Errorf("empty Semantic Scholar query")
	}
	q := strings.Join(terms, " ")
	limit := query.LimitOr(b.MaxResults)

	params := url.Values{
		"query":  {q},
		"limit":  {strconv.Itoa(limit)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Result{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	total := len(sr.Data)
	papers := make([]types.Paper, 0, total)
	skipped := 0
	for i, sp := range sr.Data {
		p, ok := sp.paper()
		if !ok {
			skipped++
			continue
		}
		p.RelevanceScore = positionScore(i, total)
		papers = append(papers, p)
	}
	if skipped > 0 && b.Log != nil {
		b.Log.Debug("skipped malformed Semantic Scholar entries", zap.Int("skipped", skipped))
	}

	return Result{Papers: rank(papers, limit), Query: q, Skipped: skipped}, nil
}

// paper converts an entry. The id prefers arXiv, then DOI, then the
// Semantic Scholar paper id, so results merge with the arXiv backend's.
func (sp semanticPaper) paper() (types.Paper, bool) {
	title := strings.Join(strings.Fields(sp.Title), " ")
	if title == "" || sp.PaperID == "" {
		return types.Paper{}, false
	}

	p := types.Paper{
		ID:       sp.PaperID,
		Title:    title,
		Abstract: strings.TrimSpace(sp.Abstract),
		URL:      sp.URL,
		Authors:  []string{},
	}
	switch {
	case sp.ExternalIDs.ArXiv != "":
		p.ID = sp.ExternalIDs.ArXiv
	case sp.ExternalIDs.DOI != "":
		p.ID = sp.ExternalIDs.DOI
	}
	if p.URL == "" {
		p.URL = semanticPaperURL + sp.PaperID
	}
	for _, a := range sp.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}

	if sp.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", sp.PublicationDate); err == nil {
			p.Published = t
		}
	} else if sp.Year > 0 {
		p.Published = time.Date(sp.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return p, true
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	URL             string              `json:"url"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
