// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/internal/httputil"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// openAlexMaxPerPage is the API's page size ceiling.
const openAlexMaxPerPage = 200

// OpenAlexBackend queries the OpenAlex API, which indexes PubMed and most
// journals, not just preprints.
type OpenAlexBackend struct {
	Client *http.Client

	// Email is sent as the mailto parameter for polite pool access.
	Email string

	UserAgent  string
	MaxRetries int

	// MaxResults is used when a Query sets no limit.
	MaxResults int

	Log *zap.Logger
}

// NewOpenAlexBackend configures a backend from cfg.
func NewOpenAlexBackend(cfg types.SearchConfig, log *zap.Logger) *OpenAlexBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenAlexBackend{
		Client:     &http.Client{Timeout: cfg.Timeout},
		Email:      cfg.OpenAlexEmail,
		UserAgent:  cfg.UserAgent,
		MaxResults: cfg.MaxResults,
		Log:        log,
	}
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search queries OpenAlex with every term quoted and ANDed.
func (b *OpenAlexBackend) Search(ctx context.Context, query Query) (Result, error) {
	q := buildOpenAlexQuery(query.Terms())
	if q == "" {
		return Result{}, fmt.Errorf("empty OpenAlex query")
	}

	limit := query.LimitOr(b.MaxResults)
	perPage := limit
	if perPage > openAlexMaxPerPage {
		perPage = openAlexMaxPerPage
	}
	params := url.Values{
		"search":   {q},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {"1"},
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return Result{}, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	total := len(oar.Results)
	papers := make([]types.Paper, 0, total)
	skipped := 0
	for i, work := range oar.Results {
		p, ok := work.paper()
		if !ok {
			skipped++
			continue
		}
		// OpenAlex sorts by relevance when a search is given.
		p.RelevanceScore = positionScore(i, total)
		papers = append(papers, p)
	}
	if skipped > 0 && b.Log != nil {
		b.Log.Debug("skipped malformed OpenAlex entries", zap.Int("skipped", skipped))
	}

	return Result{Papers: rank(papers, limit), Query: q, Skipped: skipped}, nil
}

// buildOpenAlexQuery quotes each term as a phrase and ANDs them.
func buildOpenAlexQuery(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, `"`+strings.ReplaceAll(t, `"`, "")+`"`)
	}
	return strings.Join(parts, " AND ")
}

// paper converts a work. The bare DOI is the id when present since
// OpenAlex is DOI-centric; otherwise the short OpenAlex work id.
func (w openAlexWork) paper() (types.Paper, bool) {
	title := strings.Join(strings.Fields(w.Title), " ")
	if title == "" || (w.DOI == "" && w.ID == "") {
		return types.Paper{}, false
	}

	p := types.Paper{
		Title:    title,
		Abstract: reconstructAbstract(w.AbstractInvertedIndex),
		Authors:  []string{},
	}
	if w.DOI != "" {
		p.ID = strings.TrimPrefix(w.DOI, "https://doi.org/")
		p.URL = w.DOI
	} else {
		p.ID = strings.TrimPrefix(w.ID, "https://openalex.org/")
		p.URL = w.ID
	}

	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			p.Authors = append(p.Authors, a.Author.DisplayName)
		}
	}

	if w.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", w.PublicationDate); err == nil {
			p.Published = t
		}
	} else if w.PublicationYear > 0 {
		p.Published = time.Date(w.PublicationYear, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return p, true
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The index maps each word to the positions where it appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}
