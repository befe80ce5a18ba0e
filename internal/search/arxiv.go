// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/internal/httputil"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv API.
type ArxivBackend struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int

	// MaxResults is used when a Query sets no limit.
	MaxResults int

	// Pacer enforces arXiv's requested spacing between calls; nil disables it.
	Pacer *httputil.Pacer

	Log *zap.Logger
}

// NewArxivBackend configures a backend from cfg.
func NewArxivBackend(cfg types.SearchConfig, log *zap.Logger) *ArxivBackend {
	if log == nil {
		log = zap.NewNop()
	}
	return &ArxivBackend{
		Client:     &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxResults: cfg.MaxResults,
		Pacer:      httputil.NewPacer(cfg.MinInterval),
		Log:        log,
	}
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Search runs the keyword query. A response with no entries yields an empty
// Result, not an error. Entries lacking an id or title are skipped.
func (b *ArxivBackend) Search(ctx context.Context, query Query) (Result, error) {
	terms := query.Terms()
	if len(terms) == 0 {
		return Result{}, fmt.Errorf("empty arXiv query")
	}
	q := BooleanQuery(terms)
	limit := query.LimitOr(b.MaxResults)

	params := url.Values{}
	params.Set("search_query", q)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	if err := b.Pacer.Wait(ctx); err != nil {
		return Result{}, err
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	papers, skipped, err := parseFeed(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("parsing arXiv response: %w", err)
	}
	if skipped > 0 && b.Log != nil {
		b.Log.Debug("skipped malformed arXiv entries", zap.Int("skipped", skipped))
	}

	return Result{
		Papers:  rank(papers, limit),
		Query:   q,
		Skipped: skipped,
	}, nil
}

// arXiv Atom feed entry.
type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
	Links     []arxivLink   `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// parseFeed splits the feed into its <entry> elements and decodes each one
// on its own, leniently, so a malformed entry only costs that entry. A body
// that is not a feed, or that ends inside an entry, is an error.
func parseFeed(r io.Reader) ([]types.Paper, int, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	if !bytes.Contains(body, []byte("<feed")) {
		return nil, 0, errors.New("response is not an Atom feed")
	}

	chunks, err := splitEntries(body)
	if err != nil {
		return nil, 0, err
	}

	total := len(chunks)
	papers := make([]types.Paper, 0, total)
	skipped := 0
	for i, chunk := range chunks {
		var e arxivEntry
		if err := decodeEntry(chunk, &e); err != nil {
			skipped++
			continue
		}
		p, ok := e.paper()
		if !ok {
			skipped++
			continue
		}
		// arXiv already sorts by relevance.
		p.RelevanceScore = positionScore(i, total)
		papers = append(papers, p)
	}
	return papers, skipped, nil
}

var (
	entryOpen  = []byte("<entry")
	entryClose = []byte("</entry>")
)

// splitEntries returns the raw bytes of each <entry>...</entry> element.
func splitEntries(body []byte) ([][]byte, error) {
	var chunks [][]byte
	for {
		i := bytes.Index(body, entryOpen)
		if i < 0 {
			return chunks, nil
		}
		rest := body[i+len(entryOpen):]
		// Skip look-alikes such as <entryList>.
		if len(rest) > 0 && rest[0] != '>' && !isXMLSpace(rest[0]) {
			body = rest
			continue
		}
		j := bytes.Index(rest, entryClose)
		if j < 0 {
			return nil, errors.New("feed ends inside an entry")
		}
		end := i + len(entryOpen) + j + len(entryClose)
		chunks = append(chunks, body[i:end])
		body = body[end:]
	}
}

func isXMLSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// decodeEntry tolerates the HTML-isms arXiv titles and abstracts carry:
// bare ampersands, named entities, unclosed void tags.
func decodeEntry(chunk []byte, e *arxivEntry) error {
	dec := xml.NewDecoder(bytes.NewReader(chunk))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	return dec.Decode(e)
}

// paper converts an entry, reporting false when id or title is missing.
// The arXiv API reports "no results" as a single entry titled "Error".
func (e arxivEntry) paper() (types.Paper, bool) {
	id := extractArxivID(e.ID)
	title := strings.Join(strings.Fields(e.Title), " ")
	if id == "" || title == "" || title == "Error" {
		return types.Paper{}, false
	}

	p := types.Paper{
		ID:       id,
		Title:    title,
		Abstract: strings.TrimSpace(e.Summary),
		URL:      strings.TrimSpace(e.ID),
		Authors:  []string{},
	}
	for _, l := range e.Links {
		if l.Rel == "alternate" && l.Href != "" {
			p.URL = l.Href
			break
		}
	}
	for _, a := range e.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
		p.Published = t
	}
	return p, true
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
