// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads open-access PDFs for papers found by the search
// agent so the file agent can analyze their full text. Each PDF is written
// next to a YAML record of the paper it came from.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/hyphotesys/internal/httputil"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// ErrNoPDF reports that no open-access PDF could be located for a paper.
var ErrNoPDF = errors.New("no open-access PDF")

// Fetcher downloads paper PDFs into Dir.
type Fetcher struct {
	Client *http.Client
	Dir    string

	// Email is sent as mailto on OpenAlex lookups.
	Email string

	UserAgent  string
	MaxRetries int

	// Pacer spaces out downloads; arXiv asks for one request every 3s.
	Pacer *httputil.Pacer
	Log   *zap.Logger
}

// New configures a Fetcher writing into dir with the search service's HTTP
// settings.
func New(dir string, cfg types.SearchConfig, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		Dir:       dir,
		Email:     cfg.OpenAlexEmail,
		UserAgent: cfg.UserAgent,
		Pacer:     httputil.NewPacer(cfg.MinInterval),
		Log:       log,
	}
}

func (f *Fetcher) logger() *zap.Logger {
	if f.Log == nil {
		return zap.NewNop()
	}
	return f.Log
}

func (f *Fetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

// Result summarizes a batch.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int

	// Files lists the PDF paths now on disk, downloaded or pre-existing,
	// in input order.
	Files []string
}

// Total returns the number of papers processed.
func (r Result) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// Fetch downloads every paper's PDF, printing one status line per paper to
// w. It continues past individual failures and stops only when ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, papers []types.Paper, w io.Writer) (Result, error) {
	var res Result
	for _, p := range papers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path, skipped, err := f.FetchPaper(ctx, p)
		switch {
		case err != nil:
			res.Failed++
			fmt.Fprintf(w, "failed:      %s (%v)\n", p.ID, err)
			f.logger().Debug("paper download failed", zap.String("paper", p.ID), zap.Error(err))
		case skipped:
			res.Skipped++
			res.Files = append(res.Files, path)
			fmt.Fprintf(w, "skipped:     %s (already exists)\n", p.ID)
		default:
			res.Downloaded++
			res.Files = append(res.Files, path)
			fmt.Fprintf(w, "downloaded:  %s\n", p.ID)
		}
	}
	fmt.Fprintf(w, "\n%d downloaded, %d skipped, %d failed (total: %d)\n",
		res.Downloaded, res.Skipped, res.Failed, res.Total())
	return res, nil
}

// FetchPaper downloads one PDF. An existing file is left alone and reported
// as skipped.
func (f *Fetcher) FetchPaper(ctx context.Context, p types.Paper) (path string, skipped bool, err error) {
	idType, normalized := Classify(p.ID)
	if idType == TypeUnknown {
		return "", false, fmt.Errorf("%w: unrecognized id %q", ErrNoPDF, p.ID)
	}

	slug := Slug(normalized)
	path = filepath.Join(f.Dir, slug+".pdf")
	if _, err := os.Stat(path); err == nil {
		return path, true, nil
	}

	pdfURL, err := f.pdfURL(ctx, idType, normalized)
	if err != nil {
		return "", false, err
	}

	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", f.Dir, err)
	}
	if err := f.Pacer.Wait(ctx); err != nil {
		return "", false, err
	}
	if err := f.download(ctx, pdfURL, path); err != nil {
		return "", false, fmt.Errorf("downloading %s: %w", slug, err)
	}
	if err := writeRecord(filepath.Join(f.Dir, slug+".yaml"), p, pdfURL); err != nil {
		return "", false, fmt.Errorf("writing record for %s: %w", slug, err)
	}
	return path, false, nil
}

func (f *Fetcher) pdfURL(ctx context.Context, idType IdentifierType, normalized string) (string, error) {
	if idType == TypeArxiv {
		return arxivPDFBase + normalized, nil
	}
	u, err := f.resolveOpenAlex(ctx, normalized)
	if err != nil {
		return "", err
	}
	if u == "" {
		return "", ErrNoPDF
	}
	return u, nil
}

// download fetches url into destPath through a temporary file so a failed
// transfer never leaves a partial PDF behind.
func (f *Fetcher) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, f.client(), req, f.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// record is the YAML sidecar written next to each PDF.
type record struct {
	types.Paper `yaml:",inline"`
	PDFURL      string `yaml:"pdf_url"`
}

func writeRecord(path string, p types.Paper, pdfURL string) error {
	data, err := yaml.Marshal(record{Paper: p, PDFURL: pdfURL})
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
