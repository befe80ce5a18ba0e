// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document extracts text from the files a researcher hands to the
// file agent. Plain text and Markdown are read directly; PDFs and office
// documents go through the markitdown container.
package document

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// charsPerPage is the page estimate divisor applied to extracted text.
const charsPerPage = 500

// ErrUnsupported is returned for a file type the parser cannot handle.
var ErrUnsupported = errors.New("unsupported file type")

// Parser extracts text from one file.
type Parser interface {
	Parse(ctx context.Context, path string) (types.ParsedFile, error)
}

// textExts are read from disk without conversion.
var textExts = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".csv": true, ".tsv": true, ".json": true, ".xml": true,
}

// convertExts need the markitdown container.
var convertExts = map[string]bool{
	".pdf": true, ".docx": true, ".pptx": true, ".xlsx": true, ".html": true, ".htm": true,
}

// NewParsedFile builds the record for content read from path, filling in
// the page and word estimates.
func NewParsedFile(path, content string) types.ParsedFile {
	return types.ParsedFile{
		Filename:  filepath.Base(path),
		Path:      path,
		Content:   content,
		Pages:     len(content) / charsPerPage,
		WordCount: len(strings.Fields(content)),
	}
}

// Router dispatches by file extension to the text reader or the converter.
type Router struct {
	text      Parser
	converter Parser
}

// Parse implements Parser.
func (r *Router) Parse(ctx context.Context, path string) (types.ParsedFile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case textExts[ext] && r.text != nil:
		return r.text.Parse(ctx, path)
	case convertExts[ext] && r.converter != nil:
		return r.converter.Parse(ctx, path)
	case convertExts[ext]:
		return types.ParsedFile{}, fmt.Errorf("%w: %s needs the markitdown converter, which is not available", ErrUnsupported, ext)
	default:
		return types.ParsedFile{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// New builds the parser selected by backend. In auto mode the markitdown
// converter is used when a container runtime and the image are present;
// otherwise only text formats are accepted.
func New(ctx context.Context, backend types.DocumentBackend, log *zap.Logger) (Parser, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{text: TextParser{}}

	switch backend {
	case types.DocumentText:
		return r, nil
	case types.DocumentMarkitdown, types.DocumentAuto, "":
		rt, err := DetectRuntime(ctx)
		if err == nil {
			var conv *MarkitdownParser
			conv, err = NewMarkitdownParser(ctx, rt)
			if err == nil {
				r.converter = conv
				return r, nil
			}
		}
		if backend == types.DocumentMarkitdown {
			return nil, err
		}
		log.Debug("markitdown unavailable, parsing text files only", zap.Error(err))
		return r, nil
	default:
		return nil, fmt.Errorf("unknown document backend %q (available: auto, text, markitdown)", backend)
	}
}
