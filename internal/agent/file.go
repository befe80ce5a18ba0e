// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/hyphotesys/internal/document"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

// File parses researcher-supplied documents. A file that fails to parse
// costs a warning, never the batch.
type File struct {
	Parser document.Parser
}

func (*File) Name() types.AgentName { return types.AgentFile }

func (f *File) Run(ctx context.Context, in Input) (types.Output, error) {
	if len(in.FilePaths) == 0 {
		return types.Output{}, invalidInput(types.AgentFile, "No files provided")
	}
	if f.Parser == nil {
		return types.Output{}, external(types.AgentFile, "Document parsing unavailable", errors.New("no document parser configured"))
	}

	meta := types.FileMetadata{ParsedFiles: []types.ParsedFile{}}
	var sources, warnings []string
	for _, path := range in.FilePaths {
		if err := ctx.Err(); err != nil {
			return types.Output{}, external(types.AgentFile, "File parsing interrupted", err)
		}
		pf, err := f.Parser.Parse(ctx, path)
		if err != nil {
			meta.Failed = append(meta.Failed, path)
			warnings = append(warnings, fmt.Sprintf("Failed to parse %s: %v", path, err))
			continue
		}
		meta.ParsedFiles = append(meta.ParsedFiles, pf)
		sources = append(sources, pf.Filename)
	}

	parsed := len(meta.ParsedFiles)
	confidence := 0.1
	if parsed > 0 {
		confidence = round2(0.95 * float64(parsed) / float64(len(in.FilePaths)))
	}
	return types.NewOutput(types.AgentFile,
		fmt.Sprintf("Successfully parsed %d of %d files", parsed, len(in.FilePaths)),
		confidence, sources, warnings,
		types.Metadata{File: &meta})
}
