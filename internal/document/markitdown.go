// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

const imageMarkitdown = "markitdown:latest"

// MarkitdownParser converts documents by piping them through the markitdown
// container image.
type MarkitdownParser struct {
	runtime Runtime
}

// NewMarkitdownParser verifies the markitdown image exists in rt.
func NewMarkitdownParser(ctx context.Context, rt Runtime) (*MarkitdownParser, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownParser{runtime: rt}, nil
}

// Parse implements Parser.
func (m *MarkitdownParser) Parse(ctx context.Context, path string) (types.ParsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ParsedFile{}, err
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, f, &out); err != nil {
		return types.ParsedFile{}, fmt.Errorf("converting %s with markitdown: %w", path, err)
	}
	if len(bytes.TrimSpace(out.Bytes())) == 0 {
		return types.ParsedFile{}, fmt.Errorf("markitdown produced empty output for %s", path)
	}
	return NewParsedFile(path, out.String()), nil
}
