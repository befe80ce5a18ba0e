// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

// maxTextBytes bounds a single text file.
const maxTextBytes = 10 << 20

// TextParser reads UTF-8 text files from disk.
type TextParser struct{}

// Parse implements Parser.
func (TextParser) Parse(_ context.Context, path string) (types.ParsedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.ParsedFile{}, err
	}
	if info.IsDir() {
		return types.ParsedFile{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxTextBytes {
		return types.ParsedFile{}, fmt.Errorf("%s is larger than %d bytes", path, maxTextBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.ParsedFile{}, err
	}
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return types.ParsedFile{}, fmt.Errorf("%s is not UTF-8 text", path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return types.ParsedFile{}, fmt.Errorf("%s is empty", path)
	}
	return NewParsedFile(path, string(data)), nil
}
