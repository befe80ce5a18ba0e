// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/hyphotesys/pkg/types"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// fakeRuntime pipes input through unchanged, upper-cased.
type fakeRuntime struct {
	imageErr error
	runErr   error
}

func (f fakeRuntime) Name() string { return "fake" }
func (f fakeRuntime) Available(context.Context) bool { return true }
func (f fakeRuntime) ImageExists(context.Context, string) error { return f.imageErr }
func (f fakeRuntime) Run(_ context.Context, _ string, in io.Reader, out io.Writer) error {
	if f.runErr != nil {
		return f.runErr
	}
	data, _ := io.ReadAll(in)
	_, err := out.Write([]byte(strings.ToUpper(string(data))))
	return err
}

func TestNewParsedFileStats(t *testing.T) {
	content := strings.Repeat("word ", 250) // 1250 chars
	pf := NewParsedFile("/data/paper.md", content)
	assert.Equal(t, "paper.md", pf.Filename)
	assert.Equal(t, 2, pf.Pages)
	assert.Equal(t, 250, pf.WordCount)

	short := NewParsedFile("a.txt", "tiny")
	assert.Zero(t, short.Pages)
	assert.Equal(t, 1, short.WordCount)
}

func TestTextParser(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "notes.md", []byte("# Notes\n\nCompound X inhibits pathway Y."))
	binary := writeFile(t, dir, "blob.txt", []byte{0x25, 0x50, 0x00, 0x01})
	empty := writeFile(t, dir, "empty.txt", []byte("  \n"))

	pf, err := TextParser{}.Parse(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, "notes.md", pf.Filename)
	assert.Equal(t, 7, pf.WordCount)

	_, err = TextParser{}.Parse(context.Background(), binary)
	assert.Error(t, err)
	_, err = TextParser{}.Parse(context.Background(), empty)
	assert.Error(t, err)
	_, err = TextParser{}.Parse(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMarkitdownParser(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "paper.pdf", []byte("abstract text"))

	_, err := NewMarkitdownParser(context.Background(), fakeRuntime{imageErr: errors.New("no image")})
	require.Error(t, err)

	p, err := NewMarkitdownParser(context.Background(), fakeRuntime{})
	require.NoError(t, err)
	pf, err := p.Parse(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, "ABSTRACT TEXT", pf.Content)
	assert.Equal(t, "paper.pdf", pf.Filename)

	failing, err := NewMarkitdownParser(context.Background(), fakeRuntime{runErr: errors.New("boom")})
	require.NoError(t, err)
	_, err = failing.Parse(context.Background(), pdf)
	assert.Error(t, err)
}

func TestRouter(t *testing.T) {
	dir := t.TempDir()
	md := writeFile(t, dir, "a.md", []byte("hello world"))
	pdf := writeFile(t, dir, "b.PDF", []byte("pdf body"))
	img := writeFile(t, dir, "c.png", []byte("png"))

	textOnly := &Router{text: TextParser{}}
	_, err := textOnly.Parse(context.Background(), md)
	require.NoError(t, err)
	_, err = textOnly.Parse(context.Background(), pdf)
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = textOnly.Parse(context.Background(), img)
	assert.ErrorIs(t, err, ErrUnsupported)

	conv, err := NewMarkitdownParser(context.Background(), fakeRuntime{})
	require.NoError(t, err)
	full := &Router{text: TextParser{}, converter: conv}
	pf, err := full.Parse(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, "PDF BODY", pf.Content)
}

func TestNewTextBackend(t *testing.T) {
	p, err := New(context.Background(), types.DocumentText, nil)
	require.NoError(t, err)
	r, ok := p.(*Router)
	require.True(t, ok)
	assert.Nil(t, r.converter)

	_, err = New(context.Background(), "ocr", nil)
	assert.Error(t, err)
}
