// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/hyphotesys/internal/agent"
	"github.com/pdiddy/hyphotesys/internal/document"
	"github.com/pdiddy/hyphotesys/internal/library"
	"github.com/pdiddy/hyphotesys/internal/llm"
	"github.com/pdiddy/hyphotesys/internal/pipeline"
	"github.com/pdiddy/hyphotesys/internal/render"
	"github.com/pdiddy/hyphotesys/internal/search"
	"github.com/pdiddy/hyphotesys/internal/session"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

func openStore(cfg types.Config) (*session.Store, error) {
	return session.Open(cfg.Store, logger)
}

// dataPath resolves name against the data directory unless it is absolute.
func dataPath(cfg types.Config, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(cfg.Store.DataDir, name)
}

func libraryDir(cfg types.Config) string {
	return dataPath(cfg, cfg.Library.Dir)
}

// papersDir is where fetch downloads a session's PDFs.
func papersDir(cfg types.Config, sessionID string) string {
	return filepath.Join(dataPath(cfg, cfg.Store.PapersDir), render.ShortID(sessionID))
}

func openLibrary(cfg types.Config) (*library.Store, error) {
	lc := cfg.Library
	lc.Dir = libraryDir(cfg)
	return library.Open(lc)
}

// runner bundles what an agent run needs. Close releases the library.
type runner struct {
	store *session.Store
	pipe  *pipeline.Pipeline
	lib   *library.Store
}

func (r *runner) Close() {
	if r.lib != nil {
		r.lib.Close()
	}
}

// newRunner wires the agents for cfg. A missing API key is not fatal: the
// LLM-backed agents then return their fallback Outputs. The document parser
// is only probed when withParser is set, since auto mode shells out to the
// container runtime.
func newRunner(ctx context.Context, cfg types.Config, withParser bool) (*runner, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	completer, err := llm.New(cfg.LLM, logger)
	if err != nil {
		if !errors.Is(err, llm.ErrNoAPIKey) {
			return nil, err
		}
		logger.Warn("no LLM API key configured; LLM-backed agents will fall back",
			zap.String("provider", string(cfg.LLM.Provider)))
	}

	backend, err := search.New(cfg.Search, logger)
	if err != nil {
		return nil, err
	}

	deps := agent.Deps{
		LLM:    completer,
		Search: backend,
	}
	if withParser {
		parser, err := document.New(ctx, cfg.Document, logger)
		if err != nil {
			return nil, err
		}
		deps.Parser = parser
	}

	r := &runner{store: store}
	var indexer pipeline.Indexer
	if cfg.Library.Enabled {
		lib, err := openLibrary(cfg)
		if err != nil {
			logger.Warn("paper library unavailable", zap.Error(err))
		} else {
			r.lib = lib
			indexer = lib
		}
	}

	r.pipe = pipeline.New(store, agent.All(deps), indexer, cfg.Pipeline, logger)
	return r, nil
}

// warnMirror prints a mirror replication failure without failing the command.
func warnMirror(err error) error {
	var me *session.MirrorError
	if errors.As(err, &me) {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return nil
	}
	return err
}

func printer() *render.Printer {
	return render.New(os.Stdout)
}
