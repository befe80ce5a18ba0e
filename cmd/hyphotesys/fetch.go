// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hyphotesys/internal/acquire"
	"github.com/pdiddy/hyphotesys/internal/pipeline"
	"github.com/pdiddy/hyphotesys/internal/render"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <session>",
	Short: "Download open-access PDFs of the session's search results",
	Long: `Fetch downloads the PDF of every paper in the session's latest search
result into papers/<session>/. arXiv papers come from arxiv.org; DOIs are
resolved to an open-access copy through OpenAlex. Papers already on disk
are skipped.

With --analyze the downloaded PDFs are passed to the file agent.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	analyze, _ := cmd.Flags().GetBool("analyze")
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r, err := newRunner(ctx, cfg, analyze)
	if err != nil {
		return err
	}
	defer r.Close()

	id, err := r.store.ResolveID(args[0])
	if err != nil {
		return err
	}
	out, ok := r.store.AgentResult(id, types.AgentSearch)
	if !ok || out.Metadata.Search == nil {
		return fmt.Errorf("session %s has no search result; run the search agent first", render.ShortID(id))
	}
	papers := out.Metadata.Search.Papers
	if len(papers) == 0 {
		fmt.Println("The last search found no papers.")
		return nil
	}

	dir := papersDir(cfg, id)
	res, err := acquire.New(dir, cfg.Search, logger).Fetch(ctx, papers, os.Stdout)
	if err != nil {
		return err
	}

	if !analyze || len(res.Files) == 0 {
		return nil
	}
	fmt.Println()
	fileOut, err := r.pipe.Run(ctx, id, types.AgentFile, pipeline.Args{FilePaths: res.Files})
	if err := warnMirror(err); err != nil {
		return err
	}
	printer().Output(fileOut)
	return nil
}

func init() {
	fetchCmd.Flags().Bool("analyze", false, "run the file agent on the downloaded PDFs")

	rootCmd.AddCommand(fetchCmd)
}
