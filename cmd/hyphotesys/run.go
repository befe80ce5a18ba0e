// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hyphotesys/internal/pipeline"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <session> <agent|all> [files...]",
	Short: "Run an agent against a session",
	Long: `Run executes one agent for a session and stores its Output. Agents that
depend on an earlier stage refuse to run until it has completed:

  thesis -> search -> reader -> trend -> hypothesis
  file runs independently; map reports on whatever has run so far.

The file agent takes document paths as extra arguments. "all" runs every
stage in order, including file when paths are given. A failed stage
yields a zero-confidence Output with a warning; it never aborts the run.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAgent,
}

func runAgent(cmd *cobra.Command, args []string) error {
	sessionArg, agentArg, files := args[0], args[1], args[2:]

	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	runArgs := pipeline.Args{FilePaths: files, Keywords: keywords, MaxResults: maxResults}

	all := agentArg == "all"
	var name types.AgentName
	if !all {
		n, err := types.ParseAgentName(agentArg)
		if err != nil {
			return err
		}
		name = n
		if len(files) > 0 && name != types.AgentFile {
			return fmt.Errorf("file arguments are only accepted by the file agent")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r, err := newRunner(ctx, loadConfig(), len(files) > 0)
	if err != nil {
		return err
	}
	defer r.Close()

	p := printer()
	if all {
		outs, err := r.pipe.RunAll(ctx, sessionArg, runArgs)
		for i, out := range outs {
			if i > 0 {
				fmt.Println(strings.Repeat("-", 60))
			}
			p.Output(out)
		}
		return warnMirror(err)
	}

	out, err := r.pipe.Run(ctx, sessionArg, name, runArgs)
	if err := warnMirror(err); err != nil {
		return err
	}
	p.Output(out)
	return nil
}

func init() {
	runCmd.Flags().StringSlice("keywords", nil, "search keywords, overriding the thesis keywords (comma-separated)")
	runCmd.Flags().Int("max-results", 0, "papers to request from the search service (0 = configured default)")

	rootCmd.AddCommand(runCmd)
}
