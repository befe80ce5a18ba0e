// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hyphotesys/internal/pipeline"
	"github.com/pdiddy/hyphotesys/internal/render"
	"github.com/pdiddy/hyphotesys/pkg/types"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Create, inspect, export and import research sessions",
	Long: `A session holds one research question and the latest Output of every
agent run against it. Sessions live in sessions.json under the data
directory; each is mirrored to a project file under projects/.

Session ids may be abbreviated to any unique prefix.`,
}

// --- new ---

var sessionNewCmd = &cobra.Command{
	Use:   "new <question>",
	Short: "Start a session for a research question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		title, _ := cmd.Flags().GetString("title")
		if title == "" {
			title = render.Truncate(question, 50)
		}

		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		id, err := store.CreateSession(title, question)
		if err := warnMirror(err); err != nil {
			return err
		}
		fmt.Printf("Created session %s\n", id)
		fmt.Printf("Next: hyphotesys run %s thesis\n", render.ShortID(id))
		return nil
	},
}

// --- list ---

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		printer().Sessions(store.ListSessions())
		return nil
	},
}

// --- show ---

var sessionShowCmd = &cobra.Command{
	Use:   "show <session> [agent]",
	Short: "Show a session, or one agent's stored Output",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		id, err := store.ResolveID(args[0])
		if err != nil {
			return err
		}
		sess, _ := store.GetSession(id)
		p := printer()

		if len(args) == 2 {
			name, err := types.ParseAgentName(args[1])
			if err != nil {
				return err
			}
			out, ok := sess.AgentResults[name]
			if !ok {
				return fmt.Errorf("agent %s has not run for session %s", name, render.ShortID(id))
			}
			p.Output(out)
			return nil
		}

		p.Session(sess)
		if ready := pipeline.Ready(sess); len(ready) > 0 {
			names := make([]string, len(ready))
			for i, n := range ready {
				names[i] = string(n)
			}
			fmt.Printf("\nReady to run: %s\n", strings.Join(names, ", "))
		}
		return nil
	},
}

// --- delete ---

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session>",
	Short: "Remove a session from the registry (its project file is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		id, err := store.ResolveID(args[0])
		if err != nil {
			return err
		}
		if _, err := store.DeleteSession(id); err != nil {
			return err
		}
		fmt.Printf("Deleted session %s\n", id)
		return nil
	},
}

// --- stats ---

var sessionStatsCmd = &cobra.Command{
	Use:   "stats <session>",
	Short: "Show completion and confidence statistics for a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		id, err := store.ResolveID(args[0])
		if err != nil {
			return err
		}
		st, err := store.Statistics(id)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return writeJSON(os.Stdout, st)
		}
		printer().Statistics(st)
		return nil
	},
}

// --- export / import ---

var sessionExportCmd = &cobra.Command{
	Use:   "export <session>",
	Short: "Write a portable snapshot of a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		id, err := store.ResolveID(args[0])
		if err != nil {
			return err
		}
		snap, err := store.ExportSession(id)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" || out == "-" {
			return writeJSON(os.Stdout, snap)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		if err := writeJSON(f, snap); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported session %s to %s\n", render.ShortID(id), out)
		return nil
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a snapshot as a new session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var snap types.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("decoding %s: %w", args[0], err)
		}

		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		id, err := store.ImportSession(snap)
		if err := warnMirror(err); err != nil {
			return err
		}
		fmt.Printf("Imported as session %s\n", id)
		return nil
	},
}

// --- recover / projects ---

var sessionRecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Rebuild sessions missing from the registry from their project files",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		n, err := store.Recover()
		if err != nil {
			return err
		}
		fmt.Printf("Recovered %d session(s)\n", n)
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects [project-id]",
	Short: "List project records, or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			proj, err := store.LoadProject(args[0])
			if err != nil {
				return err
			}
			return writeJSON(os.Stdout, proj)
		}
		list, err := store.ListProjects()
		if err != nil {
			return err
		}
		printer().Projects(list)
		return nil
	},
}

func writeJSON(f *os.File, v any) error {
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	sessionNewCmd.Flags().String("title", "", "session title (default: the question, shortened)")
	sessionStatsCmd.Flags().Bool("json", false, "output statistics as JSON")
	sessionExportCmd.Flags().StringP("output", "o", "", "write the snapshot to a file instead of stdout")

	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	sessionCmd.AddCommand(sessionStatsCmd)
	sessionCmd.AddCommand(sessionExportCmd)
	sessionCmd.AddCommand(sessionImportCmd)
	sessionCmd.AddCommand(sessionRecoverCmd)
	sessionCmd.AddCommand(projectsCmd)

	rootCmd.AddCommand(sessionCmd)
}
