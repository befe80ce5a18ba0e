// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/hyphotesys/internal/library"
	"github.com/pdiddy/hyphotesys/internal/render"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Search and export the cross-session paper library",
	Long: `Every paper the search agent finds and every summary the reader agent
writes is indexed in a SQLite library (library/library.db) with full-text
search over titles, abstracts and findings.`,
}

// --- find ---

var libraryFindCmd = &cobra.Command{
	Use:   "find [query]",
	Short: "Full-text search over indexed papers",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(loadConfig())
		if err != nil {
			return err
		}
		defer lib.Close()

		opts, err := findOptsFromFlags(cmd, args)
		if err != nil {
			return err
		}
		entries, err := lib.Find(context.Background(), opts)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			sessions := make([]string, len(e.Sessions))
			for i, s := range e.Sessions {
				sessions[i] = render.ShortID(s)
			}
			rows = append(rows, []string{e.ID, render.Truncate(e.Title, 60), strings.Join(sessions, ",")})
		}
		printer().Table("Library", []string{"ID", "TITLE", "SESSIONS"}, rows)
		fmt.Printf("\n%d results\n", len(entries))
		return nil
	},
}

// --- export ---

var libraryExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export the library to YAML or JSON",
	Long: `Export writes the library (or the subset matching a query or session)
to library/export.yaml or library/export.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		lib, err := openLibrary(loadConfig())
		if err != nil {
			return err
		}
		defer lib.Close()

		opts, err := findOptsFromFlags(cmd, args)
		if err != nil {
			return err
		}

		var path string
		switch format {
		case "yaml", "":
			path, err = lib.ExportYAML(context.Background(), opts)
		case "json":
			path, err = lib.ExportJSON(context.Background(), opts)
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

// findOptsFromFlags builds lookup options. A --session prefix is resolved
// against the session registry. Export has no --limit flag and reads 0.
func findOptsFromFlags(cmd *cobra.Command, args []string) (library.FindOptions, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	opts := library.FindOptions{
		Query:      strings.Join(args, " "),
		MaxResults: limit,
	}

	sessionArg, _ := cmd.Flags().GetString("session")
	if sessionArg == "" {
		return opts, nil
	}
	store, err := openStore(loadConfig())
	if err != nil {
		return opts, err
	}
	id, err := store.ResolveID(sessionArg)
	if err != nil {
		return opts, err
	}
	opts.SessionID = id
	return opts, nil
}

func init() {
	libraryCmd.PersistentFlags().String("session", "", "restrict to papers found by one session")

	libraryFindCmd.Flags().Int("limit", 0, "maximum results (0 = configured default)")
	libraryFindCmd.Flags().Bool("json", false, "output results as JSON")

	libraryExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	libraryCmd.AddCommand(libraryFindCmd)
	libraryCmd.AddCommand(libraryExportCmd)
	rootCmd.AddCommand(libraryCmd)
}
