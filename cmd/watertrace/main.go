package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hydroline/watertrace/cmd/watertrace/commands"
	"github.com/hydroline/watertrace/logger"
)

var rootCmd = &cobra.Command{
	Use:   "watertrace",
	Short: "Trace-the-water queries over the merged hydrological network",
	Long: `watertrace - connectivity resolution and traversal for hydrological networks.

The network is assembled from two partially overlapping sources: a
geometry-rich spatial extract and a schematic connectivity list. Declared
connectivity is incomplete, so traversal falls back through a tiered chain of
heuristics (explicit linkage, identifier pattern, river sequence, proximity).

Available commands:
  ingest  - Load source extracts into the spatial store
  trace   - Run a trace-the-water query from an element
  db      - Database operations (stats, ghosts)
  config  - Manage watertrace configuration
  version - Show version information

Examples:
  watertrace ingest --spatial extract.csv --schematic links.csv
  watertrace trace FOLSM --direction downstream --max-depth 5
  watertrace db stats
  watertrace config init`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON instead of console output")

	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.IngestCmd)
	rootCmd.AddCommand(commands.TraceCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
