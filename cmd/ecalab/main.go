package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ecalab",
		Short: "Elementary cellular automata laboratory",
		Long: `ecalab evolves elementary cellular automata and classifies their
behavior into Wolfram's four classes.

It runs any of the 256 rules from configurable initial states, measures
density, periodicity and local structure, exports runs in several formats
and serves the same engine to AI agents over MCP.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.ecalab/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newClassifyCmd(),
		newBatchCmd(),
		newSummaryCmd(),
		newTableCmd(),
		newExportCmd(),
		newLoadCmd(),
		newAnalyzeCmd(),
		newExperimentCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}
