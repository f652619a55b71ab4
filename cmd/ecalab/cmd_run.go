package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ecalab/internal/automaton"
	"github.com/nvandessel/ecalab/internal/classifier"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <rule>",
		Short: "Evolve a rule and show its space-time diagram",
		Long: `Evolve an elementary rule from an initial state and print every
generation, one row per line, followed by run statistics.

Examples:
  ecalab run 30                              # Single centered cell, config defaults
  ecalab run 110 --size 61 --generations 40  # Smaller run
  ecalab run 90 --boundary fixed             # Zero-padded edges
  ecalab run 30 --initial random --density 0.3 --seed 42
  ecalab run 184 --state 0110100110          # Explicit first row
  ecalab run 30 --quiet --json               # Statistics only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			quiet, _ := cmd.Flags().GetBool("quiet")

			rule, err := parseRule(args[0])
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			a, err := evolveFromFlags(cmd, e, rule)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}
			runID := e.recordRun(context.Background(), a)

			stats := a.Statistics()
			var period *int
			if p, ok := a.DetectPeriod(e.cfg.Simulation.PeriodWindow); ok {
				period = &p
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{
					"run_id":     runID,
					"statistics": stats,
					"period":     period,
					"final":      a.Current().Bits(),
				}
				if !quiet {
					rows := make([]string, len(a.History()))
					for i, row := range a.History() {
						rows[i] = row.Bits()
					}
					result["rows"] = rows
				}
				return json.NewEncoder(out).Encode(result)
			}

			if !quiet {
				for _, row := range a.History() {
					fmt.Fprintln(out, row.String())
				}
				fmt.Fprintln(out)
			}
			printStatistics(cmd, stats, period, e.cfg.Simulation.PeriodWindow)
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().BoolP("quiet", "q", false, "Omit the space-time diagram")
	return cmd
}

func printStatistics(cmd *cobra.Command, stats automaton.Statistics, period *int, window int) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rule %d (%s boundary, %d cells, %d generations)\n",
		stats.Rule, stats.Boundary, stats.Size, stats.Generations-1)
	fmt.Fprintf(out, "  Initial density: %.3f\n", stats.InitialDensity)
	fmt.Fprintf(out, "  Final density:   %.3f\n", stats.FinalDensity)
	fmt.Fprintf(out, "  Mean density:    %.3f (min %.3f, max %.3f)\n", stats.MeanDensity, stats.MinDensity, stats.MaxDensity)
	if period != nil {
		fmt.Fprintf(out, "  Period:          %d\n", *period)
	} else {
		fmt.Fprintf(out, "  Period:          none within %d generations\n", window)
	}
}

func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table <rule>",
		Short: "Show a rule's lookup table",
		Long: `Show the output a rule assigns to each of the eight neighborhoods,
111 first, and the rule's published Wolfram class if it is well known.

Examples:
  ecalab table 110
  ecalab table 30 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rule, err := parseRule(args[0])
			if err != nil {
				return err
			}
			table, err := automaton.NewRuleTable(rule)
			if err != nil {
				return err
			}
			class, known := classifier.LiteratureClass(rule)

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{
					"rule":    rule,
					"binary":  table.Binary(),
					"entries": table.Entries(),
				}
				if known {
					result["literature_class"] = int(class)
				}
				return json.NewEncoder(out).Encode(result)
			}

			fmt.Fprintf(out, "Rule %d (%s)\n\n", rule, table.Binary())
			for _, entry := range table.Entries() {
				fmt.Fprintf(out, "  %s -> %d\n", entry.Neighborhood, entry.Output)
			}
			if known {
				fmt.Fprintf(out, "\nLiterature: %s\n", class.Name())
			}
			return nil
		},
	}
}
