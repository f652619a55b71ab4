package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ecalab/internal/experiment"
)

func newExperimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment [name...]",
		Short: "Run the built-in experiments",
		Long: `Run one or more of the built-in studies, or all of them when no name
is given. Every run an experiment evolves is recorded in the result store.

Experiments:
  initial-states   Rule 30 from five different initial states
  convergence      Fixed-point convergence of rules 8, 32, 150 and 184
  patterns         Most common 3-cell patterns of rules 30, 90, 110 and 150
  fractal          Box-counting dimension of rules 30, 90, 150 and 110
  benchmark        Evolution timing for six representative rules
  classification   Class distribution over every tenth rule
  symmetry         Symmetry and entropy of rules 90, 150, 102 and 170

Examples:
  ecalab experiment                  # Run everything
  ecalab experiment fractal symmetry
  ecalab experiment --list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			list, _ := cmd.Flags().GetBool("list")

			out := cmd.OutOrStdout()
			if list {
				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]interface{}{"experiments": experiment.Names()})
				}
				for _, name := range experiment.Names() {
					sc, _ := experiment.Lookup(name)
					fmt.Fprintf(out, "%-16s %s\n", sc.Name, sc.Title)
				}
				return nil
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			runner := experiment.NewRunner(experiment.Options{
				Classifier: e.classifier,
				Store:      e.store,
				Boundary:   e.boundary,
				Logger:     e.logger,
			})

			ctx, cancel := commandContext()
			defer cancel()

			var reports []*experiment.Report
			if len(args) == 0 {
				reports, err = runner.RunAll(ctx)
				if err != nil {
					return err
				}
			} else {
				for _, name := range args {
					report, err := runner.Run(ctx, name)
					if err != nil {
						return err
					}
					reports = append(reports, report)
				}
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"reports": reports,
					"count":   len(reports),
				})
			}
			for _, report := range reports {
				fmt.Fprintf(out, "== %s (%s)\n", report.Title, report.Elapsed.Round(time.Microsecond))
				for _, line := range report.Result.Lines() {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().Bool("list", false, "List available experiments")
	return cmd
}
