package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ecalab/internal/analysis"
	"github.com/nvandessel/ecalab/internal/constants"
)

// analysisReport is the JSON form of `ecalab analyze`.
type analysisReport struct {
	Rule             int                        `json:"rule"`
	Symmetry         analysis.Symmetries        `json:"symmetry"`
	Entropy          float64                    `json:"entropy"`
	FractalDimension float64                    `json:"fractal_dimension"`
	Convergence      analysis.ConvergenceResult `json:"convergence"`
	Activity         int                        `json:"activity"` // cells changed in the last step
	Patterns         analysis.Patterns          `json:"patterns"`
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <rule>",
		Short: "Measure the structure of a run",
		Long: `Evolve a rule and report structural measurements: symmetry and
entropy of the final row, box-counting fractal dimension of the whole
diagram, convergence to a fixed point, the number of cells changed in the
last step and the most common local patterns.

Examples:
  ecalab analyze 90
  ecalab analyze 110 --window 5 --top 10
  ecalab analyze 30 --initial random --seed 7 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			window, _ := cmd.Flags().GetInt("window")
			top, _ := cmd.Flags().GetInt("top")

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

			history := a.History()
			final := a.Current()
			patterns, err := analysis.LocalPatterns(history, window)
			if err != nil {
				return err
			}

			activity := 0
			if n := len(history); n >= 2 {
				activity, err = analysis.Hamming(history[n-2], history[n-1])
				if err != nil {
					return err
				}
			}

			report := analysisReport{
				Rule:             rule,
				Symmetry:         analysis.Symmetry(final),
				Entropy:          analysis.Entropy(final),
				FractalDimension: analysis.FractalDimension(history),
				Convergence:      analysis.Convergence(history),
				Activity:         activity,
				Patterns:         patterns,
			}
			if top > 0 && len(report.Patterns.Counts) > top {
				report.Patterns.Counts = report.Patterns.Counts[:top]
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(report)
			}

			fmt.Fprintf(out, "Rule %d after %d generations\n\n", rule, len(history)-1)
			fmt.Fprintf(out, "Final row\n")
			fmt.Fprintf(out, "  Reflective symmetry:     %v\n", report.Symmetry.Reflective)
			fmt.Fprintf(out, "  Rotational symmetry:     %v\n", report.Symmetry.Rotational180)
			fmt.Fprintf(out, "  Translational symmetry:  %v\n", report.Symmetry.Translational)
			fmt.Fprintf(out, "  Entropy:                 %.3f bits\n", report.Entropy)
			fmt.Fprintf(out, "\nHistory\n")
			fmt.Fprintf(out, "  Fractal dimension:       %.3f\n", report.FractalDimension)
			if c := report.Convergence; c.Converged && c.Generation != nil {
				fmt.Fprintf(out, "  Convergence:             %s at generation %d\n", c.Kind, *c.Generation)
			} else {
				fmt.Fprintf(out, "  Convergence:             none\n")
			}
			fmt.Fprintf(out, "  Cells changed last step: %d\n", report.Activity)
			fmt.Fprintf(out, "\nLocal patterns (width %d, %d distinct)\n", window, patterns.Total)
			for i, pc := range report.Patterns.Counts {
				fmt.Fprintf(out, "  %2d. %s  %d\n", i+1, pc.Pattern, pc.Count)
			}
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().Int("window", constants.DefaultPatternWindow, "Local pattern width")
	cmd.Flags().Int("top", 5, "Number of patterns to show (0 for all)")
	return cmd
}
