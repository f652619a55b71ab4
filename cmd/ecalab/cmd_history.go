package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ecalab/internal/classifier"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs and classifications",
		Long: `Show what the result store has recorded: evolved runs, newest first,
or memoized classifications with --classifications.

Examples:
  ecalab history                        # Last 20 runs
  ecalab history --limit 0              # Every run
  ecalab history --classifications      # Stored classifications
  ecalab history --classifications --class 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")
			showClassifications, _ := cmd.Flags().GetBool("classifications")
			classFlag, _ := cmd.Flags().GetInt("class")

			if classFlag < 0 || classFlag > int(classifier.ClassComplex) {
				return fmt.Errorf("--class must be between 1 and 4, or 0 for all")
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := context.Background()
			out := cmd.OutOrStdout()

			if showClassifications {
				entries, err := e.store.ListClassifications(ctx, classifier.Class(classFlag))
				if err != nil {
					return fmt.Errorf("failed to list classifications: %w", err)
				}
				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]interface{}{
						"classifications": entries,
						"count":           len(entries),
					})
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No stored classifications.")
					return nil
				}
				for _, c := range entries {
					fmt.Fprintf(out, "Rule %3d: %-22s confidence %.2f  (%d cells, %d generations, %s)\n",
						c.Result.Rule, c.Result.ClassName, c.Result.Confidence,
						c.Key.Size, c.Key.Generations, c.Key.Boundary)
				}
				return nil
			}

			runs, err := e.store.ListRuns(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}
			for _, r := range runs {
				period := "-"
				if r.Period != nil {
					period = fmt.Sprint(*r.Period)
				}
				fmt.Fprintf(out, "%s  %s  rule %3d  %4d cells  %4d generations  density %.3f  period %s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.ID[:min(8, len(r.ID))],
					r.Rule, r.Size, r.Generations-1, r.FinalDensity, period)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().Bool("classifications", false, "Show stored classifications instead of runs")
	cmd.Flags().Int("class", 0, "Only show classifications of this class (1-4)")
	return cmd
}
