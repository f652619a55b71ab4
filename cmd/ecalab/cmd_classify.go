package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ecalab/internal/classifier"
)

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <rule>",
		Short: "Classify a rule into a Wolfram class",
		Long: `Classify a rule as homogeneous (I), periodic (II), chaotic (III) or
complex (IV).

Well-known rules are answered from the literature table unless
--no-literature is given; other rules are evolved from a single cell and
classified from homogeneity, periodicity, complexity and stability.
Results are memoized in the result store.

Examples:
  ecalab classify 110
  ecalab classify 110 --no-literature         # Always analyze
  ecalab classify 45 --size 201 --generations 400`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			noLiterature, _ := cmd.Flags().GetBool("no-literature")
			size, _ := cmd.Flags().GetInt("size")
			generations, _ := cmd.Flags().GetInt("generations")

			rule, err := parseRule(args[0])
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			cfg := e.classifier.Config()
			if size == 0 {
				size = cfg.Size
			}
			if !cmd.Flags().Changed("generations") {
				generations = cfg.Generations
			}
			useLiterature := cfg.UseLiterature && !noLiterature

			ctx, cancel := commandContext()
			defer cancel()

			result, err := e.classifier.ClassifyRule(ctx, rule, size, generations, useLiterature)
			if err != nil {
				return fmt.Errorf("classification failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result)
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().Bool("no-literature", false, "Analyze the rule even if it is in the literature table")
	cmd.Flags().Int("size", 0, "Row length of the analysis run (default from config)")
	cmd.Flags().Int("generations", 0, "Generations of the analysis run (default from config)")
	return cmd
}

func printResult(cmd *cobra.Command, r classifier.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rule %d: %s\n", r.Rule, r.ClassName)
	fmt.Fprintf(out, "  %s\n", r.Description)
	fmt.Fprintf(out, "  Confidence: %.2f", r.Confidence)
	if r.Source != "" {
		fmt.Fprintf(out, " (%s)", r.Source)
	}
	fmt.Fprintln(out)
	if m := r.Metrics; m != nil {
		fmt.Fprintf(out, "  Homogeneity: %.3f\n", m.Homogeneity)
		fmt.Fprintf(out, "  Complexity:  %.3f\n", m.Complexity)
		fmt.Fprintf(out, "  Stability:   %.3f\n", m.Stability)
		if m.Periodicity.Period != nil {
			fmt.Fprintf(out, "  Period:      %d (%s)\n", *m.Periodicity.Period, m.Periodicity.Kind)
		} else {
			fmt.Fprintf(out, "  Period:      none (%s)\n", m.Periodicity.Kind)
		}
	}
}

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [rules...]",
		Short: "Classify several rules",
		Long: `Classify a list of rules, or every rule when none are given.
Rules may be written as numbers or inclusive ranges. Batches run on
classifier.workers goroutines; results keep the requested order.

Examples:
  ecalab batch                 # All 256 rules
  ecalab batch 30 90 110       # Selected rules
  ecalab batch 0-31 --json     # A range`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rules, err := parseRules(args)
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := commandContext()
			defer cancel()

			results := e.classifier.ClassifyRules(ctx, rules)
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("batch interrupted: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"results": results,
					"count":   len(results),
				})
			}

			for _, r := range results {
				if r.Error != "" {
					fmt.Fprintf(out, "Rule %3d: error: %s\n", r.Rule, r.Error)
					continue
				}
				fmt.Fprintf(out, "Rule %3d: %-22s confidence %.2f\n", r.Rule, r.ClassName, r.Confidence)
			}
			return nil
		},
	}
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [rules...]",
		Short: "Count rules per Wolfram class",
		Long: `Classify rules (all 256 by default) and report how many fall in each
class, with percentages and the rules in each class.

Examples:
  ecalab summary
  ecalab summary 0-127 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rules, err := parseRules(args)
			if err != nil {
				return err
			}

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, cancel := commandContext()
			defer cancel()

			summary := e.classifier.Statistics(ctx, rules)
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("summary interrupted: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(summary)
			}

			fmt.Fprintf(out, "Classified %d rules\n\n", summary.Total)
			for _, class := range classifier.Classes {
				fmt.Fprintf(out, "%-22s %3d (%5.1f%%)\n", class.Name(), summary.Counts[class], summary.Percentages[class])
				if rules := summary.RulesByClass[class]; len(rules) > 0 {
					fmt.Fprintf(out, "  %s\n", joinInts(rules))
				}
			}
			if n := summary.Counts[classifier.ClassUnknown]; n > 0 {
				fmt.Fprintf(out, "%-22s %3d (%5.1f%%)\n", classifier.ClassUnknown.Name(), n, summary.Percentages[classifier.ClassUnknown])
			}
			if summary.Errors > 0 {
				fmt.Fprintf(out, "\n%d rules could not be classified\n", summary.Errors)
			}
			return nil
		},
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
