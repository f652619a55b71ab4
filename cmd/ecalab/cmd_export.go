package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ecalab/internal/export"
	"github.com/nvandessel/ecalab/internal/pathutil"
	"github.com/nvandessel/ecalab/internal/store"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <rule>",
		Short: "Evolve a rule and write the run to a file",
		Long: `Evolve a rule and export its full history.

Formats:
  json   Indented JSON document
  csv    One row per generation: generation,cell_0,...,cell_N-1
  v2     JSON header line with checksum followed by a gzip payload
  arrow  Arrow IPC file with generation and cells columns

Default location: ~/.ecalab/exports/eca_rule_<rule>_<timestamp>.<ext>
An explicit --output must be inside ~/.ecalab/exports or the current
directory.

Examples:
  ecalab export 30                             # JSON to the default location
  ecalab export 110 --format csv --output rule110.csv
  ecalab export 90 --format arrow --generations 500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			formatFlag, _ := cmd.Flags().GetString("format")
			outputPath, _ := cmd.Flags().GetString("output")

			rule, err := parseRule(args[0])
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			if outputPath == "" {
				dir, err := export.DefaultExportDir()
				if err != nil {
					return fmt.Errorf("failed to get export directory: %w", err)
				}
				outputPath = filepath.Join(dir, export.FileName(rule, time.Now(), format))
			} else {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get working directory: %w", err)
				}
				allowedDirs, err := pathutil.AllowedExportDirsWith(cwd)
				if err != nil {
					return fmt.Errorf("failed to determine allowed export dirs: %w", err)
				}
				resolved, err := pathutil.ResolvePath(outputPath, allowedDirs)
				if err != nil {
					return fmt.Errorf("export path rejected: %w", err)
				}
				outputPath = resolved
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

			doc := export.NewDocument(a)
			if err := export.Write(outputPath, doc, format); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			run := store.NewRun(a)
			run.ID = doc.RunID
			if _, err := e.store.SaveRun(context.Background(), run); err != nil {
				e.logger.Warn("failed to record run", "rule", rule, "error", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				var sizeBytes int64
				if info, err := os.Stat(outputPath); err == nil {
					sizeBytes = info.Size()
				}
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"path":        outputPath,
					"format":      format,
					"run_id":      doc.RunID,
					"generations": doc.Generations,
					"size_bytes":  sizeBytes,
					"message":     fmt.Sprintf("Exported rule %d (%d generations) as %s", rule, doc.Generations, format),
				})
			}

			fmt.Fprintf(out, "Exported rule %d (%d generations) as %s\n", rule, doc.Generations, format)
			fmt.Fprintf(out, "  Path: %s\n", outputPath)
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().String("format", string(export.FormatJSON), "Output format: json, csv, v2 or arrow")
	cmd.Flags().StringP("output", "o", "", "Output file path (default: auto-generated in ~/.ecalab/exports/)")
	return cmd
}

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Read an exported run",
		Long: `Read a file written by 'ecalab export' in any format, detected from its
content, and print its metadata.

With --verify the V2 checksum is checked and the run is replayed from its
first row to confirm every stored generation follows from the rule. CSV
files record no rule and are only checked for well-formed cells.

Examples:
  ecalab load ~/.ecalab/exports/eca_rule_30_20260101_120000.json
  ecalab load run.ecalab --verify
  ecalab load run.arrow --show`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			verify, _ := cmd.Flags().GetBool("verify")
			show, _ := cmd.Flags().GetBool("show")
			path := args[0]

			doc, format, err := export.Load(path)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}

			verified := false
			if verify {
				if format == export.FormatV2 {
					if err := export.VerifyChecksum(path); err != nil {
						return fmt.Errorf("checksum verification failed: %w", err)
					}
				}
				// CSV files carry no rule, so there is nothing to replay.
				if doc.Rule != export.UnknownRule {
					if _, err := doc.Replay(); err != nil {
						return fmt.Errorf("replay verification failed: %w", err)
					}
					verified = true
				}
			}

			rows, err := doc.Rows()
			if err != nil {
				return fmt.Errorf("invalid evolution: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{
					"path":        path,
					"format":      format,
					"run_id":      doc.RunID,
					"rule":        doc.Rule,
					"size":        doc.Size,
					"boundary":    doc.Boundary,
					"generations": len(rows),
					"statistics":  doc.Statistics,
					"verified":    verified,
				}
				if show {
					result["evolution"] = doc.Evolution
				}
				return json.NewEncoder(out).Encode(result)
			}

			if doc.Rule == export.UnknownRule {
				fmt.Fprintf(out, "Run with unknown rule (%s)\n", format)
			} else {
				fmt.Fprintf(out, "Rule %d (%s)\n", doc.Rule, format)
			}
			if doc.RunID != "" {
				fmt.Fprintf(out, "  Run ID:      %s\n", doc.RunID)
			}
			fmt.Fprintf(out, "  Cells:       %d\n", doc.Size)
			fmt.Fprintf(out, "  Generations: %d\n", len(rows))
			if doc.Boundary != "" {
				fmt.Fprintf(out, "  Boundary:    %s\n", doc.Boundary)
			}
			if doc.Statistics != nil {
				fmt.Fprintf(out, "  Final density: %.3f\n", doc.Statistics.FinalDensity)
			}
			if verified {
				fmt.Fprintln(out, "  Verified: replay matches every generation")
			}
			if show {
				fmt.Fprintln(out)
				for _, row := range rows {
					fmt.Fprintln(out, row.String())
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("verify", false, "Verify checksum (V2) and replay the rule")
	cmd.Flags().Bool("show", false, "Print the space-time diagram")
	return cmd
}
