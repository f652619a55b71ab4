package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/ecalab/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve ecalab tools over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout so AI agents can
evolve, classify and export automata.

Tools: eca_evolve, eca_classify, eca_classify_batch, eca_summary,
eca_rule_table, eca_export. Every call is rate limited per tool and
recorded in ~/.ecalab/audit.jsonl.

Example client configuration:
  {
    "mcpServers": {
      "ecalab": {"command": "ecalab", "args": ["mcp-server"]}
    }
  }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			exportDirs, _ := cmd.Flags().GetStringSlice("export-dir")

			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			// The server does not close a store it was given.
			defer e.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:       "ecalab",
				Version:    version,
				Settings:   e.cfg,
				Store:      e.store,
				DataDir:    e.dataDir,
				ExportDirs: exportDirs,
				Logger:     e.logger,
				Decisions:  e.decisions,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			if err := server.Run(context.Background()); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("export-dir", nil, "Additional directory eca_export may write to (repeatable)")
	return cmd
}
