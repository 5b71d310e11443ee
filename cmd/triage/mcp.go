package main

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/triage/internal/config"
	"github.com/steveyegge/triage/internal/debug"
	"github.com/steveyegge/triage/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the parser as MCP tools over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
parse_issue, validate_issue and classify_issue tools. Tool calls start from
the configured parser options; parse_issue arguments override them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol.
		debug.SetQuiet(true)
		return mcp.NewServer(Version, config.ParserOptions()).Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
