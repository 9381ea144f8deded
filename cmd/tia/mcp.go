package main

import (
	"os"

	"tia/internal/logging"
	"tia/internal/mcp"
	"tia/internal/version"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol (MCP) server.

The server lets MCP clients drive test intelligence over stdio using
JSON-RPC 2.0: discovery, selection, flaky detection, coverage analysis,
health scoring and run-history recording.

This command is typically invoked by MCP clients, not directly by
users.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	// Logs go to stderr; stdout carries the protocol.
	logger := logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.InfoLevel,
		Output: os.Stderr,
	})

	repoRoot := mustGetRepoRoot()
	eng := mustGetEngine(repoRoot, logger)

	server := mcp.NewServer(version.Version, eng, logger)
	return server.Start()
}
