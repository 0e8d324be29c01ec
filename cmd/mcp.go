package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/plateful/platefinder/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing recipe
search and adaptation tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		orch, closer, err := buildOrchestrator(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer()

		// Stdout carries the protocol; status goes to stderr.
		mcpserver.Version = Version
		fmt.Fprintln(os.Stderr, "platefinder MCP server started on stdio")

		return mcpserver.NewServer(orch).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
