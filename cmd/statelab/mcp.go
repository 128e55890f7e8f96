package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/statelab/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp <config>",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the machine as MCP tools so that AI agents can inspect it and send events.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		// Logs go to stderr, stdout carries JSON-RPC.
		eng, err := loadEngine(ctx, args[0], nil)
		if err != nil {
			return err
		}
		srv := mcp.NewServer(eng,
			mcp.WithLogger(logger),
			mcp.WithReplayDelay(settings.ReplayDelay),
			mcp.WithMaxInputSize(settings.MaxInputSize),
		)

		switch transport {
		case "stdio":
			logger.Info("Starting statelab MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			addr := fmt.Sprintf(":%d", port)
			err := srv.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port))
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
