package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/sopnav/internal/cli"
	mcpadapter "github.com/aretw0/sopnav/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts sopnav as an MCP server exposing the load_graph, goto_node and
todo_tasks tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.
- http: Uses the streamable HTTP transport at /mcp.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		logger := cli.NewLogger(cfg)
		rt, err := cli.NewRuntime(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		srv := mcpadapter.NewServer(rt.Engine, mcpadapter.WithLogger(logger))
		addr := fmt.Sprintf(":%d", port)

		switch transport {
		case "stdio":
			// Keep stray log output off the JSON-RPC stream.
			log.SetOutput(os.Stderr)
			logger.Info("starting mcp server", "transport", "stdio")
			return srv.ServeStdio()
		case "sse":
			return srv.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port))
		case "http":
			return srv.ServeHTTP(ctx, addr)
		default:
			return fmt.Errorf("unknown transport %q (supported: stdio, sse, http)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: stdio, sse or http")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (sse and http only)")
}
