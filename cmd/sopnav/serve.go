package main

import (
	"fmt"

	"github.com/aretw0/sopnav/internal/cli"
	httpadapter "github.com/aretw0/sopnav/pkg/adapters/http"
	"github.com/aretw0/sopnav/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP/JSON server",
	Long: `Starts sopnav as an HTTP server exposing sessions as JSON resources,
with Prometheus metrics at /metrics and per-session event streams.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		logger := cli.NewLogger(cfg)
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)
		streams := httpadapter.NewStreamManager(logger)

		rt, err := cli.NewRuntime(ctx, cfg, logger, metrics.Hooks(), streams.Hooks())
		if err != nil {
			return err
		}
		defer rt.Close()

		handler := httpadapter.NewHandler(rt.Engine,
			httpadapter.WithLogger(logger),
			httpadapter.WithStreams(streams),
			httpadapter.WithMetrics(reg),
		)
		return cli.ListenAndServe(ctx, fmt.Sprintf(":%d", port), handler, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
}
