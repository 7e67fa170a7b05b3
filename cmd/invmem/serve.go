package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/invoice-memory/internal/api"
	"github.com/Veraticus/invoice-memory/internal/engine"
	"github.com/Veraticus/invoice-memory/internal/metrics"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the correction pipeline over HTTP",
		Long: `Start the HTTP API. Routes are served at the root and under /api:

  POST /process   process an invoice (canonical or nested export shape)
  POST /learn     learn from {originalInvoice, finalInvoice}
  GET  /memory    current memory snapshot
  POST /reset     clear all memory
  POST /resolve   record {context, success} feedback for a correction
  GET  /health    liveness
  GET  /metrics   Prometheus metrics`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			m := metrics.New(prometheus.DefaultRegisterer)
			a, cleanup, err := openApp(ctx, engine.WithObserver(m))
			if err != nil {
				return err
			}
			defer cleanup()

			server := api.NewServer(a.pipeline, api.WithMetricsHandler(promhttp.Handler()))
			return server.Run(ctx, a.config.Server.Addr())
		},
	}

	cmd.Flags().String("host", "", "listen host (default localhost)")
	cmd.Flags().Int("port", 0, "listen port (default 3001)")
	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}
