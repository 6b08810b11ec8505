package main

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/yieldkeeper/internal/app"
	"github.com/elys-network/yieldkeeper/internal/web"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP trigger, health and metrics endpoints",
	Long: `Start an HTTP server exposing:
  POST /run          run one invocation (same status and body as the Lambda)
  GET  /health       process and ledger health
  GET  /metrics      Prometheus metrics
  GET  /api/...      ledger queries, when DB_HOST is set`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := app.Bootstrap(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		port := servePort
		if port == "" {
			port = application.Config.WebPort
		}

		server := web.NewWebServer(port, application.Handler, application.LedgerEnabled())
		log.Info().Str("port", port).Str("url", "http://localhost:"+port).Msg("Starting keeper HTTP trigger")
		return server.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (default from WEB_PORT)")
}
