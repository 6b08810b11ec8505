package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/yieldkeeper/internal/logger"
)

var (
	logLevel  string
	logFormat string
)

// rootCmd is the base command for the yieldkeeper CLI
var rootCmd = &cobra.Command{
	Use:   "yieldkeeper",
	Short: "Leveraged yield farm keeper",
	Long: `yieldkeeper reads position data from a leveraged yield farm contract, estimates
an APY per supported asset and deposits or withdraws when the estimate crosses the
configured thresholds.

The same invocation runs as an AWS Lambda (cmd/lambda), once from the command line,
behind an HTTP trigger, or on a cron schedule.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
		}
		if logLevel == "" {
			logLevel = os.Getenv("LOG_LEVEL")
		}
		if logFormat == "" {
			logFormat = os.Getenv("LOG_FORMAT")
		}
		logger.Initialize(logLevel, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json (default from LOG_FORMAT)")

	rootCmd.AddCommand(runCmd, serveCmd, scheduleCmd, resetDBCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
