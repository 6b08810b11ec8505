package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/yieldkeeper/internal/app"
	"github.com/elys-network/yieldkeeper/internal/scheduler"
	"github.com/elys-network/yieldkeeper/internal/web"
)

var (
	scheduleSpec string
	scheduleWeb  bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run invocations on a cron schedule",
	Long: `Run one invocation per tick of KEEPER_SCHEDULE (default "@every 10m").
A tick is skipped while the previous invocation is still running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := app.Bootstrap(ctx)
		if err != nil {
			return err
		}
		defer application.Close()

		spec := scheduleSpec
		if spec == "" {
			spec = application.Config.Schedule
		}

		job, err := scheduler.New(ctx, spec, func(ctx context.Context) error {
			_, err := application.Handler.Run(ctx)
			return err
		})
		if err != nil {
			return err
		}

		if scheduleWeb {
			server := web.NewWebServer(application.Config.WebPort, application.Handler, application.LedgerEnabled())
			go func() {
				if err := server.Start(ctx); err != nil {
					log.Error().Err(err).Msg("Web server failed")
				}
			}()
		}

		log.Info().Str("schedule", spec).Msg("Starting keeper schedule")
		job.Start()
		<-ctx.Done()
		job.Stop()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleSpec, "schedule", "", "Cron expression (default from KEEPER_SCHEDULE)")
	scheduleCmd.Flags().BoolVar(&scheduleWeb, "web", false, "Also serve health and metrics on WEB_PORT")
}
