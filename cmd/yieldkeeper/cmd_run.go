package main

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/yieldkeeper/internal/app"
	"github.com/elys-network/yieldkeeper/internal/handler"
)

var errRunFailed = errors.New("keeper run failed")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single keeper invocation",
	Long: `Run one invocation exactly as the Lambda would and print its response.
The exit code is non-zero when the invocation returns 500.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		application, err := app.Bootstrap(ctx)
		if err != nil {
			resp := handler.Response(err)
			cmd.Println(resp.StatusCode, resp.Body)
			log.Error().Err(err).Msg("Bootstrap failed")
			return err
		}
		defer application.Close()

		resp := application.Handler.Invoke(ctx, nil)
		cmd.Println(resp.StatusCode, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return errRunFailed
		}
		return nil
	},
}
