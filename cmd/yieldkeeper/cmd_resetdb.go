package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/yieldkeeper/internal/config"
	"github.com/elys-network/yieldkeeper/internal/state"
)

var resetConfirm bool

var resetDBCmd = &cobra.Command{
	Use:   "reset-db",
	Short: "Drop and recreate the execution ledger tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return errors.New("refusing to drop ledger tables without --yes")
		}

		dbCfg, err := config.LoadDBConfig()
		if err != nil {
			return err
		}
		if dbCfg == nil {
			return errors.New("DB_HOST is not set")
		}

		log.Info().
			Str("host", dbCfg.Host).
			Int("port", dbCfg.Port).
			Str("user", dbCfg.User).
			Str("dbname", dbCfg.DBName).
			Msg("Connecting to database")

		if err := state.InitDB(*dbCfg); err != nil {
			return err
		}
		defer state.CloseDB()

		ctx := cmd.Context()
		if err := state.DropSchema(ctx); err != nil {
			return err
		}
		if err := state.EnsureSchema(ctx); err != nil {
			return err
		}

		log.Info().Msg("Database reset complete!")
		return nil
	},
}

func init() {
	resetDBCmd.Flags().BoolVar(&resetConfirm, "yes", false, "Confirm dropping all ledger data")
}
