package db

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/app"
	"github/chapool/go-txrelay/migrations"
)

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Applies pending migrations for the postgres nonce backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := app.OpenDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := migrations.Up(db)
			if err != nil {
				return err
			}

			log.Info().Int("applied", n).Msg("Migrations done")

			return nil
		},
	}
}
