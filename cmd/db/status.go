package db

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/app"
	"github/chapool/go-txrelay/migrations"
)

func newStatus() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Lists migrations and whether they were applied",
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

			available, err := migrations.Source().FindMigrations()
			if err != nil {
				return errors.Wrap(err, "failed to read migrations")
			}

			records, err := migrate.GetMigrationRecords(db, "postgres")
			if err != nil {
				return errors.Wrap(err, "failed to read migration records")
			}

			applied := make(map[string]string, len(records))
			for _, r := range records {
				applied[r.Id] = r.AppliedAt.Format("2006-01-02 15:04:05")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MIGRATION\tAPPLIED")
			for _, m := range available {
				at, ok := applied[m.Id]
				if !ok {
					at = "no"
				}
				fmt.Fprintf(w, "%s\t%s\n", m.Id, at)
			}

			return w.Flush()
		},
	}
}
