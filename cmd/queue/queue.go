package queue

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/app"
	"github/chapool/go-txrelay/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("queue",
		newList(),
	)
}

func newList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Prints the persisted pending transactions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			s, err := api.InitNewServer(cfg)
			if err != nil {
				return err
			}
			defer s.Shutdown(cmd.Context())

			if err := s.RestoreQueues(cmd.Context()); err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(s.Transactions())
		},
	}
}
