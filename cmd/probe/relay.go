package probe

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/app"
	"github/chapool/go-txrelay/internal/relay"
)

func newRelay() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Checks that the relay answers its health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Relay.Timeout)
			defer cancel()

			client := relay.NewClient(cfg.Relay.URL, cfg.Relay.Timeout)
			if err := client.Ping(ctx); err != nil {
				return errors.Wrapf(err, "relay %s is not healthy", cfg.Relay.URL)
			}

			if verbose {
				fmt.Fprintf(os.Stdout, "Relay %s is healthy.\n", cfg.Relay.URL)
			}

			return nil
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}
