package probe

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/app"
	"github/chapool/go-txrelay/internal/chain"
)

func newRPC() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpc",
		Short: "Checks that an RPC node for the configured chain is reachable",
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

			client, err := chain.NewRPCClient(cfg.Chain.RPCURLs, cfg.Chain.ID)
			if err != nil {
				return err
			}
			defer client.Close()

			chainID, err := client.ChainID(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "no healthy RPC node")
			}

			if verbose {
				fmt.Fprintf(os.Stdout, "RPC node for chain %s is healthy.\n", chainID)
			}

			return nil
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}
