package submit

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/app"
)

const requestFlag = "request"

func newMeta() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Signs a protocol call and hands it to the relay",
		Long: `Reads an EIP-712 shaped request from --request, asks the wallet to sign it
and submits it to the relay, which pays the gas.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			path, err := cmd.Flags().GetString(requestFlag)
			if err != nil {
				return err
			}

			request, err := readRequest(path)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			sess, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer sess.close(ctx)

			sess.pipelines.Meta.Execute(ctx, request)

			return report(ctx, sess.meta, sess.server)
		},
	}

	cmd.Flags().String(requestFlag, "", "JSON file holding the typed request")
	_ = cmd.MarkFlagRequired(requestFlag)

	return cmd
}

func readRequest(path string) (api.MetaRequest, error) {
	var request api.MetaRequest

	raw, err := os.ReadFile(path)
	if err != nil {
		return request, errors.Wrapf(err, "failed to read request file %s", path)
	}

	if err := json.Unmarshal(raw, &request); err != nil {
		return request, errors.Wrapf(err, "failed to parse request file %s", path)
	}

	return request, nil
}
