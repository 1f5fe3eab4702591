package submit

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/app"
)

const (
	toFlag     = "to"
	amountFlag = "amount"
	tokenFlag  = "token"
)

func newPay() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Signs and broadcasts a transfer paid by the wallet itself",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			request, err := transferFromFlags(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			sess, err := openSession(ctx, cfg)
			if err != nil {
				return err
			}
			defer sess.close(ctx)

			sess.pipelines.Pay.Execute(ctx, request)

			return report(ctx, sess.pay, sess.server)
		},
	}

	cmd.Flags().String(toFlag, "", "Recipient address")
	cmd.Flags().String(amountFlag, "", "Amount in the smallest unit (wei)")
	cmd.Flags().String(tokenFlag, "", "ERC20 token contract, native coin when empty")
	_ = cmd.MarkFlagRequired(toFlag)
	_ = cmd.MarkFlagRequired(amountFlag)

	return cmd
}

func transferFromFlags(cmd *cobra.Command) (api.NativeRequest, error) {
	var request api.NativeRequest

	to, err := cmd.Flags().GetString(toFlag)
	if err != nil {
		return request, err
	}
	if !common.IsHexAddress(to) {
		return request, errors.Errorf("invalid recipient %q", to)
	}
	request.To = common.HexToAddress(to)

	amount, err := cmd.Flags().GetString(amountFlag)
	if err != nil {
		return request, err
	}
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return request, errors.Errorf("invalid amount %q", amount)
	}
	request.Amount = (*hexutil.Big)(value)

	token, err := cmd.Flags().GetString(tokenFlag)
	if err != nil {
		return request, err
	}
	if token != "" {
		if !common.IsHexAddress(token) {
			return request, errors.Errorf("invalid token %q", token)
		}
		addr := common.HexToAddress(token)
		request.Token = &addr
	}

	return request, nil
}
