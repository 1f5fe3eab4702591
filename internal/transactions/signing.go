package transactions

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
)

// SignProtocolCall asks wallet to sign call. Any error is returned as a
// SigningError; unknown failures become a disconnected WalletConnectionError.
func SignProtocolCall[T Request](ctx context.Context, wallet Wallet, call *UnsignedProtocolCall[T]) (*SignedProtocolCall[T], error) {
	signature, err := wallet.SignProtocolCall(ctx, call)
	if err != nil {
		return nil, asSigningError(err)
	}

	return &SignedProtocolCall[T]{
		UnsignedProtocolCall: call,
		Signature:            signature,
		Signer:               wallet.Address(),
	}, nil
}

func SignTransaction[T Request](ctx context.Context, wallet Wallet, unsigned *UnsignedTransaction[T]) (*types.Transaction, error) {
	signed, err := wallet.SignTransaction(ctx, unsigned.Tx)
	if err != nil {
		return nil, asSigningError(err)
	}

	return signed, nil
}
