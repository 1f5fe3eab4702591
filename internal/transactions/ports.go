package transactions

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Wallet is the user's signing identity. Implementations report failures
// as SigningError values.
type Wallet interface {
	Address() common.Address
	SignProtocolCall(ctx context.Context, call Signable) (hexutil.Bytes, error)
	SignTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)
}

type ActiveWallet interface {
	// RequireActiveWallet returns the connected wallet or a *WalletConnectionError.
	RequireActiveWallet(ctx context.Context) (Wallet, error)
}

// NonceGateway must return a distinct, increasing nonce for every call made
// for the same wallet, even when called concurrently.
type NonceGateway interface {
	GetNonceFor(ctx context.Context, wallet Wallet) (Nonce, error)
}

// NonceReleaser is implemented by nonce gateways that can hand a nonce out
// again after the attempt it was allocated for failed.
type NonceReleaser interface {
	ReleaseNonce(ctx context.Context, address common.Address, nonce Nonce) error
}

type UnsignedCallGateway[T Request] interface {
	CreateUnsignedProtocolCall(ctx context.Context, request T, opts CallOptions) (*UnsignedProtocolCall[T], error)
}

type CallRelayer[T Request] interface {
	RelayProtocolCall(ctx context.Context, call *SignedProtocolCall[T]) (*Transaction[T], error)
}

// TransactionQueue.Push never fails; storage errors stay inside the queue.
type TransactionQueue[T Request] interface {
	Push(tx *Transaction[T])
}

type Presenter interface {
	Present(result Result)
}

type SelfFundedGateway[T Request] interface {
	CreateUnsignedTransaction(ctx context.Context, request T, wallet Wallet) (*UnsignedTransaction[T], error)
}

type Broadcaster interface {
	Broadcast(ctx context.Context, tx *types.Transaction) error
}
