package nonce

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-txrelay/internal/transactions"
)

// Source reports the next nonce an authority (relay or chain) expects from address.
type Source interface {
	NonceAt(ctx context.Context, address common.Address) (transactions.Nonce, error)
}

// PendingTracker knows about locally submitted transactions that the source
// may not have seen yet.
type PendingTracker interface {
	HasNonce(kind transactions.TransactionKind, from common.Address, nonce transactions.Nonce) bool
}

// PendingNonceReader is satisfied by chain.RPCClient.
type PendingNonceReader interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}
