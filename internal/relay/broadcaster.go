package relay

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/chain"
	"github/chapool/go-txrelay/internal/transactions"
)

// Sender is satisfied by chain.RPCClient.
type Sender interface {
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Broadcaster sends self-funded transactions straight to a node.
type Broadcaster struct {
	sender Sender
}

func NewBroadcaster(sender Sender) *Broadcaster {
	return &Broadcaster{sender: sender}
}

func (b *Broadcaster) Broadcast(ctx context.Context, tx *types.Transaction) error {
	if err := b.sender.SendTransaction(ctx, tx); err != nil {
		if chain.IsInsufficientFunds(err) {
			return transactions.NewInsufficientGasError(err)
		}

		return transactions.AsBroadcastingError(err)
	}

	log.Info().Str("tx_hash", tx.Hash().Hex()).Uint64("nonce", tx.Nonce()).Msg("Transaction sent")

	return nil
}
