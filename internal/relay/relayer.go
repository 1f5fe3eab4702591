package relay

import (
	"context"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/transactions"
)

// Submitter is satisfied by *Client.
type Submitter interface {
	Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error)
}

// Relayer submits signed protocol calls to the relay. It never retries.
type Relayer[T transactions.Request] struct {
	submitter Submitter
	chainID   int64
	clock     time2.Clock
}

// NewRelayer stamps relayed transactions with clock, or the wall clock when nil.
func NewRelayer[T transactions.Request](submitter Submitter, chainID int64, clock time2.Clock) *Relayer[T] {
	if clock == nil {
		clock = time2.DefaultClock
	}

	return &Relayer[T]{
		submitter: submitter,
		chainID:   chainID,
		clock:     clock,
	}
}

func (r *Relayer[T]) RelayProtocolCall(ctx context.Context, call *transactions.SignedProtocolCall[T]) (*transactions.Transaction[T], error) {
	req, err := NewSubmitRequest(call, r.chainID)
	if err != nil {
		return nil, transactions.AsBroadcastingError(err)
	}

	res, err := r.submitter.Submit(ctx, req)
	if err != nil {
		return nil, transactions.AsBroadcastingError(err)
	}

	var hash common.Hash
	if res.TxHash != "" {
		hash = common.HexToHash(res.TxHash)
	}

	log.Debug().
		Str("call_id", req.ID).
		Str("relay_id", res.TxID).
		Str("tx_hash", res.TxHash).
		Msg("Relay accepted protocol call")

	return transactions.NewMetaTransaction(call, r.chainID, res.TxID, hash, r.clock.Now()), nil
}
