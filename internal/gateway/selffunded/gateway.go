package selffunded

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/chain"
	"github/chapool/go-txrelay/internal/transactions"
)

const (
	eip1559FeeMultiplier = 2
	defaultGasMarginPct  = 120
	percent              = 100
)

// Gateway builds unsigned EIP-1559 transactions paid for by the wallet.
type Gateway[T transactions.Request] struct {
	chainID      int64
	chain        ChainReader
	nonces       transactions.NonceGateway
	encoder      Encoder[T]
	gasMarginPct uint64
}

func NewGateway[T transactions.Request](chainID int64, chainReader ChainReader, nonces transactions.NonceGateway, encoder Encoder[T]) *Gateway[T] {
	return &Gateway[T]{
		chainID:      chainID,
		chain:        chainReader,
		nonces:       nonces,
		encoder:      encoder,
		gasMarginPct: defaultGasMarginPct,
	}
}

func (g *Gateway[T]) CreateUnsignedTransaction(ctx context.Context, request T, wallet transactions.Wallet) (*transactions.UnsignedTransaction[T], error) {
	call, err := g.encoder.Encode(request)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s request", request.Kind())
	}

	value := call.Value
	if value == nil {
		value = new(big.Int)
	}

	tipCap, err := g.chain.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest gas tip cap")
	}

	baseFee, err := g.chain.LatestBaseFee(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get base fee")
	}

	// MaxFee = BaseFee * 2 + TipCap
	maxFee := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(eip1559FeeMultiplier)), tipCap)

	gas, err := g.chain.EstimateGas(ctx, ethereum.CallMsg{
		From:      wallet.Address(),
		To:        &call.To,
		GasFeeCap: maxFee,
		GasTipCap: tipCap,
		Value:     value,
		Data:      call.Data,
	})
	if err != nil {
		if chain.IsInsufficientFunds(err) {
			return nil, transactions.NewInsufficientGasError(err)
		}
		return nil, errors.Wrap(err, "failed to estimate gas")
	}
	gas = gas * g.gasMarginPct / percent

	// the nonce is taken last so a failed estimate does not reserve one
	nonce, err := g.nonces.GetNonceFor(ctx, wallet)
	if err != nil {
		return nil, err
	}

	to := call.To
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(g.chainID),
		Nonce:     uint64(nonce),
		GasTipCap: tipCap,
		GasFeeCap: maxFee,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      call.Data,
	})

	return &transactions.UnsignedTransaction[T]{
		ID:      uuid.New(),
		Request: request,
		ChainID: g.chainID,
		Nonce:   nonce,
		Tx:      tx,
	}, nil
}

// ReleaseNonce hands a nonce back to the nonce gateway when it supports it.
func (g *Gateway[T]) ReleaseNonce(ctx context.Context, address common.Address, nonce transactions.Nonce) error {
	releaser, ok := g.nonces.(transactions.NonceReleaser)
	if !ok {
		return nil
	}

	return releaser.ReleaseNonce(ctx, address, nonce)
}
