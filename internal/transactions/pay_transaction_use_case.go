package transactions

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/util"
)

// PayTransactionUseCase submits a transaction the wallet signs and pays for itself.
type PayTransactionUseCase[T Request] struct {
	activeWallet ActiveWallet
	gateway      SelfFundedGateway[T]
	broadcaster  Broadcaster
	queue        TransactionQueue[T]
	presenter    Presenter
}

func NewPayTransactionUseCase[T Request](
	activeWallet ActiveWallet,
	gateway SelfFundedGateway[T],
	broadcaster Broadcaster,
	queue TransactionQueue[T],
	presenter Presenter,
) *PayTransactionUseCase[T] {
	return &PayTransactionUseCase[T]{
		activeWallet: activeWallet,
		gateway:      gateway,
		broadcaster:  broadcaster,
		queue:        queue,
		presenter:    presenter,
	}
}

func (u *PayTransactionUseCase[T]) Execute(ctx context.Context, request T) {
	u.presenter.Present(u.execute(ctx, request))
}

func (u *PayTransactionUseCase[T]) execute(ctx context.Context, request T) (result Result) {
	logger := util.LogFromContext(ctx).With().
		Str("component", "pay_transaction").
		Str("request_kind", string(request.Kind())).
		Logger()

	wallet, err := u.activeWallet.RequireActiveWallet(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("No active wallet")
		return Failure(err)
	}

	unsigned, err := u.gateway.CreateUnsignedTransaction(ctx, request, wallet)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create unsigned transaction")
		return Failure(err)
	}

	defer func() {
		if !result.IsSuccess() {
			releaseNonce(ctx, u.gateway, wallet.Address(), unsigned.Nonce, logger)
		}
	}()

	signed, err := SignTransaction(ctx, wallet, unsigned)
	if err != nil {
		logger.Info().Err(err).Str("tx_id", unsigned.ID.String()).Msg("Transaction was not signed")
		return Failure(err)
	}

	if err := u.broadcaster.Broadcast(ctx, signed); err != nil {
		var gasErr *InsufficientGasError
		if errors.As(err, &gasErr) {
			logger.Warn().Err(err).Str("wallet", wallet.Address().Hex()).Msg("Wallet cannot pay for gas")
			return Failure(gasErr)
		}

		broadcastErr := AsBroadcastingError(err)
		logger.Warn().Str("tx_hash", signed.Hash().Hex()).Str("reason", broadcastErr.Reason).Msg("Node rejected transaction")
		return Failure(broadcastErr)
	}

	tx := NewNativeTransaction(unsigned, signed, wallet.Address(), time.Now())
	u.queue.Push(tx)

	logger.Info().
		Str("tx_id", tx.ID.String()).
		Str("tx_hash", tx.Hash.Hex()).
		Uint64("nonce", uint64(tx.Nonce)).
		Msg("Transaction broadcast")

	return Success()
}
