package transactions

import (
	"context"

	"github/chapool/go-txrelay/internal/util"
)

// ProtocolCallUseCase submits one gas-sponsored protocol call per Execute and
// reports the outcome to its presenter. It keeps no state between calls.
type ProtocolCallUseCase[T Request] struct {
	activeWallet ActiveWallet
	nonceGateway NonceGateway
	callGateway  UnsignedCallGateway[T]
	relayer      CallRelayer[T]
	queue        TransactionQueue[T]
	presenter    Presenter
}

func NewProtocolCallUseCase[T Request](
	activeWallet ActiveWallet,
	nonceGateway NonceGateway,
	callGateway UnsignedCallGateway[T],
	relayer CallRelayer[T],
	queue TransactionQueue[T],
	presenter Presenter,
) *ProtocolCallUseCase[T] {
	return &ProtocolCallUseCase[T]{
		activeWallet: activeWallet,
		nonceGateway: nonceGateway,
		callGateway:  callGateway,
		relayer:      relayer,
		queue:        queue,
		presenter:    presenter,
	}
}

func (u *ProtocolCallUseCase[T]) Execute(ctx context.Context, request T) {
	u.presenter.Present(u.execute(ctx, request))
}

func (u *ProtocolCallUseCase[T]) execute(ctx context.Context, request T) (result Result) {
	logger := util.LogFromContext(ctx).With().
		Str("component", "protocol_call").
		Str("request_kind", string(request.Kind())).
		Logger()

	// 1. active wallet
	wallet, err := u.activeWallet.RequireActiveWallet(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("No active wallet")
		return Failure(err)
	}

	logger = logger.With().Str("wallet", wallet.Address().Hex()).Logger()

	// 2. nonce
	nonce, err := u.nonceGateway.GetNonceFor(ctx, wallet)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get nonce")
		return Failure(err)
	}

	// every failure from here on leaves the nonce unused
	defer func() {
		if !result.IsSuccess() {
			releaseNonce(ctx, u.nonceGateway, wallet.Address(), nonce, logger)
		}
	}()

	// 3. unsigned call, always with the gateway nonce
	unsigned, err := u.callGateway.CreateUnsignedProtocolCall(ctx, request, CallOptions{Nonce: &nonce})
	if err != nil {
		logger.Error().Err(err).Uint64("nonce", uint64(nonce)).Msg("Failed to create unsigned protocol call")
		return Failure(err)
	}

	// 4. signature
	signed, err := SignProtocolCall(ctx, wallet, unsigned)
	if err != nil {
		logger.Info().Err(err).Str("call_id", unsigned.ID.String()).Msg("Protocol call was not signed")
		return Failure(err)
	}

	// 5. relay
	tx, err := u.relayer.RelayProtocolCall(ctx, signed)
	if err != nil {
		broadcastErr := AsBroadcastingError(err)
		logger.Warn().Str("call_id", unsigned.ID.String()).Str("reason", broadcastErr.Reason).Msg("Relay rejected protocol call")
		return Failure(broadcastErr)
	}

	// 6. queue
	u.queue.Push(tx)

	logger.Info().
		Str("tx_id", tx.ID.String()).
		Uint64("nonce", uint64(tx.Nonce)).
		Str("relay_id", tx.RelayID).
		Msg("Protocol call relayed")

	return Success()
}
