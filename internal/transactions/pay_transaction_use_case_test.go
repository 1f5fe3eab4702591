package transactions_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txrelay/internal/transactions"
)

type payFixture struct {
	activeWallet *mockActiveWallet
	wallet       *mockWallet
	gateway      *mockSelfFundedGateway
	broadcaster  *mockBroadcaster
	queue        *mockQueue
	presenter    *recordingPresenter
	useCase      *transactions.PayTransactionUseCase[transferRequest]
}

func newPayFixture() *payFixture {
	f := &payFixture{
		activeWallet: &mockActiveWallet{},
		wallet:       &mockWallet{},
		gateway:      &mockSelfFundedGateway{},
		broadcaster:  &mockBroadcaster{},
		queue:        &mockQueue{},
		presenter:    &recordingPresenter{},
	}
	f.wallet.On("Address").Return(walletAddress).Maybe()
	f.useCase = transactions.NewPayTransactionUseCase[transferRequest](f.activeWallet, f.gateway, f.broadcaster, f.queue, f.presenter)

	return f
}

func dynamicFeeTx(nonce uint64) *types.Transaction {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(1337),
		Nonce:     nonce,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(10),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1),
	})
}

func TestPayTransactionUseCaseSuccess(t *testing.T) {
	f := newPayFixture()
	ctx := context.Background()
	request := transferRequest{To: "0xaa", Amount: "1"}
	unsigned := &transactions.UnsignedTransaction[transferRequest]{ID: uuid.New(), Request: request, ChainID: 1337, Nonce: 5, Tx: dynamicFeeTx(5)}
	signed := dynamicFeeTx(5)

	f.activeWallet.On("RequireActiveWallet", ctx).Return(f.wallet, nil)
	f.gateway.On("CreateUnsignedTransaction", ctx, request, f.wallet).Return(unsigned, nil)
	f.wallet.On("SignTransaction", ctx, unsigned.Tx).Return(signed, nil)
	f.broadcaster.On("Broadcast", ctx, signed).Return(nil)
	f.queue.On("Push", mock.MatchedBy(func(tx *transactions.Transaction[transferRequest]) bool {
		return tx.ID == unsigned.ID &&
			tx.Kind == transactions.KindNative &&
			tx.Nonce == 5 &&
			tx.Hash == signed.Hash() &&
			tx.From == walletAddress
	})).Return()

	f.useCase.Execute(ctx, request)

	require.Len(t, f.presenter.Results(), 1)
	assert.True(t, f.presenter.Results()[0].IsSuccess())
	f.queue.AssertNumberOfCalls(t, "Push", 1)
}

func TestPayTransactionUseCaseBroadcastFailures(t *testing.T) {
	gasErr := transactions.NewInsufficientGasError(errors.New("insufficient funds for gas * price + value"))

	tests := []struct {
		name   string
		err    error
		assert func(t *testing.T, err error)
	}{
		{
			name: "insufficient gas",
			err:  gasErr,
			assert: func(t *testing.T, err error) {
				t.Helper()
				assert.Same(t, gasErr, err)
			},
		},
		{
			name: "other node error",
			err:  errors.New("nonce too low"),
			assert: func(t *testing.T, err error) {
				t.Helper()
				var broadcastErr *transactions.BroadcastingError
				require.ErrorAs(t, err, &broadcastErr)
				assert.Equal(t, "nonce too low", broadcastErr.Reason)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPayFixture()
			ctx := context.Background()
			request := transferRequest{To: "0xaa", Amount: "1"}
			unsigned := &transactions.UnsignedTransaction[transferRequest]{ID: uuid.New(), Request: request, Tx: dynamicFeeTx(1)}

			f.activeWallet.On("RequireActiveWallet", ctx).Return(f.wallet, nil)
			f.gateway.On("CreateUnsignedTransaction", ctx, request, f.wallet).Return(unsigned, nil)
			f.wallet.On("SignTransaction", ctx, unsigned.Tx).Return(unsigned.Tx, nil)
			f.broadcaster.On("Broadcast", ctx, unsigned.Tx).Return(tt.err)

			f.useCase.Execute(ctx, request)

			require.Len(t, f.presenter.Results(), 1)
			tt.assert(t, f.presenter.Results()[0].Err())
			f.queue.AssertNotCalled(t, "Push", mock.Anything)
		})
	}
}

func TestPayTransactionUseCaseUserRejected(t *testing.T) {
	f := newPayFixture()
	ctx := context.Background()
	request := transferRequest{To: "0xaa", Amount: "1"}
	unsigned := &transactions.UnsignedTransaction[transferRequest]{ID: uuid.New(), Request: request, Tx: dynamicFeeTx(1)}
	rejected := &transactions.UserRejectedError{}

	f.activeWallet.On("RequireActiveWallet", ctx).Return(f.wallet, nil)
	f.gateway.On("CreateUnsignedTransaction", ctx, request, f.wallet).Return(unsigned, nil)
	f.wallet.On("SignTransaction", ctx, unsigned.Tx).Return(nil, rejected)

	f.useCase.Execute(ctx, request)

	assert.Same(t, rejected, f.presenter.Results()[0].Err())
	f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "Push", mock.Anything)
}

func TestPayTransactionUseCaseReleasesNonceOnFailure(t *testing.T) {
	tests := []struct {
		name      string
		signErr   error
		broadcast error
	}{
		{name: "signing rejected", signErr: &transactions.UserRejectedError{}},
		{name: "broadcast failed", broadcast: errors.New("replacement transaction underpriced")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPayFixture()
			gateway := &mockReleasingSelfFundedGateway{}
			f.useCase = transactions.NewPayTransactionUseCase[transferRequest](f.activeWallet, gateway, f.broadcaster, f.queue, f.presenter)
			ctx := context.Background()
			request := transferRequest{To: "0xaa", Amount: "1"}
			unsigned := &transactions.UnsignedTransaction[transferRequest]{ID: uuid.New(), Request: request, ChainID: 1337, Nonce: 9, Tx: dynamicFeeTx(9)}

			f.activeWallet.On("RequireActiveWallet", ctx).Return(f.wallet, nil)
			gateway.On("CreateUnsignedTransaction", ctx, request, f.wallet).Return(unsigned, nil)
			gateway.On("ReleaseNonce", mock.Anything, walletAddress, transactions.Nonce(9)).Return(nil)
			if tt.signErr != nil {
				f.wallet.On("SignTransaction", ctx, unsigned.Tx).Return(nil, tt.signErr)
			} else {
				f.wallet.On("SignTransaction", ctx, unsigned.Tx).Return(unsigned.Tx, nil)
				f.broadcaster.On("Broadcast", ctx, unsigned.Tx).Return(tt.broadcast)
			}

			f.useCase.Execute(ctx, request)

			require.Len(t, f.presenter.Results(), 1)
			assert.False(t, f.presenter.Results()[0].IsSuccess())
			gateway.AssertNumberOfCalls(t, "ReleaseNonce", 1)
			f.queue.AssertNotCalled(t, "Push", mock.Anything)
		})
	}
}

func TestPayTransactionUseCaseKeepsNonceOnSuccess(t *testing.T) {
	f := newPayFixture()
	gateway := &mockReleasingSelfFundedGateway{}
	f.useCase = transactions.NewPayTransactionUseCase[transferRequest](f.activeWallet, gateway, f.broadcaster, f.queue, f.presenter)
	ctx := context.Background()
	request := transferRequest{To: "0xaa", Amount: "1"}
	unsigned := &transactions.UnsignedTransaction[transferRequest]{ID: uuid.New(), Request: request, ChainID: 1337, Nonce: 9, Tx: dynamicFeeTx(9)}

	f.activeWallet.On("RequireActiveWallet", ctx).Return(f.wallet, nil)
	gateway.On("CreateUnsignedTransaction", ctx, request, f.wallet).Return(unsigned, nil)
	f.wallet.On("SignTransaction", ctx, unsigned.Tx).Return(unsigned.Tx, nil)
	f.broadcaster.On("Broadcast", ctx, unsigned.Tx).Return(nil)
	f.queue.On("Push", mock.Anything).Return()

	f.useCase.Execute(ctx, request)

	assert.True(t, f.presenter.Results()[0].IsSuccess())
	gateway.AssertNotCalled(t, "ReleaseNonce", mock.Anything, mock.Anything, mock.Anything)
}
