package transactions_test

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github/chapool/go-txrelay/internal/transactions"
)

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (transferRequest) Kind() transactions.RequestKind {
	return "transfer"
}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) Address() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address) //nolint:forcetypeassert
}

func (m *mockWallet) SignProtocolCall(ctx context.Context, call transactions.Signable) (hexutil.Bytes, error) {
	args := m.Called(ctx, call)
	sig, _ := args.Get(0).(hexutil.Bytes)
	return sig, args.Error(1)
}

func (m *mockWallet) SignTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	args := m.Called(ctx, tx)
	signed, _ := args.Get(0).(*types.Transaction)
	return signed, args.Error(1)
}

type mockActiveWallet struct {
	mock.Mock
}

func (m *mockActiveWallet) RequireActiveWallet(ctx context.Context) (transactions.Wallet, error) {
	args := m.Called(ctx)
	wallet, _ := args.Get(0).(transactions.Wallet)
	return wallet, args.Error(1)
}

type mockNonceGateway struct {
	mock.Mock
}

func (m *mockNonceGateway) GetNonceFor(ctx context.Context, wallet transactions.Wallet) (transactions.Nonce, error) {
	args := m.Called(ctx, wallet)
	nonce, _ := args.Get(0).(transactions.Nonce)
	return nonce, args.Error(1)
}

// mockReleasingNonceGateway can take back a nonce it handed out.
type mockReleasingNonceGateway struct {
	mockNonceGateway
}

func (m *mockReleasingNonceGateway) ReleaseNonce(ctx context.Context, address common.Address, nonce transactions.Nonce) error {
	return m.Called(ctx, address, nonce).Error(0)
}

type mockCallGateway struct {
	mock.Mock
}

func (m *mockCallGateway) CreateUnsignedProtocolCall(ctx context.Context, request transferRequest, opts transactions.CallOptions) (*transactions.UnsignedProtocolCall[transferRequest], error) {
	args := m.Called(ctx, request, opts)
	call, _ := args.Get(0).(*transactions.UnsignedProtocolCall[transferRequest])
	return call, args.Error(1)
}

type mockRelayer struct {
	mock.Mock
}

func (m *mockRelayer) RelayProtocolCall(ctx context.Context, call *transactions.SignedProtocolCall[transferRequest]) (*transactions.Transaction[transferRequest], error) {
	args := m.Called(ctx, call)
	tx, _ := args.Get(0).(*transactions.Transaction[transferRequest])
	return tx, args.Error(1)
}

type mockQueue struct {
	mock.Mock
}

func (m *mockQueue) Push(tx *transactions.Transaction[transferRequest]) {
	m.Called(tx)
}

type mockSelfFundedGateway struct {
	mock.Mock
}

func (m *mockSelfFundedGateway) CreateUnsignedTransaction(ctx context.Context, request transferRequest, wallet transactions.Wallet) (*transactions.UnsignedTransaction[transferRequest], error) {
	args := m.Called(ctx, request, wallet)
	unsigned, _ := args.Get(0).(*transactions.UnsignedTransaction[transferRequest])
	return unsigned, args.Error(1)
}

type mockReleasingSelfFundedGateway struct {
	mockSelfFundedGateway
}

func (m *mockReleasingSelfFundedGateway) ReleaseNonce(ctx context.Context, address common.Address, nonce transactions.Nonce) error {
	return m.Called(ctx, address, nonce).Error(0)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) Broadcast(ctx context.Context, tx *types.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

// recordingPresenter keeps every result it was given.
type recordingPresenter struct {
	mu      sync.Mutex
	results []transactions.Result
}

func (p *recordingPresenter) Present(result transactions.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
}

func (p *recordingPresenter) Results() []transactions.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]transactions.Result(nil), p.results...)
}
