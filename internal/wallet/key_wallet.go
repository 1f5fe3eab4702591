package wallet

import (
	"context"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/transactions"
	"github/chapool/go-txrelay/internal/util"
	"github/chapool/go-txrelay/internal/wallet/address"
	"github/chapool/go-txrelay/internal/wallet/seed"
	"github/chapool/go-txrelay/internal/wallet/signer"
)

// KeyWallet signs with a key derived from the unlocked HD seed. Only one
// signing request may be in flight at a time.
type KeyWallet struct {
	address  common.Address
	path     string
	chainID  int64
	signer   signer.Service
	approver Approver
	pending  atomic.Bool
}

var _ transactions.Wallet = (*KeyWallet)(nil)

func NewKeyWallet(signerService signer.Service, from common.Address, derivationPath string, chainID int64, approver Approver) *KeyWallet {
	if approver == nil {
		approver = AutoApprove
	}

	return &KeyWallet{
		address:  from,
		path:     derivationPath,
		chainID:  chainID,
		signer:   signerService,
		approver: approver,
	}
}

// OpenKeyWallet derives the account at index from the seed held by seedManager.
func OpenKeyWallet(seedManager seed.Manager, addressService address.Service, index uint32, chainID int64, approver Approver) (*KeyWallet, error) {
	seedBytes := seedManager.GetSeed()
	if seedBytes == nil {
		return nil, signer.ErrSeedNotInitialized
	}
	defer zero(seedBytes)

	path := addressService.GetBIP44Path(index)
	from, err := addressService.DeriveAddress(seedBytes, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to derive account %d", index)
	}

	return NewKeyWallet(signer.NewService(seedManager, addressService), from, path, chainID, approver), nil
}

func (w *KeyWallet) Address() common.Address {
	return w.address
}

func (w *KeyWallet) ChainID() int64 {
	return w.chainID
}

func (w *KeyWallet) SignProtocolCall(ctx context.Context, call transactions.Signable) (hexutil.Bytes, error) {
	if !w.pending.CompareAndSwap(false, true) {
		return nil, &transactions.PendingSigningRequestError{}
	}
	defer w.pending.Store(false)

	data := call.SigningPayload()
	if data.Domain.ChainId != nil && (*big.Int)(data.Domain.ChainId).Cmp(big.NewInt(w.chainID)) != 0 {
		return nil, transactions.NewWalletConnectionError(transactions.ReasonIncorrectChain,
			errors.Errorf("typed data is for chain %s, wallet is on chain %d", (*big.Int)(data.Domain.ChainId), w.chainID))
	}

	if err := w.approve(ctx, Prompt{From: w.address, TypedData: &data}); err != nil {
		return nil, err
	}

	signature, err := w.signer.SignTypedData(ctx, &signer.SignTypedDataRequest{
		FromAddress:    w.address,
		DerivationPath: w.path,
		TypedData:      data,
	})
	if err != nil {
		return nil, signerError(err)
	}

	util.LogFromContext(ctx).Debug().Str("from", w.address.Hex()).Str("primaryType", data.PrimaryType).Msg("Signed protocol call")

	return signature, nil
}

func (w *KeyWallet) SignTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	if !w.pending.CompareAndSwap(false, true) {
		return nil, &transactions.PendingSigningRequestError{}
	}
	defer w.pending.Store(false)

	if tx.ChainId().Cmp(big.NewInt(w.chainID)) != 0 {
		return nil, transactions.NewWalletConnectionError(transactions.ReasonIncorrectChain,
			errors.Errorf("transaction is for chain %s, wallet is on chain %d", tx.ChainId(), w.chainID))
	}

	if err := w.approve(ctx, Prompt{From: w.address, Tx: tx}); err != nil {
		return nil, err
	}

	signed, err := w.signer.SignTransaction(ctx, &signer.SignTransactionRequest{
		ChainID:        w.chainID,
		FromAddress:    w.address,
		DerivationPath: w.path,
		Tx:             tx,
	})
	if err != nil {
		return nil, signerError(err)
	}

	return signed, nil
}

func (w *KeyWallet) approve(ctx context.Context, prompt Prompt) error {
	approved, err := w.approver.Approve(ctx, prompt)
	if err != nil {
		return transactions.NewWalletConnectionError(transactions.ReasonDisconnected, err)
	}
	if !approved {
		return &transactions.UserRejectedError{}
	}

	return nil
}

func signerError(err error) error {
	switch {
	case errors.Is(err, signer.ErrAddressMismatch):
		return transactions.NewWalletConnectionError(transactions.ReasonWrongAccount, err)
	case errors.Is(err, signer.ErrSeedNotInitialized):
		return transactions.NewWalletConnectionError(transactions.ReasonNotConnected, err)
	default:
		return transactions.NewWalletConnectionError(transactions.ReasonDisconnected, err)
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
