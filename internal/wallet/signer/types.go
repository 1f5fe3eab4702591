package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

var (
	ErrSeedNotInitialized = errors.New("seed not initialized")
	ErrAddressMismatch    = errors.New("from address does not match private key")
)

// Service signs with keys derived from the unlocked seed.
type Service interface {
	// SignTypedData returns a 65 byte EIP-712 signature with V in {27, 28}.
	SignTypedData(ctx context.Context, req *SignTypedDataRequest) (hexutil.Bytes, error)

	// SignTransaction signs an EIP-1559 transaction.
	SignTransaction(ctx context.Context, req *SignTransactionRequest) (*types.Transaction, error)
}

type SignTypedDataRequest struct {
	FromAddress    common.Address
	DerivationPath string // BIP44 derivation path (e.g., "m/44'/60'/0'/0/0")
	TypedData      apitypes.TypedData
}

type SignTransactionRequest struct {
	ChainID        int64
	FromAddress    common.Address
	DerivationPath string
	Tx             *types.Transaction
}
