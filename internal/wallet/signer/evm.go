package signer

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

// legacyRecoveryOffset moves V from {0, 1} to {27, 28} as expected by ecrecover.
const legacyRecoveryOffset = 27

func (s *service) SignTypedData(_ context.Context, req *SignTypedDataRequest) (hexutil.Bytes, error) {
	digest, _, err := apitypes.TypedDataAndHash(req.TypedData)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash typed data")
	}

	var signature []byte
	err = s.withKey(req.DerivationPath, req.FromAddress, func(key *ecdsa.PrivateKey) error {
		sig, err := crypto.Sign(digest, key)
		if err != nil {
			return errors.Wrap(err, "failed to sign typed data")
		}

		sig[crypto.RecoveryIDOffset] += legacyRecoveryOffset
		signature = sig

		return nil
	})
	if err != nil {
		return nil, err
	}

	return signature, nil
}

func (s *service) SignTransaction(_ context.Context, req *SignTransactionRequest) (*types.Transaction, error) {
	if req.Tx == nil {
		return nil, errors.New("transaction is nil")
	}
	if req.Tx.Type() != types.DynamicFeeTxType {
		return nil, errors.Errorf("unsupported transaction type %d, only EIP-1559 is supported", req.Tx.Type())
	}

	var signedTx *types.Transaction
	err := s.withKey(req.DerivationPath, req.FromAddress, func(key *ecdsa.PrivateKey) error {
		signer := types.NewLondonSigner(big.NewInt(req.ChainID))

		tx, err := types.SignTx(req.Tx, signer, key)
		if err != nil {
			return errors.Wrap(err, "failed to sign transaction")
		}
		signedTx = tx

		return nil
	})
	if err != nil {
		return nil, err
	}

	return signedTx, nil
}

// RecoverTypedDataSigner returns the address that produced signature over data.
func RecoverTypedDataSigner(data apitypes.TypedData, signature hexutil.Bytes) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, errors.Errorf("invalid signature length %d", len(signature))
	}

	digest, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to hash typed data")
	}

	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= legacyRecoveryOffset {
		sig[crypto.RecoveryIDOffset] -= legacyRecoveryOffset
	}

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover public key")
	}

	return crypto.PubkeyToAddress(*pub), nil
}
