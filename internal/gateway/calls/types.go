package calls

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github/chapool/go-txrelay/internal/transactions"
)

// Domain is the EIP-712 domain calls are signed under.
type Domain struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract common.Address
}

// Message is the payload specific part of a protocol call. Types must not
// contain EIP712Domain.
type Message struct {
	PrimaryType string
	Types       apitypes.Types
	Data        apitypes.TypedDataMessage
}

// Encoder turns a request into its EIP-712 message.
type Encoder[T transactions.Request] interface {
	Encode(request T) (Message, error)
}

type EncoderFunc[T transactions.Request] func(request T) (Message, error)

func (f EncoderFunc[T]) Encode(request T) (Message, error) {
	return f(request)
}

// NonceFunc computes a nonce when the caller did not pass one.
type NonceFunc[T transactions.Request] func(ctx context.Context, request T) (transactions.Nonce, error)
