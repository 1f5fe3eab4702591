package selffunded

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-txrelay/internal/transactions"
)

// Call is the on-chain effect of a request.
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

type Encoder[T transactions.Request] interface {
	Encode(request T) (Call, error)
}

// ChainReader is satisfied by chain.RPCClient.
type ChainReader interface {
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	LatestBaseFee(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}
