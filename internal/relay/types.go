package relay

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/transactions"
)

// SubmitRequest is the body of POST /submit.
type SubmitRequest struct {
	ID        string                   `json:"id"`
	Kind      transactions.RequestKind `json:"kind"`
	ChainID   int64                    `json:"chainId"`
	From      common.Address           `json:"from"`
	Nonce     uint64                   `json:"nonce"`
	Deadline  int64                    `json:"deadline"`
	TypedData apitypes.TypedData       `json:"typedData"`
	Signature hexutil.Bytes            `json:"signature"`
	Request   json.RawMessage          `json:"request,omitempty"`
}

// SubmitResponse is the relay's acknowledgement. TxHash is empty until the
// relay has broadcast the call.
type SubmitResponse struct {
	TxID   string `json:"txId"`
	TxHash string `json:"txHash,omitempty"`
}

type NonceResponse struct {
	Nonce uint64 `json:"nonce"`
}

type TransactionResponse struct {
	TxID   string `json:"txId"`
	TxHash string `json:"txHash,omitempty"`
	Status string `json:"status"`
}

type errorResponse struct {
	Reason string `json:"reason"`
}

func NewSubmitRequest[T transactions.Request](call *transactions.SignedProtocolCall[T], chainID int64) (*SubmitRequest, error) {
	payload, err := json.Marshal(call.Request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}

	return &SubmitRequest{
		ID:        call.ID.String(),
		Kind:      call.Request.Kind(),
		ChainID:   chainID,
		From:      call.Signer,
		Nonce:     uint64(call.Nonce),
		Deadline:  call.Deadline.Unix(),
		TypedData: call.TypedData,
		Signature: call.Signature,
		Request:   payload,
	}, nil
}
