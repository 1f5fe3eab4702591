package calls

import (
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/transactions"
)

// TypedRequest is a request that already carries its EIP-712 shape, e.g. one
// read from a JSON file on the command line.
type TypedRequest struct {
	Action      string                    `json:"action"`
	PrimaryType string                    `json:"primaryType"`
	Types       apitypes.Types            `json:"types"`
	Message     apitypes.TypedDataMessage `json:"message"`
}

func (r TypedRequest) Kind() transactions.RequestKind {
	return transactions.RequestKind(r.Action)
}

type TypedRequestEncoder struct{}

func (TypedRequestEncoder) Encode(request TypedRequest) (Message, error) {
	if request.PrimaryType == "" {
		return Message{}, errors.New("typed request has no primary type")
	}
	if _, ok := request.Types[request.PrimaryType]; !ok {
		return Message{}, errors.Errorf("typed request does not define type %s", request.PrimaryType)
	}
	if _, ok := request.Types[domainType]; ok {
		return Message{}, errors.Errorf("typed request must not define %s", domainType)
	}

	return Message{
		PrimaryType: request.PrimaryType,
		Types:       request.Types,
		Data:        request.Message,
	}, nil
}
