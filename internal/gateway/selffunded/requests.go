package selffunded

import (
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/transactions"
)

const paddedLength = 32

// transfer(address,uint256)
var erc20TransferMethodID, _ = hex.DecodeString("a9059cbb")

// Transfer moves Amount wei of the native coin, or of the ERC20 Token when set.
type Transfer struct {
	To     common.Address  `json:"to"`
	Token  *common.Address `json:"token,omitempty"`
	Amount *hexutil.Big    `json:"amount"`
}

func (Transfer) Kind() transactions.RequestKind {
	return "transfer"
}

type TransferEncoder struct{}

func (TransferEncoder) Encode(request Transfer) (Call, error) {
	if request.Amount == nil || request.Amount.ToInt().Sign() <= 0 {
		return Call{}, errors.New("invalid amount")
	}

	amount := new(big.Int).Set(request.Amount.ToInt())

	if request.Token == nil {
		return Call{To: request.To, Value: amount}, nil
	}

	data := make([]byte, 0, len(erc20TransferMethodID)+2*paddedLength)
	data = append(data, erc20TransferMethodID...)
	data = append(data, common.LeftPadBytes(request.To.Bytes(), paddedLength)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), paddedLength)...)

	return Call{To: *request.Token, Value: new(big.Int), Data: data}, nil
}

// ContractCall is an arbitrary call with pre-encoded calldata.
type ContractCall struct {
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value,omitempty"`
	Data  hexutil.Bytes  `json:"data"`
}

func (ContractCall) Kind() transactions.RequestKind {
	return "contract_call"
}

type ContractCallEncoder struct{}

func (ContractCallEncoder) Encode(request ContractCall) (Call, error) {
	value := new(big.Int)
	if request.Value != nil {
		value.Set(request.Value.ToInt())
	}
	if value.Sign() < 0 {
		return Call{}, errors.New("negative value")
	}

	return Call{To: request.To, Value: value, Data: request.Data}, nil
}
