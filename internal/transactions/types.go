package transactions

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"
)

// Nonce is the per-wallet sequence number of a submission.
type Nonce uint64

// RequestKind names a protocol action, e.g. "transfer" or "contract_call".
type RequestKind string

// Request is the payload of a protocol call. Implementations are immutable
// values; their identity is structural.
type Request interface {
	Kind() RequestKind
}

// Signable is anything a wallet can sign as EIP-712 typed data.
type Signable interface {
	SigningPayload() apitypes.TypedData
}

// CallOptions carries per-submission overrides for building an unsigned call.
type CallOptions struct {
	// Nonce, when set, must be used verbatim by the gateway.
	Nonce *Nonce
}

// UnsignedProtocolCall is built fresh for every submission attempt.
type UnsignedProtocolCall[T Request] struct {
	ID        uuid.UUID          `json:"id"`
	Request   T                  `json:"request"`
	Nonce     Nonce              `json:"nonce"`
	Deadline  time.Time          `json:"deadline"`
	TypedData apitypes.TypedData `json:"typedData"`
}

func (c *UnsignedProtocolCall[T]) SigningPayload() apitypes.TypedData {
	return c.TypedData
}

// SignedProtocolCall is handed straight to a relayer and never persisted.
type SignedProtocolCall[T Request] struct {
	*UnsignedProtocolCall[T]

	Signature hexutil.Bytes  `json:"signature"`
	Signer    common.Address `json:"signer"`
}

// UnsignedTransaction is the self-funded counterpart of UnsignedProtocolCall.
type UnsignedTransaction[T Request] struct {
	ID      uuid.UUID
	Request T
	ChainID int64
	Nonce   Nonce
	Tx      *types.Transaction
}

type TransactionKind string

const (
	// KindMeta marks a call relayed and paid for by the relay service.
	KindMeta TransactionKind = "meta"
	// KindNative marks a transaction signed and paid for by the wallet itself.
	KindNative TransactionKind = "native"
)

// Transaction is a queue entry: something submitted but not yet observed settled.
type Transaction[T Request] struct {
	ID          uuid.UUID       `json:"id"`
	Kind        TransactionKind `json:"kind"`
	ChainID     int64           `json:"chainId"`
	From        common.Address  `json:"from"`
	Nonce       Nonce           `json:"nonce"`
	Hash        common.Hash     `json:"hash"`
	RelayID     string          `json:"relayId,omitempty"`
	Request     T               `json:"request"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// NewMetaTransaction records the relay's acknowledgement of call. hash may be
// zero if the relay has not broadcast the call yet.
func NewMetaTransaction[T Request](call *SignedProtocolCall[T], chainID int64, relayID string, hash common.Hash, at time.Time) *Transaction[T] {
	return &Transaction[T]{
		ID:          call.ID,
		Kind:        KindMeta,
		ChainID:     chainID,
		From:        call.Signer,
		Nonce:       call.Nonce,
		Hash:        hash,
		RelayID:     relayID,
		Request:     call.Request,
		SubmittedAt: at.UTC(),
	}
}

func NewNativeTransaction[T Request](unsigned *UnsignedTransaction[T], signed *types.Transaction, from common.Address, at time.Time) *Transaction[T] {
	return &Transaction[T]{
		ID:          unsigned.ID,
		Kind:        KindNative,
		ChainID:     unsigned.ChainID,
		From:        from,
		Nonce:       Nonce(signed.Nonce()),
		Hash:        signed.Hash(),
		Request:     unsigned.Request,
		SubmittedAt: at.UTC(),
	}
}

func (t *Transaction[T]) HasHash() bool {
	return t.Hash != (common.Hash{})
}

// Summary is a payload-agnostic view of a queue entry.
type Summary struct {
	ID          string          `json:"id"`
	Kind        TransactionKind `json:"kind"`
	RequestKind RequestKind     `json:"requestKind"`
	ChainID     int64           `json:"chainId"`
	From        string          `json:"from"`
	Nonce       uint64          `json:"nonce"`
	Hash        string          `json:"hash,omitempty"`
	RelayID     string          `json:"relayId,omitempty"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

func (t *Transaction[T]) Summary() Summary {
	s := Summary{
		ID:          t.ID.String(),
		Kind:        t.Kind,
		RequestKind: t.Request.Kind(),
		ChainID:     t.ChainID,
		From:        t.From.Hex(),
		Nonce:       uint64(t.Nonce),
		RelayID:     t.RelayID,
		SubmittedAt: t.SubmittedAt,
	}
	if t.HasHash() {
		s.Hash = t.Hash.Hex()
	}

	return s
}
