package calls

import (
	"context"
	"strconv"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github/chapool/go-txrelay/internal/transactions"
)

const (
	defaultCallTTL = 30 * time.Minute

	domainType    = "EIP712Domain"
	nonceField    = "nonce"
	deadlineField = "deadline"
)

var ErrNoNonce = errors.New("no nonce available for protocol call")

type Gateway[T transactions.Request] struct {
	domain   Domain
	encoder  Encoder[T]
	fallback NonceFunc[T]
	ttl      time.Duration
	clock    time2.Clock
}

type Option[T transactions.Request] func(*Gateway[T])

// WithFallbackNonce is consulted only when CallOptions carries no nonce.
func WithFallbackNonce[T transactions.Request](fn NonceFunc[T]) Option[T] {
	return func(g *Gateway[T]) {
		g.fallback = fn
	}
}

// WithCallTTL sets how long a signed call stays valid.
func WithCallTTL[T transactions.Request](ttl time.Duration) Option[T] {
	return func(g *Gateway[T]) {
		g.ttl = ttl
	}
}

// WithClock is used to compute call deadlines. A nil clock keeps the default.
func WithClock[T transactions.Request](clock time2.Clock) Option[T] {
	return func(g *Gateway[T]) {
		if clock != nil {
			g.clock = clock
		}
	}
}

func NewGateway[T transactions.Request](domain Domain, encoder Encoder[T], opts ...Option[T]) *Gateway[T] {
	g := &Gateway[T]{
		domain:  domain,
		encoder: encoder,
		ttl:     defaultCallTTL,
		clock:   time2.DefaultClock,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

func (g *Gateway[T]) CreateUnsignedProtocolCall(ctx context.Context, request T, opts transactions.CallOptions) (*transactions.UnsignedProtocolCall[T], error) {
	nonce, err := g.resolveNonce(ctx, request, opts)
	if err != nil {
		return nil, err
	}

	msg, err := g.encoder.Encode(request)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s request", request.Kind())
	}
	if msg.PrimaryType == "" {
		return nil, errors.Errorf("encoder returned no primary type for %s request", request.Kind())
	}

	deadline := g.clock.Now().Add(g.ttl).UTC().Truncate(time.Second)

	typedData := apitypes.TypedData{
		Types:       g.types(msg),
		PrimaryType: msg.PrimaryType,
		Domain:      g.typedDomain(),
		Message:     g.message(msg, nonce, deadline),
	}

	if _, _, err := apitypes.TypedDataAndHash(typedData); err != nil {
		return nil, errors.Wrap(err, "invalid typed data for protocol call")
	}

	return &transactions.UnsignedProtocolCall[T]{
		ID:        uuid.New(),
		Request:   request,
		Nonce:     nonce,
		Deadline:  deadline,
		TypedData: typedData,
	}, nil
}

func (g *Gateway[T]) resolveNonce(ctx context.Context, request T, opts transactions.CallOptions) (transactions.Nonce, error) {
	if opts.Nonce != nil {
		return *opts.Nonce, nil
	}

	if g.fallback == nil {
		return 0, ErrNoNonce
	}

	nonce, err := g.fallback(ctx, request)
	if err != nil {
		return 0, errors.Wrap(err, "failed to compute fallback nonce")
	}

	return nonce, nil
}

func (g *Gateway[T]) typedDomain() apitypes.TypedDataDomain {
	domain := apitypes.TypedDataDomain{
		Name:    g.domain.Name,
		Version: g.domain.Version,
	}
	if g.domain.ChainID != 0 {
		domain.ChainId = math.NewHexOrDecimal256(g.domain.ChainID)
	}
	if g.domain.VerifyingContract != (common.Address{}) {
		domain.VerifyingContract = g.domain.VerifyingContract.Hex()
	}

	return domain
}

// domainFields lists only the domain values that are set; encoding fails on
// declared fields without a value.
func (g *Gateway[T]) domainFields() []apitypes.Type {
	var fields []apitypes.Type
	if g.domain.Name != "" {
		fields = append(fields, apitypes.Type{Name: "name", Type: "string"})
	}
	if g.domain.Version != "" {
		fields = append(fields, apitypes.Type{Name: "version", Type: "string"})
	}
	if g.domain.ChainID != 0 {
		fields = append(fields, apitypes.Type{Name: "chainId", Type: "uint256"})
	}
	if g.domain.VerifyingContract != (common.Address{}) {
		fields = append(fields, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}

	return fields
}

func (g *Gateway[T]) types(msg Message) apitypes.Types {
	res := make(apitypes.Types, len(msg.Types)+1)
	for name, fields := range msg.Types {
		res[name] = append([]apitypes.Type(nil), fields...)
	}
	res[domainType] = g.domainFields()

	primary := res[msg.PrimaryType]
	for _, extra := range []string{nonceField, deadlineField} {
		if !hasField(primary, extra) {
			primary = append(primary, apitypes.Type{Name: extra, Type: "uint256"})
		}
	}
	res[msg.PrimaryType] = primary

	return res
}

func (g *Gateway[T]) message(msg Message, nonce transactions.Nonce, deadline time.Time) apitypes.TypedDataMessage {
	res := make(apitypes.TypedDataMessage, len(msg.Data)+2)
	for k, v := range msg.Data {
		res[k] = v
	}

	res[nonceField] = strconv.FormatUint(uint64(nonce), 10)
	res[deadlineField] = strconv.FormatInt(deadline.Unix(), 10)

	return res
}

func hasField(fields []apitypes.Type, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}

	return false
}
