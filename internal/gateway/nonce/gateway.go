package nonce

import (
	"context"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/transactions"
)

const defaultReservationTTL = 10 * time.Minute

// Gateway allocates nonces in-process. Allocation for one address is
// serialised; different addresses do not block each other.
type Gateway struct {
	source  Source
	pending PendingTracker
	kind    transactions.TransactionKind
	ttl     time.Duration
	clock   time2.Clock

	mu       sync.Mutex
	accounts map[common.Address]*account
}

type account struct {
	mu       sync.Mutex
	reserved map[transactions.Nonce]time.Time
}

type Option func(*Gateway)

// WithPendingTracker makes the gateway skip nonces already queued for kind.
// Without a tracker only live reservations are skipped.
func WithPendingTracker(tracker PendingTracker, kind transactions.TransactionKind) Option {
	return func(g *Gateway) {
		g.pending = tracker
		g.kind = kind
	}
}

// WithReservationTTL sets how long a handed out nonce is held before it is
// considered abandoned and may be handed out again.
func WithReservationTTL(ttl time.Duration) Option {
	return func(g *Gateway) {
		g.ttl = ttl
	}
}

// WithClock drives reservation expiry. A nil clock keeps the default.
func WithClock(clock time2.Clock) Option {
	return func(g *Gateway) {
		if clock != nil {
			g.clock = clock
		}
	}
}

func NewGateway(source Source, opts ...Option) *Gateway {
	g := &Gateway{
		source:   source,
		kind:     transactions.KindMeta,
		ttl:      defaultReservationTTL,
		clock:    time2.DefaultClock,
		accounts: make(map[common.Address]*account),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// GetNonceFor returns the lowest nonce at or above the source nonce that is
// neither reserved nor queued, so nonces released by failed attempts are
// handed out again before the sequence grows.
func (g *Gateway) GetNonceFor(ctx context.Context, wallet transactions.Wallet) (transactions.Nonce, error) {
	address := wallet.Address()

	acc := g.account(address)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	confirmed, err := g.source.NonceAt(ctx, address)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get nonce for %s", address.Hex())
	}

	now := g.clock.Now()
	for n, at := range acc.reserved {
		if n < confirmed || now.Sub(at) > g.ttl {
			delete(acc.reserved, n)
		}
	}

	next := confirmed
	for g.taken(acc, address, next) {
		next++
	}

	acc.reserved[next] = now

	log.Debug().
		Str("address", address.Hex()).
		Uint64("source_nonce", uint64(confirmed)).
		Uint64("nonce", uint64(next)).
		Int("reserved", len(acc.reserved)).
		Msg("Allocated nonce")

	return next, nil
}

// ReleaseNonce frees a reservation that will not be used, e.g. after the user
// rejected the signing prompt. The nonce is handed out by the next call.
func (g *Gateway) ReleaseNonce(_ context.Context, address common.Address, n transactions.Nonce) error {
	acc := g.account(address)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	delete(acc.reserved, n)

	log.Debug().Str("address", address.Hex()).Uint64("nonce", uint64(n)).Msg("Released nonce")

	return nil
}

func (g *Gateway) taken(acc *account, address common.Address, n transactions.Nonce) bool {
	if _, ok := acc.reserved[n]; ok {
		return true
	}

	return g.pending != nil && g.pending.HasNonce(g.kind, address, n)
}

func (g *Gateway) account(address common.Address) *account {
	g.mu.Lock()
	defer g.mu.Unlock()

	acc, ok := g.accounts[address]
	if !ok {
		acc = &account{reserved: make(map[transactions.Nonce]time.Time)}
		g.accounts[address] = acc
	}

	return acc
}

// ChainSource reads the pending nonce from a node.
type ChainSource struct {
	reader PendingNonceReader
}

func NewChainSource(reader PendingNonceReader) *ChainSource {
	return &ChainSource{reader: reader}
}

func (s *ChainSource) NonceAt(ctx context.Context, address common.Address) (transactions.Nonce, error) {
	n, err := s.reader.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pending nonce")
	}

	return transactions.Nonce(n), nil
}
