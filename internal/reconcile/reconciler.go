package reconcile

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/transactions"
)

const defaultInterval = 15 * time.Second

// Outcome is how a queue entry left the queue.
type Outcome string

const (
	OutcomeSettled Outcome = "settled"
	OutcomeFailed  Outcome = "failed"
)

// Queue is the subset of transactions.Queue the reconciler mutates.
type Queue[T transactions.Request] interface {
	Snapshot() []*transactions.Transaction[T]
	Update(tx *transactions.Transaction[T]) bool
	Remove(id uuid.UUID) (*transactions.Transaction[T], bool)
}

type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// HashResolver looks up the hash of a relayed call that was acknowledged without one.
type HashResolver interface {
	ResolveHash(ctx context.Context, relayID string) (common.Hash, bool, error)
}

type Option func(*options)

type options struct {
	interval  time.Duration
	resolver  HashResolver
	onSettled func(transactions.Summary, Outcome)
}

func WithInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.interval = interval
		}
	}
}

func WithHashResolver(resolver HashResolver) Option {
	return func(o *options) {
		o.resolver = resolver
	}
}

// WithSettledHandler is called for every entry removed from the queue.
func WithSettledHandler(fn func(transactions.Summary, Outcome)) Option {
	return func(o *options) {
		o.onSettled = fn
	}
}

// Stats counts what a single pass did.
type Stats struct {
	Checked  int
	Settled  int
	Failed   int
	Resolved int
	Pending  int
	Errors   int
}

// Reconciler removes queue entries once their receipt is on chain.
type Reconciler[T transactions.Request] struct {
	queue    Queue[T]
	receipts ReceiptReader
	opts     options
}

func NewReconciler[T transactions.Request](queue Queue[T], receipts ReceiptReader, opts ...Option) *Reconciler[T] {
	o := options{interval: defaultInterval}
	for _, opt := range opts {
		opt(&o)
	}

	return &Reconciler[T]{
		queue:    queue,
		receipts: receipts,
		opts:     o,
	}
}

// Run reconciles on every tick until ctx is done.
func (r *Reconciler[T]) Run(ctx context.Context) error {
	logger := log.With().Str("component", "reconciler").Logger()
	logger.Info().Dur("interval", r.opts.interval).Msg("Reconciler started")

	ticker := time.NewTicker(r.opts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Reconciler stopped")
			return nil
		case <-ticker.C:
			stats := r.ReconcileOnce(ctx)
			if stats.Checked > 0 {
				logger.Debug().
					Int("checked", stats.Checked).
					Int("settled", stats.Settled).
					Int("failed", stats.Failed).
					Int("pending", stats.Pending).
					Int("errors", stats.Errors).
					Msg("Reconciled queue")
			}
		}
	}
}

// ReconcileOnce walks the queue oldest-first. Lookup errors leave the entry
// in place for the next pass.
func (r *Reconciler[T]) ReconcileOnce(ctx context.Context) Stats {
	var stats Stats

	for _, tx := range r.queue.Snapshot() {
		if ctx.Err() != nil {
			break
		}
		stats.Checked++

		logger := log.With().
			Str("component", "reconciler").
			Str("id", tx.ID.String()).
			Str("kind", string(tx.Kind)).
			Logger()

		// 1. Resolve relay hash
		hash := tx.Hash
		if !tx.HasHash() {
			resolved, found, err := r.resolve(ctx, tx)
			if err != nil {
				logger.Warn().Err(err).Msg("Failed to resolve relayed transaction hash")
				stats.Errors++
				continue
			}
			if !found {
				stats.Pending++
				continue
			}
			hash = resolved
			stats.Resolved++
		}

		// 2. Fetch receipt
		receipt, err := r.receipts.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				stats.Pending++
				continue
			}
			logger.Warn().Err(err).Str("hash", hash.Hex()).Msg("Failed to get transaction receipt")
			stats.Errors++
			continue
		}

		// 3. Remove
		outcome := OutcomeSettled
		if receipt.Status != types.ReceiptStatusSuccessful {
			outcome = OutcomeFailed
		}

		removed, ok := r.queue.Remove(tx.ID)
		if !ok {
			continue
		}

		if outcome == OutcomeSettled {
			stats.Settled++
		} else {
			stats.Failed++
		}

		logger.Info().
			Str("hash", hash.Hex()).
			Str("outcome", string(outcome)).
			Stringer("block", receipt.BlockNumber).
			Msg("Transaction left the queue")

		if r.opts.onSettled != nil {
			r.opts.onSettled(removed.Summary(), outcome)
		}
	}

	return stats
}

func (r *Reconciler[T]) resolve(ctx context.Context, tx *transactions.Transaction[T]) (common.Hash, bool, error) {
	if r.opts.resolver == nil || tx.RelayID == "" {
		return common.Hash{}, false, nil
	}

	hash, found, err := r.opts.resolver.ResolveHash(ctx, tx.RelayID)
	if err != nil {
		return common.Hash{}, false, errors.Wrapf(err, "failed to resolve relay id %s", tx.RelayID)
	}
	if !found {
		return common.Hash{}, false, nil
	}

	updated := *tx
	updated.Hash = hash
	r.queue.Update(&updated)

	return hash, true, nil
}
