package transactions

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-txrelay/internal/storage"
)

const defaultPersistTimeout = 5 * time.Second

type QueueEventType string

const (
	QueueEventPushed  QueueEventType = "pushed"
	QueueEventRemoved QueueEventType = "removed"
)

type QueueEvent[T Request] struct {
	Type        QueueEventType
	Transaction *Transaction[T]
	Len         int
}

type queueOptions struct {
	persistTimeout time.Duration
	onPersistError func(err error)
}

type QueueOption func(*queueOptions)

// WithPersistTimeout bounds every write to the backing store.
func WithPersistTimeout(timeout time.Duration) QueueOption {
	return func(o *queueOptions) {
		o.persistTimeout = timeout
	}
}

// WithPersistErrorHandler is called whenever the backing store rejects a write.
func WithPersistErrorHandler(fn func(err error)) QueueOption {
	return func(o *queueOptions) {
		o.onPersistError = fn
	}
}

// Queue holds submitted transactions that have not been observed settled,
// oldest first. It is safe for concurrent use.
type Queue[T Request] struct {
	mu    sync.RWMutex
	items []*Transaction[T]
	store storage.Storage[[]*Transaction[T]]
	opts  queueOptions
	seq   uint64

	// persistMu orders store writes; persisted is the seq of the last write.
	persistMu sync.Mutex
	persisted uint64

	subsMu  sync.RWMutex
	subs    map[uint64]func(QueueEvent[T])
	nextSub uint64
}

// NewQueue returns an empty queue. store may be nil for a purely in-memory queue.
func NewQueue[T Request](store storage.Storage[[]*Transaction[T]], opts ...QueueOption) *Queue[T] {
	o := queueOptions{
		persistTimeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Queue[T]{
		store: store,
		opts:  o,
		subs:  make(map[uint64]func(QueueEvent[T])),
	}
}

// Restore replaces the in-memory entries with the persisted snapshot, if any.
func (q *Queue[T]) Restore(ctx context.Context) (int, error) {
	if q.store == nil {
		return 0, nil
	}

	items, found, err := q.store.Get(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load transaction queue")
	}
	if !found {
		return 0, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = make([]*Transaction[T], 0, len(items))
	for _, item := range items {
		if item != nil {
			q.items = append(q.items, item)
		}
	}

	return len(q.items), nil
}

func (q *Queue[T]) Push(tx *Transaction[T]) {
	q.mu.Lock()
	q.items = append(q.items, tx)
	n := len(q.items)
	seq, snapshot := q.snapshotLocked()
	q.mu.Unlock()

	q.persist(seq, snapshot)
	q.notify(QueueEvent[T]{Type: QueueEventPushed, Transaction: tx, Len: n})
}

func (q *Queue[T]) Remove(id uuid.UUID) (*Transaction[T], bool) {
	q.mu.Lock()

	var removed *Transaction[T]
	for i, item := range q.items {
		if item.ID == id {
			removed = item
			q.items = append(q.items[:i], q.items[i+1:]...)
			break
		}
	}

	if removed == nil {
		q.mu.Unlock()
		return nil, false
	}

	n := len(q.items)
	seq, snapshot := q.snapshotLocked()
	q.mu.Unlock()

	q.persist(seq, snapshot)
	q.notify(QueueEvent[T]{Type: QueueEventRemoved, Transaction: removed, Len: n})

	return removed, true
}

// Update replaces the entry with the same ID, e.g. once the relay reports a hash.
func (q *Queue[T]) Update(tx *Transaction[T]) bool {
	q.mu.Lock()

	for i, item := range q.items {
		if item.ID == tx.ID {
			q.items[i] = tx
			seq, snapshot := q.snapshotLocked()
			q.mu.Unlock()

			q.persist(seq, snapshot)
			return true
		}
	}

	q.mu.Unlock()

	return false
}

func (q *Queue[T]) Get(id uuid.UUID) (*Transaction[T], bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, item := range q.items {
		if item.ID == id {
			return item, true
		}
	}

	return nil, false
}

// Snapshot returns the entries oldest first. The slice is a copy.
func (q *Queue[T]) Snapshot() []*Transaction[T] {
	q.mu.RLock()
	defer q.mu.RUnlock()

	res := make([]*Transaction[T], len(q.items))
	copy(res, q.items)

	return res
}

func (q *Queue[T]) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return len(q.items)
}

// HasNonce reports whether nonce is queued for from on the given path.
func (q *Queue[T]) HasNonce(kind TransactionKind, from common.Address, nonce Nonce) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, item := range q.items {
		if item.Kind == kind && item.From == from && item.Nonce == nonce {
			return true
		}
	}

	return false
}

func (q *Queue[T]) Summaries() []Summary {
	q.mu.RLock()
	defer q.mu.RUnlock()

	res := make([]Summary, 0, len(q.items))
	for _, item := range q.items {
		res = append(res, item.Summary())
	}

	return res
}

func (q *Queue[T]) SummaryByID(id uuid.UUID) (Summary, bool) {
	tx, ok := q.Get(id)
	if !ok {
		return Summary{}, false
	}

	return tx.Summary(), true
}

// Subscription is returned by Subscribe. Unsubscribe may be called more than once.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Subscribe registers fn for every push and removal. fn is called outside the
// queue lock, from the goroutine that changed the queue.
func (q *Queue[T]) Subscribe(fn func(QueueEvent[T])) *Subscription {
	q.subsMu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	q.subsMu.Unlock()

	return &Subscription{
		cancel: func() {
			q.subsMu.Lock()
			delete(q.subs, id)
			q.subsMu.Unlock()
		},
	}
}

func (q *Queue[T]) notify(event QueueEvent[T]) {
	q.subsMu.RLock()
	fns := make([]func(QueueEvent[T]), 0, len(q.subs))
	for _, fn := range q.subs {
		fns = append(fns, fn)
	}
	q.subsMu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
}

// snapshotLocked copies the entries and numbers the copy. q.mu must be held.
func (q *Queue[T]) snapshotLocked() (uint64, []*Transaction[T]) {
	q.seq++

	snapshot := make([]*Transaction[T], len(q.items))
	copy(snapshot, q.items)

	return q.seq, snapshot
}

// persist writes snapshot to the store unless a newer snapshot was written
// already. It runs without q.mu so readers are not blocked by the store.
// Failures are logged and reported to the persist error handler only.
func (q *Queue[T]) persist(seq uint64, snapshot []*Transaction[T]) {
	if q.store == nil {
		return
	}

	q.persistMu.Lock()
	defer q.persistMu.Unlock()

	if seq <= q.persisted {
		return
	}
	q.persisted = seq

	ctx, cancel := context.WithTimeout(context.Background(), q.opts.persistTimeout)
	defer cancel()

	if err := q.store.Set(ctx, snapshot); err != nil {
		log.Error().Err(err).Int("len", len(snapshot)).Msg("Failed to persist transaction queue")

		if q.opts.onPersistError != nil {
			q.opts.onPersistError(err)
		}
	}
}
