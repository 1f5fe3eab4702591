package transactions_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-txrelay/internal/storage"
	"github/chapool/go-txrelay/internal/transactions"
)

type failingStore struct{}

func (failingStore) Set(context.Context, []*transactions.Transaction[transferRequest]) error {
	return errors.New("redis: connection pool timeout")
}

func (failingStore) Get(context.Context) ([]*transactions.Transaction[transferRequest], bool, error) {
	return nil, false, errors.New("redis: connection pool timeout")
}

func (failingStore) Reset(context.Context) error {
	return nil
}

func metaTx(from common.Address, nonce transactions.Nonce) *transactions.Transaction[transferRequest] {
	return &transactions.Transaction[transferRequest]{
		ID:          uuid.New(),
		Kind:        transactions.KindMeta,
		ChainID:     1337,
		From:        from,
		Nonce:       nonce,
		Request:     transferRequest{To: "0x01", Amount: "1"},
		SubmittedAt: time.Now().UTC(),
	}
}

func TestQueuePushKeepsInsertionOrder(t *testing.T) {
	queue := transactions.NewQueue[transferRequest](nil)

	first := metaTx(walletAddress, 1)
	second := metaTx(walletAddress, 0)
	third := metaTx(walletAddress, 2)
	queue.Push(first)
	queue.Push(second)
	queue.Push(third)

	assert.Equal(t, []*transactions.Transaction[transferRequest]{first, second, third}, queue.Snapshot())
	assert.Equal(t, 3, queue.Len())

	removed, ok := queue.Remove(second.ID)
	require.True(t, ok)
	assert.Same(t, second, removed)
	assert.Equal(t, []*transactions.Transaction[transferRequest]{first, third}, queue.Snapshot())

	_, ok = queue.Remove(second.ID)
	assert.False(t, ok)

	got, ok := queue.Get(third.ID)
	require.True(t, ok)
	assert.Same(t, third, got)
}

func TestQueueConcurrentPush(t *testing.T) {
	queue := transactions.NewQueue[transferRequest](storage.NewMemory[[]*transactions.Transaction[transferRequest]]())

	const workers = 50

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			queue.Push(metaTx(walletAddress, transactions.Nonce(n)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, workers, queue.Len())

	seen := make(map[transactions.Nonce]bool)
	for _, tx := range queue.Snapshot() {
		seen[tx.Nonce] = true
	}
	assert.Len(t, seen, workers)
}

func TestQueuePersistFailureDoesNotFailPush(t *testing.T) {
	var failures atomic.Int32
	queue := transactions.NewQueue[transferRequest](failingStore{}, transactions.WithPersistErrorHandler(func(error) {
		failures.Add(1)
	}))

	tx := metaTx(walletAddress, 0)
	queue.Push(tx)

	assert.Equal(t, 1, queue.Len())
	assert.Equal(t, int32(1), failures.Load())

	_, err := queue.Restore(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, queue.Len())
}

func TestQueueRestore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory[[]*transactions.Transaction[transferRequest]]()

	original := transactions.NewQueue[transferRequest](store)
	first := metaTx(walletAddress, 4)
	second := metaTx(walletAddress, 5)
	original.Push(first)
	original.Push(second)

	restored := transactions.NewQueue[transferRequest](store)
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, original.Snapshot(), restored.Snapshot())

	empty := transactions.NewQueue[transferRequest](storage.NewMemory[[]*transactions.Transaction[transferRequest]]())
	n, err = empty.Restore(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestQueueSubscribe(t *testing.T) {
	queue := transactions.NewQueue[transferRequest](nil)

	var events []transactions.QueueEvent[transferRequest]
	sub := queue.Subscribe(func(event transactions.QueueEvent[transferRequest]) {
		events = append(events, event)
	})

	tx := metaTx(walletAddress, 1)
	queue.Push(tx)
	queue.Remove(tx.ID)

	require.Len(t, events, 2)
	assert.Equal(t, transactions.QueueEventPushed, events[0].Type)
	assert.Equal(t, 1, events[0].Len)
	assert.Equal(t, transactions.QueueEventRemoved, events[1].Type)
	assert.Equal(t, 0, events[1].Len)

	sub.Unsubscribe()
	sub.Unsubscribe()
	queue.Push(metaTx(walletAddress, 2))
	assert.Len(t, events, 2)
}

func TestQueueSummaries(t *testing.T) {
	queue := transactions.NewQueue[transferRequest](nil)
	tx := metaTx(walletAddress, 8)
	tx.RelayID = "relay-8"
	queue.Push(tx)

	summaries := queue.Summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, tx.ID.String(), summaries[0].ID)
	assert.Equal(t, transactions.RequestKind("transfer"), summaries[0].RequestKind)
	assert.Equal(t, walletAddress.Hex(), summaries[0].From)
	assert.Equal(t, uint64(8), summaries[0].Nonce)
	assert.Empty(t, summaries[0].Hash)

	tx.Hash = common.HexToHash("0x01")
	assert.True(t, queue.Update(tx))
	summary, ok := queue.SummaryByID(tx.ID)
	require.True(t, ok)
	assert.Equal(t, tx.Hash.Hex(), summary.Hash)

	_, ok = queue.SummaryByID(uuid.New())
	assert.False(t, ok)
}

func TestQueueHasNonce(t *testing.T) {
	queue := transactions.NewQueue[transferRequest](nil)

	queue.Push(metaTx(walletAddress, 3))
	queue.Push(metaTx(walletAddress, 5))

	assert.True(t, queue.HasNonce(transactions.KindMeta, walletAddress, 3))
	assert.False(t, queue.HasNonce(transactions.KindMeta, walletAddress, 4))
	assert.False(t, queue.HasNonce(transactions.KindNative, walletAddress, 3))
	assert.False(t, queue.HasNonce(transactions.KindMeta, common.HexToAddress("0xbb"), 3))

	native := metaTx(walletAddress, 40)
	native.Kind = transactions.KindNative
	queue.Push(native)
	assert.True(t, queue.HasNonce(transactions.KindNative, walletAddress, 40))
}

// blockingStore holds every Set until release is closed and records what was written.
type blockingStore struct {
	entered chan struct{}
	release chan struct{}

	mu      sync.Mutex
	written [][]*transactions.Transaction[transferRequest]
}

func (s *blockingStore) Set(_ context.Context, data []*transactions.Transaction[transferRequest]) error {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release

	s.mu.Lock()
	s.written = append(s.written, data)
	s.mu.Unlock()

	return nil
}

func (s *blockingStore) Get(context.Context) ([]*transactions.Transaction[transferRequest], bool, error) {
	return nil, false, nil
}

func (s *blockingStore) Reset(context.Context) error {
	return nil
}

func (s *blockingStore) last() []*transactions.Transaction[transferRequest] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.written) == 0 {
		return nil
	}

	return s.written[len(s.written)-1]
}

func TestQueueReadsDoNotWaitForStore(t *testing.T) {
	store := &blockingStore{entered: make(chan struct{}, 1), release: make(chan struct{})}
	queue := transactions.NewQueue[transferRequest](store)

	pushed := make(chan struct{})
	go func() {
		queue.Push(metaTx(walletAddress, 4))
		close(pushed)
	}()

	select {
	case <-store.entered:
	case <-time.After(time.Second):
		t.Fatal("store was never written")
	}

	// the write is still blocked, reads must not be
	read := make(chan bool, 1)
	go func() {
		read <- queue.HasNonce(transactions.KindMeta, walletAddress, 4)
	}()

	select {
	case found := <-read:
		assert.True(t, found)
	case <-time.After(time.Second):
		t.Fatal("HasNonce blocked on a pending store write")
	}

	close(store.release)
	<-pushed

	require.Len(t, store.last(), 1)
}

func TestQueuePersistsLatestSnapshot(t *testing.T) {
	store := &blockingStore{entered: make(chan struct{}, 1), release: make(chan struct{})}
	close(store.release)
	queue := transactions.NewQueue[transferRequest](store)

	const workers = 20

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			queue.Push(metaTx(walletAddress, transactions.Nonce(n)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.last(), workers)
}
