package api

import (
	"context"

	"github.com/dropbox/godropbox/time2"
	"github.com/go-redis/redis/v8"
	"github/chapool/go-txrelay/internal/chain"
	"github/chapool/go-txrelay/internal/config"
	"github/chapool/go-txrelay/internal/metrics"
	"github/chapool/go-txrelay/internal/relay"
	"github/chapool/go-txrelay/internal/storage"
	"github/chapool/go-txrelay/internal/transactions"
)

const (
	QueueMeta   = "meta"
	QueueNative = "native"
)

//nolint:ireturn
func NewClock() time2.Clock {
	return time2.DefaultClock
}

func NewMetrics() *metrics.Metrics {
	return metrics.New()
}

// NewRedisClient returns nil when the queue is kept in memory.
func NewRedisClient(cfg config.Server) (*redis.Client, error) {
	if cfg.Queue.Backend != config.BackendRedis {
		return nil, nil //nolint:nilnil // no redis configured
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Management.ReadinessTimeout)
	defer cancel()

	return storage.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
}

func NewMetaQueue(cfg config.Server, redisClient *redis.Client, m *metrics.Metrics) *MetaQueue {
	return NewQueue[MetaRequest](cfg, redisClient, m, QueueMeta)
}

func NewNativeQueue(cfg config.Server, redisClient *redis.Client, m *metrics.Metrics) *NativeQueue {
	return NewQueue[NativeRequest](cfg, redisClient, m, QueueNative)
}

// NewQueue builds a queue persisted to redis when redisClient is set and to memory otherwise.
func NewQueue[T transactions.Request](cfg config.Server, redisClient *redis.Client, m *metrics.Metrics, name string) *transactions.Queue[T] {
	var store storage.Storage[[]*transactions.Transaction[T]]
	if redisClient != nil {
		store = storage.NewRedis[[]*transactions.Transaction[T]](redisClient, cfg.Queue.KeyPrefix+":"+name, cfg.Queue.TTL)
	} else {
		store = storage.NewMemory[[]*transactions.Transaction[T]]()
	}

	queue := transactions.NewQueue[T](store,
		transactions.WithPersistTimeout(cfg.Queue.PersistTimeout),
		transactions.WithPersistErrorHandler(m.RecordPersistFailure),
	)
	queue.Subscribe(func(event transactions.QueueEvent[T]) {
		m.RecordQueueEvent(name, event.Type, event.Len)
	})

	return queue
}

func NewRelayClient(cfg config.Server) *relay.Client {
	return relay.NewClient(cfg.Relay.URL, cfg.Relay.Timeout)
}

func NewChainClient(cfg config.Server) (*chain.RPCClient, error) {
	return chain.NewRPCClient(cfg.Chain.RPCURLs, cfg.Chain.ID)
}
