package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Redis stores D as a JSON document under key.
type Redis[D any] struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedis returns a Redis storage. A zero ttl keeps the key forever.
func NewRedis[D any](client redis.Cmdable, key string, ttl time.Duration) *Redis[D] {
	return &Redis[D]{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (r *Redis[D]) Set(ctx context.Context, data D) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Wrapf(err, "failed to encode value for key %s", r.key)
	}

	if err := r.client.Set(ctx, r.key, payload, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to write key %s", r.key)
	}

	return nil
}

func (r *Redis[D]) Get(ctx context.Context) (D, bool, error) {
	var data D

	payload, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return data, false, nil
	}
	if err != nil {
		return data, false, errors.Wrapf(err, "failed to read key %s", r.key)
	}

	if err := json.Unmarshal(payload, &data); err != nil {
		return data, false, errors.Wrapf(err, "failed to decode value for key %s", r.key)
	}

	return data, true, nil
}

func (r *Redis[D]) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete key %s", r.key)
	}

	return nil
}

// NewRedisClient connects to addr and verifies the connection with a PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", addr)
	}

	log.Info().Str("addr", addr).Int("db", db).Msg("Connected to redis")

	return client, nil
}
