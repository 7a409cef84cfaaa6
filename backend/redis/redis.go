// Package redis adapts github.com/redis/go-redis/v9 as a backend.Backend,
// for a shared network tier.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/tiercache/backend"
)

var ErrNilClient = errors.New("redis backend: nil client")

// Backend wraps a redis.UniversalClient.
type Backend struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ backend.Backend = (*Backend)(nil)

// Config configures a Backend.
type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this Backend exclusively owns the client
}

// New constructs a Backend from Config.
func New(cfg Config) (*Backend, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Backend{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := b.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0 // non-positive TTLs mean "no expiry" per the backend contract
	}
	if err := b.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Backend) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	ok, err := b.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (b *Backend) Delete(ctx context.Context, key string) (bool, error) {
	if err := b.rdb.Del(ctx, key).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Flush clears the entire logical database this client is connected to.
// Callers sharing a Redis database across multiple namespaces should give
// each tier its own database/keyspace to avoid collateral damage.
func (b *Backend) Flush(ctx context.Context) (bool, error) {
	if err := b.rdb.FlushDB(ctx).Err(); err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the underlying redis client only when this Backend owns
// it. Safe to call multiple times.
func (b *Backend) Close(context.Context) error {
	if b.closeClient {
		if err := b.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
