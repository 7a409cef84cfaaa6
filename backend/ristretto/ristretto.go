// Package ristretto adapts github.com/dgraph-io/ristretto as a
// backend.Backend. Ristretto is cost-aware, making it a natural fit for a
// small, fast L1 tier.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/tiercache/backend"
)

// Backend wraps a Ristretto cache as a byte-oriented tier.
type Backend struct {
	c    *rc.Cache
	keys keyTracker
}

var _ backend.Backend = (*Backend)(nil)

// Config mirrors the subset of ristretto.Config tiercache needs; Cost is
// fixed at 1 per entry since the façade has no notion of byte-size cost.
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

// New constructs a Backend from Config.
func New(cfg Config) (*Backend, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Backend{c: c, keys: newKeyTracker()}, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	raw, _ := v.([]byte)
	if raw == nil {
		// self-heal: drop unexpected entry shape
		b.c.Del(key)
		b.keys.remove(key)
		return nil, false, nil
	}
	return raw, true, nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var ok bool
	if ttl > 0 {
		ok = b.c.SetWithTTL(key, value, 1, ttl)
	} else {
		ok = b.c.Set(key, value, 1)
	}
	if ok {
		b.keys.add(key)
	}
	return ok, nil
}

// Add emulates test-and-set: ristretto has no native NX primitive, so
// presence is checked first. This is not atomic against a concurrent
// writer (acceptable per spec §5's "no write quorums" non-goal).
func (b *Backend) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if _, ok, _ := b.Get(ctx, key); ok {
		return false, nil
	}
	return b.Set(ctx, key, value, ttl)
}

func (b *Backend) Delete(_ context.Context, key string) (bool, error) {
	b.c.Del(key)
	b.keys.remove(key)
	return true, nil
}

// Flush clears every key this Backend has written. Ristretto has no
// native clear-all, so the tracked key set (maintained on Set/Add) is
// walked and deleted.
func (b *Backend) Flush(ctx context.Context) (bool, error) {
	for _, k := range b.keys.snapshot() {
		b.c.Del(k)
	}
	b.keys.clear()
	return true, nil
}

func (b *Backend) Close(_ context.Context) error {
	b.c.Wait()
	b.c.Close()
	return nil
}

// Metrics exposes the underlying ristretto metrics, not part of backend.Backend.
func (b *Backend) Metrics() *rc.Metrics { return b.c.Metrics }
