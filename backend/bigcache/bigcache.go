// Package bigcache adapts github.com/allegro/bigcache/v3 as a
// backend.Backend. BigCache avoids Go GC pressure for larger in-process
// working sets, at the cost of a single global LifeWindow rather than
// per-entry TTL.
package bigcache

import (
	"context"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/tiercache/backend"
)

// Backend wraps a BigCache instance.
type Backend struct {
	c *bc.BigCache
}

var _ backend.Backend = (*Backend)(nil)

// Config mirrors the subset of bigcache.Config tiercache needs.
type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~memory limit; 0 = unlimited
}

// New constructs a Backend from Config.
func New(cfg Config) (*Backend, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &Backend{c: c}, nil
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, err := b.c.Get(key)
	if err == bc.ErrEntryNotFound {
		return nil, false, nil
	}
	return v, err == nil, err
}

func (b *Backend) Set(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	// BigCache has no per-entry TTL; every tier using this backend must
	// size its LifeWindow to cover the longest TTL it will ever receive.
	return true, b.c.Set(key, value)
}

func (b *Backend) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if _, ok, _ := b.Get(ctx, key); ok {
		return false, nil
	}
	return b.Set(ctx, key, value, ttl)
}

func (b *Backend) Delete(_ context.Context, key string) (bool, error) {
	if err := b.c.Delete(key); err != nil && err != bc.ErrEntryNotFound {
		return false, err
	}
	return true, nil
}

func (b *Backend) Flush(_ context.Context) (bool, error) {
	return true, b.c.Reset()
}

func (b *Backend) Close(_ context.Context) error {
	return b.c.Close()
}
