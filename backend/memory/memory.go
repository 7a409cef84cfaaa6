// Package memory implements the simplest possible backend.Backend: a
// mutex-guarded map, with no external dependency. Useful for tests and as
// the floor-level reference tier.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
)

type entry struct {
	value []byte
	exp   time.Time // zero => no TTL
}

// Backend is an in-process, byte-oriented store.
type Backend struct {
	mu sync.Mutex
	m  map[string]entry
}

var _ backend.Backend = (*Backend)(nil)

// New returns an empty Backend.
func New() *Backend {
	return &Backend{m: make(map[string]entry)}
}

func (b *Backend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && !time.Now().Before(e.exp) {
		delete(b.m, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (b *Backend) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m[key] = newEntry(value, ttl)
	return true, nil
}

func (b *Backend) Add(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.m[key]; ok && (e.exp.IsZero() || time.Now().Before(e.exp)) {
		return false, nil
	}
	b.m[key] = newEntry(value, ttl)
	return true, nil
}

func (b *Backend) Delete(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.m, key)
	return true, nil
}

func (b *Backend) Flush(_ context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = make(map[string]entry)
	return true, nil
}

func (b *Backend) Close(_ context.Context) error { return nil }

func newEntry(value []byte, ttl time.Duration) entry {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	return entry{value: value, exp: exp}
}
