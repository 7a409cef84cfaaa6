package ristretto

import "sync"

// keyTracker maintains the set of live keys so Flush can clear a cache
// library (ristretto) that has no native clear-all operation.
type keyTracker struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newKeyTracker() keyTracker {
	return keyTracker{keys: make(map[string]struct{})}
}

func (t *keyTracker) add(k string) {
	t.mu.Lock()
	t.keys[k] = struct{}{}
	t.mu.Unlock()
}

func (t *keyTracker) remove(k string) {
	t.mu.Lock()
	delete(t.keys, k)
	t.mu.Unlock()
}

func (t *keyTracker) clear() {
	t.mu.Lock()
	t.keys = make(map[string]struct{})
	t.mu.Unlock()
}

func (t *keyTracker) snapshot() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.keys))
	for k := range t.keys {
		out = append(out, k)
	}
	return out
}
