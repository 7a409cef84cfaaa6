// Package backend defines the storage abstraction wrapped by a tiercache
// tier (spec §4.6, C6).
//
// Implementations MUST be byte-for-byte transparent: Get must return
// exactly the same []byte previously passed to Set/Add for a key. No
// prepended/appended metadata, no re-encoding, no mutation. If a store
// performs internal transforms (e.g. compression) they MUST be fully
// reversed before the bytes are returned from Get.
package backend

import (
	"context"
	"time"
)

// Backend is a minimal byte store with TTL and test-and-set semantics.
// Must be safe for concurrent use.
type Backend interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// An I/O or remote error is returned as (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (ttl<=0 means "no expiry",
	// subject to the backend's own eviction policy). Returns ok=false
	// when the store rejected the write (e.g. under memory pressure).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Add stores value only if key is currently absent. Returns ok=false
	// if the key already existed (no overwrite performed) or the write
	// was otherwise rejected.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Delete removes a key. Returns ok=true if the key existed and was
	// removed, or if its absence already satisfies the caller's intent
	// (per spec §4.4, "treated as a successful operation regardless of
	// prior presence" — implementations are free to always return true
	// absent an error).
	Delete(ctx context.Context, key string) (ok bool, err error)

	// Flush clears every key owned by this backend instance.
	Flush(ctx context.Context) (ok bool, err error)

	// Close releases resources.
	Close(ctx context.Context) error
}
