// Package tag implements tag-based dependency invalidation (spec §4.3,
// §9): each tag has a monotonic generation counter; a value written with
// a set of tags captures their generations, and a later read is stale if
// any of those generations have since moved.
//
// Store plays the same role here that a generation store plays for
// CAS-protected keys: instead of keying by cache key, it keys by tag
// name, and "invalidate" becomes "bump every generation in this tag".
package tag

import (
	"context"
	"time"
)

// Store abstracts where tag generations live. Use LocalStore (default)
// for in-process tags, or RedisStore for distributed tags shared across
// processes.
type Store interface {
	// Snapshot returns tag's current generation; an unseen tag is 0.
	Snapshot(ctx context.Context, tag string) (uint64, error)
	// SnapshotMany returns generations for many tags; unseen => 0.
	SnapshotMany(ctx context.Context, tags []string) (map[string]uint64, error)
	// Bump atomically increments and returns tag's new generation.
	Bump(ctx context.Context, tag string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(ctx context.Context) error
}
