package tiercache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
	c "github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/breaker"
)

// WriteStrategy selects how a write is propagated across layers.
type WriteStrategy int

const (
	// WriteThrough attempts every layer and succeeds if any accepted the
	// write. This is the default (spec §6 table).
	WriteThrough WriteStrategy = iota
	// WriteFirst stops at the first layer that accepts the write.
	WriteFirst
)

// RecoveryStrategy selects whether a deep-tier hit back-fills healthier
// higher tiers.
type RecoveryStrategy int

const (
	// RecoveryNatural performs no back-fill; higher tiers repopulate only
	// as new writes land. This is the default per spec §9's open
	// question (b): the source's code behavior, not its docs, is
	// authoritative.
	RecoveryNatural RecoveryStrategy = iota
	// RecoveryPopulate back-fills every healthy (CLOSED) layer above the
	// hit layer with the value and its remaining TTL.
	RecoveryPopulate
)

// LayerOptions configures one tier in priority order (index 0 = highest
// priority, queried first).
type LayerOptions struct {
	// Backend is the tier's byte store. Required.
	Backend backend.Backend
	// Name identifies the backend for LayerStatus/logging (e.g. "ristretto", "redis").
	Name string
	// TTL is this tier's TTL ceiling; 0 means no ceiling (use the
	// requested TTL as-is).
	TTL time.Duration
	// Breaker overrides this tier's circuit breaker config. If it is the
	// zero value, Options.DefaultBreaker is used instead; zero fields of
	// whichever config is used fall back to breaker.Config's own defaults.
	Breaker breaker.Config
}

// Options configures a Cache. Layers is the only required field.
type Options[V any] struct {
	// Layers is the ordered, non-empty priority list of tiers. Required.
	Layers []LayerOptions

	// Codec (de)serializes the caller's V to bytes for framing onto the
	// wire. Required.
	Codec c.Codec[V]

	// DependencyRegistry resolves a DependencyMetadata.ClassName back to
	// a constructor on read. Required only if any write uses
	// SetWithDependency/AddWithDependency.
	DependencyRegistry *Registry

	WriteStrategy    WriteStrategy
	RecoveryStrategy RecoveryStrategy

	// StrictMode rejects (and counts as a breaker failure) payloads that
	// are not framed WrappedValue envelopes, instead of auto-wrapping
	// them as legacy raw values. Default false.
	StrictMode bool

	// DefaultBreaker is applied to any layer whose own Breaker field is
	// the zero value.
	DefaultBreaker breaker.Config

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used

	// Disabled turns the façade into an always-miss, no-op pass-through
	// without needing to rewire callers — an emergency cache bypass.
	Disabled bool

	// Clock is injectable for tests; defaults to the real wall clock.
	Clock interface{ Now() time.Time }
}

// LayerStatus is a point-in-time admin snapshot of one tier (spec §4.5.5).
type LayerStatus struct {
	Index         int
	BackendClass  string
	BreakerClass  string
	BreakerState  string
	BreakerStats  breaker.Stats
}

// Cache is the tiered cache façade's public surface (spec §6).
type Cache[V any] interface {
	// Get cascades through layers in priority order and returns the
	// first non-expired, non-stale hit.
	Get(ctx context.Context, key string) (V, bool, error)

	// Set writes value with no dependency.
	Set(ctx context.Context, key string, value V, ttl time.Duration) (bool, error)
	// SetWithDependency writes value with a tag-style dependency snapshot.
	SetWithDependency(ctx context.Context, key string, value V, ttl time.Duration, dep Dependency) (bool, error)
	// Add writes value only if key is currently absent in the layer(s) it reaches.
	Add(ctx context.Context, key string, value V, ttl time.Duration) (bool, error)
	// AddWithDependency is Add plus a dependency snapshot.
	AddWithDependency(ctx context.Context, key string, value V, ttl time.Duration, dep Dependency) (bool, error)

	// Delete fans out to every layer; true if any layer succeeded.
	Delete(ctx context.Context, key string) (bool, error)
	// Flush fans out to every layer; true if any layer succeeded.
	Flush(ctx context.Context) (bool, error)

	// LayerStatus returns an admin snapshot of every tier.
	LayerStatus() []LayerStatus
	// ForceLayerOpen/ForceLayerClose manipulate one tier's breaker.
	// Out-of-range indices are a no-op.
	ForceLayerOpen(i int)
	ForceLayerClose(i int)
	// ResetCircuitBreakers resets every tier's breaker to empty/CLOSED.
	ResetCircuitBreakers()

	// Close releases every layer's backend.
	Close(ctx context.Context) error
}

// New constructs a Cache from Options. Construction fails fast on
// configuration errors (spec §7): an empty layer list or a missing codec.
func New[V any](opts Options[V]) (Cache[V], error) {
	return newCoordinator[V](opts)
}
