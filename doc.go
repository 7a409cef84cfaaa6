// Package tiercache implements a tiered, provider-agnostic cache façade.
//
// A Cache[V] wraps an ordered stack of heterogeneous backends (fast
// in-process tiers, shared network tiers, durable tiers) and presents them
// as a single key/value cache. Each tier is guarded by an independent
// circuit breaker so that a failing tier is skipped rather than slowing
// down or failing the whole cascade.
//
// Components:
//   - breaker.Breaker: sliding-window circuit breaker, one per tier.
//   - backend.Backend: byte store with TTL (e.g. Ristretto, BigCache, Redis).
//   - WrappedValue: envelope carrying absolute expiry and optional
//     dependency metadata, framed onto the wire via internal/wire.
//   - Dependency / DependencyMetadata: serializable snapshot of a
//     tag-style invalidation dependency (see package tag).
//
// Reads cascade from the highest-priority tier down; a hit below the top
// tier can optionally back-fill the healthy tiers above it. Writes either
// fan out to every tier (write-through) or stop at the first tier that
// accepts the write (write-first). A backend failure never fails a Get:
// the failing tier is skipped. Writes, deletes and flushes report success
// if any tier succeeded, and return per-tier failures alongside that
// result as an informational *FanOutError. Callers see a possibly
// degraded but always answering cache.
package tiercache
