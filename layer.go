package tiercache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/tiercache/backend"
	"github.com/unkn0wn-root/tiercache/breaker"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/internal/clock"
	"github.com/unkn0wn-root/tiercache/internal/wire"
)

// guardedLayer pairs one tier's backend with its own breaker and frames
// WrappedValue envelopes onto/off of the wire (spec §4.1, §4.6).
type guardedLayer[V any] struct {
	index   int
	name    string
	backend backend.Backend
	breaker *breaker.Breaker
	codec   codec.Codec[V]
	ttl     time.Duration
	strict  bool
	clock   clock.Clock
	log     Logger
	hooks   Hooks
}

// guardedGet reads a key through the breaker guard and unframes it.
//
// Results:
//   - (zero, false, nil): clean miss, or breaker open (caller
//     treats identically to a miss and cascades on).
//   - (wrapped value, true, nil): hit; its Dependency is non-nil when the
//     entry was written with one.
//   - expired entries are reported as a miss, not an error.
func (l *guardedLayer[V]) guardedGet(ctx context.Context, key string) (wv WrappedValue[V], hit bool, err error) {
	defer func() { l.hooks.LayerOutcome(l.index, hit) }()

	if !l.breaker.AllowsRequest() {
		return WrappedValue[V]{}, false, nil
	}

	raw, ok, err := l.backend.Get(ctx, key)
	if err != nil {
		l.breaker.RecordFailure()
		l.hooks.LayerError(l.index, "get", err)
		l.log.Warn("tiercache: layer get failed", Fields{"layer": l.index, "name": l.name, "err": err})
		return WrappedValue[V]{}, false, nil
	}
	if !ok {
		l.breaker.RecordSuccess()
		return WrappedValue[V]{}, false, nil
	}

	wv, wasEnvelope, err := l.unwrap(raw)
	if err != nil {
		l.breaker.RecordFailure()
		l.hooks.LayerError(l.index, "get", err)
		return WrappedValue[V]{}, false, nil
	}
	if !wasEnvelope {
		if l.strict {
			// strictMode=true: a legacy raw value is a recorded breaker
			// failure, not a silent auto-wrap (spec §9).
			l.breaker.RecordFailure()
			l.hooks.FormatMismatch(l.index, "strict_rejected")
			return WrappedValue[V]{}, false, nil
		}
		l.breaker.RecordSuccess()
		l.hooks.FormatMismatch(l.index, "auto_wrapped")
	} else {
		l.breaker.RecordSuccess()
	}

	if wv.Expired(l.clock.Now()) {
		return WrappedValue[V]{}, false, nil
	}
	return wv, true, nil
}

// guardedSet clamps ttl to this layer's ceiling, wraps value+dep against
// that clamped ttl (so the envelope's own ExpiresAtUnix — what Expired
// checks on every subsequent read — agrees with the ttl actually handed
// to the backend), and writes through the breaker guard.
func (l *guardedLayer[V]) guardedSet(ctx context.Context, key string, value V, ttl time.Duration, dep *DependencyMetadata) (bool, error) {
	if !l.breaker.AllowsRequest() {
		return false, nil
	}
	effTTL := clampTTL(ttl, l.ttl)
	raw, err := l.wrap(wrapValue(l.clock.Now(), value, effTTL, dep))
	if err != nil {
		return false, err
	}
	ok, err := l.backend.Set(ctx, key, raw, effTTL)
	if err != nil {
		l.breaker.RecordFailure()
		l.hooks.LayerError(l.index, "set", err)
		return false, err
	}
	l.breaker.RecordSuccess()
	return ok, nil
}

func (l *guardedLayer[V]) guardedAdd(ctx context.Context, key string, value V, ttl time.Duration, dep *DependencyMetadata) (bool, error) {
	if !l.breaker.AllowsRequest() {
		return false, nil
	}
	effTTL := clampTTL(ttl, l.ttl)
	raw, err := l.wrap(wrapValue(l.clock.Now(), value, effTTL, dep))
	if err != nil {
		return false, err
	}
	ok, err := l.backend.Add(ctx, key, raw, effTTL)
	if err != nil {
		l.breaker.RecordFailure()
		l.hooks.LayerError(l.index, "add", err)
		return false, err
	}
	l.breaker.RecordSuccess()
	return ok, nil
}

func (l *guardedLayer[V]) guardedDelete(ctx context.Context, key string) (bool, error) {
	if !l.breaker.AllowsRequest() {
		return false, nil
	}
	ok, err := l.backend.Delete(ctx, key)
	if err != nil {
		l.breaker.RecordFailure()
		l.hooks.LayerError(l.index, "delete", err)
		return false, err
	}
	l.breaker.RecordSuccess()
	return ok, nil
}

func (l *guardedLayer[V]) guardedFlush(ctx context.Context) (bool, error) {
	if !l.breaker.AllowsRequest() {
		return false, nil
	}
	ok, err := l.backend.Flush(ctx)
	if err != nil {
		l.breaker.RecordFailure()
		l.hooks.LayerError(l.index, "flush", err)
		return false, err
	}
	l.breaker.RecordSuccess()
	return ok, nil
}

func (l *guardedLayer[V]) wrap(wv WrappedValue[V]) ([]byte, error) {
	payload, err := l.codec.Encode(wv.Value)
	if err != nil {
		return nil, err
	}
	var depBytes []byte
	if wv.Dependency != nil {
		depBytes = encodeDependencyMetadata(*wv.Dependency)
	}
	return wire.Encode(wire.Envelope{
		ExpiresAtUnix: wv.ExpiresAtUnix,
		DepBytes:      depBytes,
		Payload:       payload,
	}), nil
}

// unwrap decodes raw bytes into a WrappedValue. If raw isn't our framing,
// it's treated as a legacy raw value (spec §9): decode it directly as V
// with no expiry and no dependency, reporting wasEnvelope=false.
func (l *guardedLayer[V]) unwrap(raw []byte) (wv WrappedValue[V], wasEnvelope bool, err error) {
	if !wire.LooksFramed(raw) {
		v, decErr := l.codec.Decode(raw)
		if decErr != nil {
			return WrappedValue[V]{}, false, decErr
		}
		return WrappedValue[V]{Value: v}, false, nil
	}

	env, decErr := wire.Decode(raw)
	if decErr != nil {
		v, rawErr := l.codec.Decode(raw)
		if rawErr != nil {
			return WrappedValue[V]{}, false, decErr
		}
		return WrappedValue[V]{Value: v}, false, nil
	}

	v, decErr := l.codec.Decode(env.Payload)
	if decErr != nil {
		return WrappedValue[V]{}, false, decErr
	}

	var dep *DependencyMetadata
	if len(env.DepBytes) > 0 {
		d, decErr := decodeDependencyMetadata(env.DepBytes)
		if decErr != nil {
			return WrappedValue[V]{}, false, decErr
		}
		dep = &d
	}

	return WrappedValue[V]{Value: v, ExpiresAtUnix: env.ExpiresAtUnix, Dependency: dep}, true, nil
}
