package tiercache

import (
	"context"
	"fmt"
	"time"

	"github.com/unkn0wn-root/tiercache/breaker"
	"github.com/unkn0wn-root/tiercache/internal/clock"
)

// coordinator implements Cache[V] over an ordered stack of guardedLayers
// (spec §4, §6).
type coordinator[V any] struct {
	layers           []*guardedLayer[V]
	writeStrategy    WriteStrategy
	recoveryStrategy RecoveryStrategy
	registry         *Registry
	log              Logger
	hooks            Hooks
	disabled         bool
	clock            clock.Clock
}

func newCoordinator[V any](opts Options[V]) (*coordinator[V], error) {
	if len(opts.Layers) == 0 {
		return nil, ErrNoLayers
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("tiercache: codec is required")
	}
	for i, lo := range opts.Layers {
		if lo.Backend == nil {
			return nil, fmt.Errorf("tiercache: layer %d: backend is required", i)
		}
	}

	co := &coordinator[V]{
		writeStrategy:    opts.WriteStrategy,
		recoveryStrategy: opts.RecoveryStrategy,
		registry:         opts.DependencyRegistry,
		log:              coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:            coalesce[Hooks](opts.Hooks, NopHooks{}),
		disabled:         opts.Disabled,
		clock:            clock.Real{},
	}
	if opts.Clock != nil {
		if ck, ok := opts.Clock.(clock.Clock); ok {
			co.clock = ck
		}
	}

	co.layers = make([]*guardedLayer[V], len(opts.Layers))
	for i, lo := range opts.Layers {
		idx := i
		bcfg := lo.Breaker
		if bcfg.IsZero() {
			bcfg = opts.DefaultBreaker
		}
		bcfg.Clock = co.clock
		bcfg.OnStateChange = func(from, to breaker.State) {
			co.hooks.BreakerStateChanged(idx, from.String(), to.String())
			co.log.Info("tiercache: breaker state changed", Fields{
				"layer": idx, "from": from.String(), "to": to.String(),
			})
		}

		name := lo.Name
		if name == "" {
			name = fmt.Sprintf("layer%d", i)
		}

		co.layers[i] = &guardedLayer[V]{
			index:   i,
			name:    name,
			backend: lo.Backend,
			breaker: breaker.New(bcfg),
			codec:   opts.Codec,
			ttl:     lo.TTL,
			strict:  opts.StrictMode,
			clock:   co.clock,
			log:     co.log,
			hooks:   co.hooks,
		}
	}

	return co, nil
}

// Get cascades through layers in priority order (spec §4.5.1): the first
// non-expired, non-stale hit wins. A dependency found to have changed
// since write time is treated as a miss and the cascade continues — this
// façade has no separate external caller to hand the recreated dependency
// to, so the staleness check is performed here rather than by a caller.
func (co *coordinator[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if co.disabled {
		return zero, false, nil
	}

	for i, l := range co.layers {
		wv, ok, err := l.guardedGet(ctx, key)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			continue
		}

		if wv.Dependency != nil && co.registry != nil {
			dep, recErr := wv.Dependency.Recreate(co.registry)
			if recErr != nil {
				co.log.Warn("tiercache: dependency recreate failed", Fields{"layer": i, "err": recErr})
				continue
			}
			changed, chErr := dep.IsChanged(ctx, wv.Dependency.EvaluatedData)
			if chErr != nil {
				co.log.Warn("tiercache: dependency check failed", Fields{"layer": i, "err": chErr})
				continue
			}
			if changed {
				continue
			}
		}

		if co.recoveryStrategy == RecoveryPopulate && i > 0 {
			co.recoveryPopulate(ctx, key, wv, i)
		}
		return wv.Value, true, nil
	}

	return zero, false, nil
}

// recoveryPopulate back-fills every healthy (CLOSED) layer above hitIndex
// with the value, carrying over its remaining TTL (spec §4.5.4). The
// per-layer ttl computed here already accounts for that layer's own
// ceiling (backfillTTL clamps to l.ttl), and guardedSet's own clamp is a
// no-op on top of it — so the envelope written still ends up with
// ExpiresAtUnix = now + effective ttl for that specific layer.
func (co *coordinator[V]) recoveryPopulate(ctx context.Context, key string, wv WrappedValue[V], hitIndex int) {
	for i := 0; i < hitIndex; i++ {
		l := co.layers[i]
		if l.breaker.GetState() != breaker.Closed {
			continue
		}
		ttl := backfillTTL(co.clock.Now(), wv.ExpiresAtUnix, l.ttl)
		ok, err := l.guardedSet(ctx, key, wv.Value, ttl, wv.Dependency)
		if err != nil {
			co.hooks.RecoveryPopulateFailed(i, key, err)
			continue
		}
		if ok {
			co.hooks.RecoveryPopulated(i, key)
		}
	}
}

func (co *coordinator[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) (bool, error) {
	return co.set(ctx, key, value, ttl, nil, false)
}

func (co *coordinator[V]) SetWithDependency(ctx context.Context, key string, value V, ttl time.Duration, dep Dependency) (bool, error) {
	if dep == nil {
		return false, ErrInvalidDependency
	}
	meta := FromDependency(dep)
	return co.set(ctx, key, value, ttl, &meta, false)
}

func (co *coordinator[V]) Add(ctx context.Context, key string, value V, ttl time.Duration) (bool, error) {
	return co.set(ctx, key, value, ttl, nil, true)
}

func (co *coordinator[V]) AddWithDependency(ctx context.Context, key string, value V, ttl time.Duration, dep Dependency) (bool, error) {
	if dep == nil {
		return false, ErrInvalidDependency
	}
	meta := FromDependency(dep)
	return co.set(ctx, key, value, ttl, &meta, true)
}

// set implements both write strategies (spec §4.5.2): WriteThrough attempts
// every layer and succeeds if any accepted; WriteFirst stops at the first
// acceptance. add selects Add (test-and-set) instead of Set per layer.
// Each layer wraps its own WrappedValue from the shared requested ttl
// (guardedSet/guardedAdd clamp it to that layer's own ceiling before
// framing), so each layer's ExpiresAtUnix reflects its own clamped ttl.
func (co *coordinator[V]) set(ctx context.Context, key string, value V, ttl time.Duration, dep *DependencyMetadata, add bool) (bool, error) {
	if co.disabled {
		return false, nil
	}

	var fo FanOutError
	if add {
		fo.Op = "add"
	} else {
		fo.Op = "set"
	}
	succeeded := false

	for i, l := range co.layers {
		var ok bool
		var err error
		if add {
			ok, err = l.guardedAdd(ctx, key, value, ttl, dep)
		} else {
			ok, err = l.guardedSet(ctx, key, value, ttl, dep)
		}
		if err != nil {
			fo.Errs = append(fo.Errs, LayerErr{Index: i, Err: err})
			continue
		}
		if ok {
			succeeded = true
			if co.writeStrategy == WriteFirst {
				break
			}
		}
	}

	if len(fo.Errs) > 0 {
		return succeeded, &fo
	}
	return succeeded, nil
}

// Delete fans out to every layer regardless of WriteStrategy: a stale
// entry left behind in an untouched tier would otherwise resurface on a
// later cascade (spec §4.5.3).
func (co *coordinator[V]) Delete(ctx context.Context, key string) (bool, error) {
	if co.disabled {
		return false, nil
	}
	succeeded := false
	fo := FanOutError{Op: "delete"}
	for i, l := range co.layers {
		ok, err := l.guardedDelete(ctx, key)
		if err != nil {
			fo.Errs = append(fo.Errs, LayerErr{Index: i, Err: err})
			continue
		}
		if ok {
			succeeded = true
		}
	}
	if len(fo.Errs) > 0 {
		return succeeded, &fo
	}
	return succeeded, nil
}

func (co *coordinator[V]) Flush(ctx context.Context) (bool, error) {
	if co.disabled {
		return false, nil
	}
	succeeded := false
	fo := FanOutError{Op: "flush"}
	for i, l := range co.layers {
		ok, err := l.guardedFlush(ctx)
		if err != nil {
			fo.Errs = append(fo.Errs, LayerErr{Index: i, Err: err})
			continue
		}
		if ok {
			succeeded = true
		}
	}
	if len(fo.Errs) > 0 {
		return succeeded, &fo
	}
	return succeeded, nil
}

func (co *coordinator[V]) LayerStatus() []LayerStatus {
	out := make([]LayerStatus, len(co.layers))
	for i, l := range co.layers {
		out[i] = LayerStatus{
			Index:        i,
			BackendClass: l.name,
			BreakerClass: "breaker.Breaker",
			BreakerState: l.breaker.GetState().String(),
			BreakerStats: l.breaker.GetStats(),
		}
	}
	return out
}

func (co *coordinator[V]) ForceLayerOpen(i int) {
	if i < 0 || i >= len(co.layers) {
		return
	}
	co.layers[i].breaker.ForceOpen()
}

func (co *coordinator[V]) ForceLayerClose(i int) {
	if i < 0 || i >= len(co.layers) {
		return
	}
	co.layers[i].breaker.ForceClose()
}

func (co *coordinator[V]) ResetCircuitBreakers() {
	for _, l := range co.layers {
		l.breaker.Reset()
	}
}

func (co *coordinator[V]) Close(ctx context.Context) error {
	var firstErr error
	for _, l := range co.layers {
		if err := l.backend.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
