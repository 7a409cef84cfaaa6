// usage:
//
// import (
//
//	"github.com/unkn0wn-root/tiercache"
//	"github.com/unkn0wn-root/tiercache/hooks/async"
//	"github.com/unkn0wn-root/tiercache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    LayerErrorEvery: 10, // sample logs: ~every 10th layer error
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := tiercache.New[User](tiercache.Options[User]{
//	    Layers: layers,
//	    Codec:  codec.JSONCodec[User]{},
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/tiercache"
)

// Hooks dispatches every call from the hot path onto a bounded worker
// pool, dropping events rather than blocking a cache operation when the
// queue is full.
type Hooks struct {
	inner tiercache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(inner tiercache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) BreakerStateChanged(layerIndex int, from, to string) {
	h.try(func() { h.inner.BreakerStateChanged(layerIndex, from, to) })
}

func (h *Hooks) LayerError(layerIndex int, op string, err error) {
	h.try(func() { h.inner.LayerError(layerIndex, op, err) })
}

func (h *Hooks) FormatMismatch(layerIndex int, reason string) {
	h.try(func() { h.inner.FormatMismatch(layerIndex, reason) })
}

func (h *Hooks) RecoveryPopulated(layerIndex int, key string) {
	h.try(func() { h.inner.RecoveryPopulated(layerIndex, key) })
}

func (h *Hooks) RecoveryPopulateFailed(layerIndex int, key string, err error) {
	h.try(func() { h.inner.RecoveryPopulateFailed(layerIndex, key, err) })
}

func (h *Hooks) LayerOutcome(layerIndex int, hit bool) {
	h.try(func() { h.inner.LayerOutcome(layerIndex, hit) })
}
