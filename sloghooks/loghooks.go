package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/tiercache"
)

// Options tunes sampling so a flapping layer doesn't flood logs.
type Options struct {
	// LayerErrorEvery samples LayerError; 0/1 = log all.
	LayerErrorEvery uint64
	// Optional key redactor for RecoveryPopulated/RecoveryPopulateFailed.
	// Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	layerErrCtr atomic.Uint64
}

var _ tiercache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) BreakerStateChanged(layerIndex int, from, to string) {
	if h.l == nil {
		return
	}
	h.l.Info("tiercache.breaker_state_changed",
		"layer", layerIndex, "from", from, "to", to)
}

func (h *Hooks) LayerError(layerIndex int, op string, err error) {
	if h.l == nil || !sample(h.opts.LayerErrorEvery, &h.layerErrCtr) {
		return
	}
	h.l.Warn("tiercache.layer_error",
		"layer", layerIndex, "op", op, "err", err)
}

func (h *Hooks) FormatMismatch(layerIndex int, reason string) {
	if h.l == nil {
		return
	}
	h.l.Debug("tiercache.format_mismatch",
		"layer", layerIndex, "reason", reason)
}

func (h *Hooks) RecoveryPopulated(layerIndex int, key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("tiercache.recovery_populated",
		"layer", layerIndex, "key", h.redact(key))
}

func (h *Hooks) RecoveryPopulateFailed(layerIndex int, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("tiercache.recovery_populate_failed",
		"layer", layerIndex, "key", h.redact(key), "err", err)
}

// LayerOutcome is a no-op here: it fires on every single Get and belongs
// in a counter, not a log line. Use metrics/prometheus for hit-rate
// tracking.
func (h *Hooks) LayerOutcome(layerIndex int, hit bool) {}
