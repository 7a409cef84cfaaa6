// Package prometheus wires tiercache's Hooks events into
// github.com/prometheus/client_golang counters and gauges: breaker state
// per layer and per-layer hit/miss rates.
package prometheus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/unkn0wn-root/tiercache"
)

// Hooks implements tiercache.Hooks, recording metrics under a caller-
// supplied namespace/subsystem. Register it with a prometheus.Registerer
// (prometheus.DefaultRegisterer if nil) and pass it as Options.Hooks.
type Hooks struct {
	breakerState   *prometheus.GaugeVec
	layerErrors    *prometheus.CounterVec
	layerOutcomes  *prometheus.CounterVec
	formatMismatch *prometheus.CounterVec
	recoveryOK     *prometheus.CounterVec
	recoveryFailed *prometheus.CounterVec
}

var _ tiercache.Hooks = (*Hooks)(nil)

// New registers tiercache's metrics under namespace/subsystem with reg
// (prometheus.DefaultRegisterer if reg is nil) and returns a Hooks ready
// to pass as Options.Hooks.
func New(reg prometheus.Registerer, namespace, subsystem string) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	h := &Hooks{
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "breaker_state",
			Help: "Circuit breaker state per layer: 0=closed, 1=half_open, 2=open.",
		}, []string{"layer"}),
		layerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "layer_errors_total",
			Help: "Errors returned by a layer's backend, by layer and operation.",
		}, []string{"layer", "op"}),
		layerOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "layer_get_total",
			Help: "Get outcomes per layer.",
		}, []string{"layer", "outcome"}),
		formatMismatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "format_mismatch_total",
			Help: "Non-wrapped payloads observed per layer, by handling.",
		}, []string{"layer", "reason"}),
		recoveryOK: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "recovery_populate_total",
			Help: "Successful recovery back-fills per layer.",
		}, []string{"layer"}),
		recoveryFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "recovery_populate_failed_total",
			Help: "Failed recovery back-fills per layer.",
		}, []string{"layer"}),
	}

	reg.MustRegister(h.breakerState, h.layerErrors, h.layerOutcomes, h.formatMismatch, h.recoveryOK, h.recoveryFailed)
	return h
}

func layerLabel(i int) string { return strconv.Itoa(i) }

func (h *Hooks) BreakerStateChanged(layerIndex int, from, to string) {
	h.breakerState.WithLabelValues(layerLabel(layerIndex)).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "closed":
		return 0
	case "half_open":
		return 1
	case "open":
		return 2
	default:
		return -1
	}
}

func (h *Hooks) LayerError(layerIndex int, op string, err error) {
	h.layerErrors.WithLabelValues(layerLabel(layerIndex), op).Inc()
}

func (h *Hooks) FormatMismatch(layerIndex int, reason string) {
	h.formatMismatch.WithLabelValues(layerLabel(layerIndex), reason).Inc()
}

func (h *Hooks) RecoveryPopulated(layerIndex int, key string) {
	h.recoveryOK.WithLabelValues(layerLabel(layerIndex)).Inc()
}

func (h *Hooks) RecoveryPopulateFailed(layerIndex int, key string, err error) {
	h.recoveryFailed.WithLabelValues(layerLabel(layerIndex)).Inc()
}

func (h *Hooks) LayerOutcome(layerIndex int, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	h.layerOutcomes.WithLabelValues(layerLabel(layerIndex), outcome).Inc()
}
