package tiercache

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The coordinator calls them on hot paths.
type Hooks interface {
	// A layer's breaker changed state. from/to are breaker.State values
	// rendered as their String() form ("closed", "open", "half_open").
	BreakerStateChanged(layerIndex int, from, to string)

	// A layer call (get/set/add/delete/flush) errored and was swallowed;
	// the cascade or fan-out continued past it.
	LayerError(layerIndex int, op string, err error)

	// A read on a layer found a payload that was not a WrappedValue.
	// reason ∈ {"auto_wrapped", "strict_rejected"}.
	FormatMismatch(layerIndex int, reason string)

	// Recovery-populate wrote a hit back into a higher (healthier) layer.
	RecoveryPopulated(layerIndex int, key string)

	// Recovery-populate attempted a write that failed.
	RecoveryPopulateFailed(layerIndex int, key string, err error)

	// LayerOutcome reports a completed Get against one layer: hit=true
	// on a usable value, hit=false on a miss (including expired/
	// breaker-open). It is reported before the coordinator's dependency
	// check, so a hit later found stale still counts as hit=true. Drives
	// per-layer hit-rate metrics.
	LayerOutcome(layerIndex int, hit bool)
}

// NopHooks is the default no-op.
type NopHooks struct{}

func (NopHooks) BreakerStateChanged(int, string, string)   {}
func (NopHooks) LayerError(int, string, error)             {}
func (NopHooks) FormatMismatch(int, string)                {}
func (NopHooks) RecoveryPopulated(int, string)             {}
func (NopHooks) RecoveryPopulateFailed(int, string, error) {}
func (NopHooks) LayerOutcome(int, bool)                    {}
