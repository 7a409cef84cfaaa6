// Package breaker implements a sliding-window circuit breaker used to
// gate calls to a single cache tier.
//
// Unlike a simple consecutive-failure counter, the breaker here tracks the
// last WindowSize outcomes and opens only once the window is full and the
// observed failure ratio crosses FailureThreshold. This avoids flapping
// open on a couple of unlucky calls right after startup.
package breaker

import (
	"sync"
	"time"

	"github.com/unkn0wn-root/tiercache/internal/clock"
)

// State is one of the three circuit breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Clock abstracts wall-clock time so tests can control the timeout
// transition deterministically.
type Clock = clock.Clock

// Config tunes a Breaker. Zero values fall back to the defaults noted below.
type Config struct {
	// FailureThreshold is the failure ratio, in (0,1], at which a full
	// window trips the breaker open. Default 0.5.
	FailureThreshold float64
	// WindowSize is the number of recent outcomes retained. Default 10.
	WindowSize int
	// Timeout is how long an OPEN breaker waits before moving to
	// HALF_OPEN, where requests are let through as probes. Default 30s.
	Timeout time.Duration
	// SuccessThreshold is how many consecutive half-open successes are
	// required to close the breaker. Default 1.
	SuccessThreshold int
	// Clock is injectable for tests; defaults to the real wall clock.
	Clock Clock

	// OnStateChange, if set, is invoked synchronously whenever the
	// breaker transitions (including the lazy timeout->half-open
	// transition observed inside AllowsRequest/GetState).
	OnStateChange func(from, to State)
}

// IsZero reports whether c is the Config zero value, used by callers that
// layer a per-tier override on top of a shared default.
func (c Config) IsZero() bool {
	return c.FailureThreshold == 0 && c.WindowSize == 0 && c.Timeout == 0 &&
		c.SuccessThreshold == 0 && c.Clock == nil && c.OnStateChange == nil
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 0.5
	}
	if c.WindowSize <= 0 {
		c.WindowSize = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
	if c.Clock == nil {
		c.Clock = clock.Real{}
	}
	return c
}

// Stats is a point-in-time snapshot of the sliding window.
type Stats struct {
	Total       int
	Failures    int
	FailureRate float64
}

// Breaker is a single tier's circuit breaker. The zero value is not
// usable; construct with New. Safe for concurrent use.
type Breaker struct {
	cfg Config

	mu       sync.Mutex
	state    State
	window   []bool // ring buffer of outcomes, true=success
	head     int    // next write index
	full     bool
	openedAt time.Time
	hasOpen  bool
	halfOpen int // half-open success counter
}

// New constructs a Breaker, closed, with an empty window.
func New(cfg Config) *Breaker {
	cfg = cfg.withDefaults()
	return &Breaker{
		cfg:    cfg,
		state:  Closed,
		window: make([]bool, 0, cfg.WindowSize),
	}
}

// AllowsRequest applies the timeout transition (OPEN -> HALF_OPEN once
// Timeout has elapsed since opening) and reports whether a caller may
// proceed to the backend. CLOSED and HALF_OPEN allow; OPEN does not.
func (b *Breaker) AllowsRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reconcileLocked()
	return b.state != Open
}

// GetState applies the timeout transition then returns the current state.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reconcileLocked()
	return b.state
}

// GetStats returns total/failures/failureRate over the current window.
func (b *Breaker) GetStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statsLocked()
}

// RecordSuccess records a successful call.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reconcileLocked()

	switch b.state {
	case HalfOpen:
		b.halfOpen++
		if b.halfOpen >= b.cfg.SuccessThreshold {
			b.closeLocked()
		}
	case Closed:
		b.pushLocked(true)
		b.checkThresholdLocked() // uniform evaluation; an all-success window never opens
	case Open:
		// ignored
	}
}

// RecordFailure records a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reconcileLocked()

	switch b.state {
	case HalfOpen:
		b.openLocked()
	case Closed:
		b.pushLocked(false)
		b.checkThresholdLocked()
	case Open:
		// ignored
	}
}

// ForceOpen forces the breaker into OPEN, resetting the timeout clock.
func (b *Breaker) ForceOpen() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openLocked()
}

// ForceClose forces the breaker into CLOSED and clears the window.
func (b *Breaker) ForceClose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

// Reset returns the breaker to an empty CLOSED state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

// --- internal, caller must hold b.mu ---

func (b *Breaker) reconcileLocked() {
	if b.state == Open && b.hasOpen && b.cfg.Clock.Now().Sub(b.openedAt) >= b.cfg.Timeout {
		from := b.state
		b.state = HalfOpen
		b.halfOpen = 0
		b.notify(from, b.state)
	}
}

func (b *Breaker) pushLocked(ok bool) {
	if len(b.window) < b.cfg.WindowSize {
		b.window = append(b.window, ok)
		if len(b.window) == b.cfg.WindowSize {
			b.full = true
		}
		return
	}
	// ring overwrite of the oldest entry
	b.window[b.head] = ok
	b.head = (b.head + 1) % b.cfg.WindowSize
	b.full = true
}

func (b *Breaker) checkThresholdLocked() {
	if !b.full {
		return
	}
	st := b.statsLocked()
	if st.FailureRate >= b.cfg.FailureThreshold {
		b.openLocked()
	}
}

func (b *Breaker) statsLocked() Stats {
	total := len(b.window)
	if total == 0 {
		return Stats{}
	}
	failures := 0
	for _, ok := range b.window {
		if !ok {
			failures++
		}
	}
	return Stats{
		Total:       total,
		Failures:    failures,
		FailureRate: float64(failures) / float64(total),
	}
}

func (b *Breaker) openLocked() {
	from := b.state
	b.state = Open
	b.openedAt = b.cfg.Clock.Now()
	b.hasOpen = true
	b.halfOpen = 0
	if from != Open {
		b.notify(from, b.state)
	}
}

func (b *Breaker) closeLocked() {
	from := b.state
	b.state = Closed
	b.window = b.window[:0]
	b.head = 0
	b.full = false
	b.openedAt = time.Time{}
	b.hasOpen = false
	b.halfOpen = 0
	if from != Closed {
		b.notify(from, b.state)
	}
}

func (b *Breaker) notify(from, to State) {
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(from, to)
	}
}
