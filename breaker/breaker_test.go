package breaker

import (
	"testing"
	"time"

	"github.com/unkn0wn-root/tiercache/internal/clock"
)

func TestClosedStaysClosedBelowThreshold(t *testing.T) {
	b := New(Config{WindowSize: 4, FailureThreshold: 0.5})
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordSuccess()
	b.RecordSuccess()
	if got := b.GetState(); got != Closed {
		t.Fatalf("state = %v, want Closed", got)
	}
	if !b.AllowsRequest() {
		t.Fatalf("expected requests allowed while closed")
	}
}

func TestOpensOnceWindowFullAndRatioCrossed(t *testing.T) {
	b := New(Config{WindowSize: 4, FailureThreshold: 0.5})
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	// window not full yet (3/4) -> still closed
	if got := b.GetState(); got != Closed {
		t.Fatalf("state = %v, want Closed before window fills", got)
	}
	b.RecordFailure() // window full: 3 failures / 4 = 0.75 >= 0.5
	if got := b.GetState(); got != Open {
		t.Fatalf("state = %v, want Open", got)
	}
	if b.AllowsRequest() {
		t.Fatalf("expected requests blocked while open")
	}
}

func TestAllSuccessNeverOpens(t *testing.T) {
	b := New(Config{WindowSize: 3, FailureThreshold: 0.5})
	for i := 0; i < 10; i++ {
		b.RecordSuccess()
	}
	if got := b.GetState(); got != Closed {
		t.Fatalf("state = %v, want Closed (open question (a): success cannot open)", got)
	}
}

func TestHalfOpenProbeAndClose(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	var transitions [][2]State
	b := New(Config{
		WindowSize:       4,
		FailureThreshold: 0.5,
		Timeout:          time.Second,
		SuccessThreshold: 1,
		Clock:            clk,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, [2]State{from, to})
		},
	})

	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	if got := b.GetState(); got != Open {
		t.Fatalf("state = %v, want Open", got)
	}

	clk.Advance(999 * time.Millisecond)
	if b.GetState() != Open {
		t.Fatalf("expected still Open before timeout elapses")
	}

	clk.Advance(2 * time.Millisecond) // now >= 1s since open
	if !b.AllowsRequest() {
		t.Fatalf("expected probe allowed after timeout")
	}
	if got := b.GetState(); got != HalfOpen {
		t.Fatalf("state = %v, want HalfOpen", got)
	}

	b.RecordSuccess()
	if got := b.GetState(); got != Closed {
		t.Fatalf("state = %v, want Closed after success threshold met", got)
	}

	st := b.GetStats()
	if st.Total != 0 {
		t.Fatalf("expected window cleared on close, got total=%d", st.Total)
	}

	wantSeq := []State{Open, HalfOpen, Closed}
	if len(transitions) != len(wantSeq) {
		t.Fatalf("transitions = %v, want 3 entries", transitions)
	}
	for i, want := range wantSeq {
		if transitions[i][1] != want {
			t.Fatalf("transition[%d] -> %v, want -> %v", i, transitions[i][1], want)
		}
	}
}

func TestHalfOpenFailureReopensAndResetsOpenedAt(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	b := New(Config{
		WindowSize:       2,
		FailureThreshold: 0.5,
		Timeout:          time.Second,
		Clock:            clk,
	})
	b.RecordFailure()
	b.RecordFailure()
	if b.GetState() != Open {
		t.Fatalf("want Open")
	}

	clk.Advance(time.Second)
	b.AllowsRequest() // -> HalfOpen
	if b.GetState() != HalfOpen {
		t.Fatalf("want HalfOpen")
	}

	b.RecordFailure() // any half-open failure reopens immediately
	if b.GetState() != Open {
		t.Fatalf("want Open after half-open failure")
	}

	// opening again resets the timeout clock: immediately after reopening,
	// a zero-elapsed check must still block.
	if b.AllowsRequest() {
		t.Fatalf("expected still Open immediately after half-open failure reopened it")
	}
}

func TestForceOpenForceCloseAndReset(t *testing.T) {
	b := New(Config{})
	b.ForceOpen()
	if b.GetState() != Open {
		t.Fatalf("want Open after ForceOpen")
	}
	b.ForceClose()
	if b.GetState() != Closed {
		t.Fatalf("want Closed after ForceClose")
	}

	b.RecordFailure()
	b.Reset()
	st := b.GetStats()
	if b.GetState() != Closed || st.Total != 0 {
		t.Fatalf("want Reset to empty Closed state, got state=%v stats=%+v", b.GetState(), st)
	}
}

func TestStatsInvariant(t *testing.T) {
	b := New(Config{WindowSize: 5, FailureThreshold: 0.9})
	for i := 0; i < 20; i++ {
		if i%3 == 0 {
			b.RecordFailure()
		} else {
			b.RecordSuccess()
		}
		st := b.GetStats()
		if st.Total > 5 {
			t.Fatalf("total=%d exceeds window size", st.Total)
		}
		if st.Failures > st.Total {
			t.Fatalf("failures=%d exceeds total=%d", st.Failures, st.Total)
		}
	}
}
