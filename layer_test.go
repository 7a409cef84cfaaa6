package tiercache

import (
	"context"
	"testing"
	"time"

	"github.com/unkn0wn-root/tiercache/backend/memory"
	"github.com/unkn0wn-root/tiercache/breaker"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/internal/clock"
)

func newTestLayer(t *testing.T, clk clock.Clock, strict bool) *guardedLayer[string] {
	t.Helper()
	return &guardedLayer[string]{
		index:   0,
		name:    "test",
		backend: memory.New(),
		breaker: breaker.New(breaker.Config{Clock: clk}),
		codec:   codec.JSONCodec[string]{},
		ttl:     0,
		strict:  strict,
		clock:   clk,
		log:     NopLogger{},
		hooks:   NopHooks{},
	}
}

func TestGuardedSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Unix(1000, 0))
	l := newTestLayer(t, clk, false)

	if ok, err := l.guardedSet(ctx, "k", "hello", time.Minute, nil); err != nil || !ok {
		t.Fatalf("guardedSet: ok=%v err=%v", ok, err)
	}
	got, ok, err := l.guardedGet(ctx, "k")
	if err != nil || !ok || got.Value != "hello" {
		t.Fatalf("guardedGet: got=%+v ok=%v err=%v", got, ok, err)
	}
}

func TestGuardedGetExpiredIsMiss(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Unix(1000, 0))
	l := newTestLayer(t, clk, false)

	if _, err := l.guardedSet(ctx, "k", "v", time.Second, nil); err != nil {
		t.Fatalf("guardedSet: %v", err)
	}
	clk.Advance(2 * time.Second)

	_, ok, err := l.guardedGet(ctx, "k")
	if err != nil || ok {
		t.Fatalf("expected expired entry to miss, got ok=%v err=%v", ok, err)
	}
}

func TestGuardedGetNonStrictAutoWrapsLegacyValue(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Unix(1000, 0))
	l := newTestLayer(t, clk, false)

	raw, err := l.codec.Encode("legacy")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := l.backend.Set(ctx, "k", raw, 0); err != nil {
		t.Fatalf("inject legacy raw value: %v", err)
	}

	wv, ok, err := l.guardedGet(ctx, "k")
	if err != nil || !ok || wv.Value != "legacy" {
		t.Fatalf("expected transparent legacy read, got wv=%+v ok=%v err=%v", wv, ok, err)
	}
}

func TestGuardedGetStrictRejectsLegacyValueAsBreakerFailure(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Unix(1000, 0))
	l := newTestLayer(t, clk, true)

	raw, err := l.codec.Encode("legacy")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := l.backend.Set(ctx, "k", raw, 0); err != nil {
		t.Fatalf("inject legacy raw value: %v", err)
	}

	_, ok, err := l.guardedGet(ctx, "k")
	if err != nil || ok {
		t.Fatalf("expected strict rejection to surface as a miss, got ok=%v err=%v", ok, err)
	}
	st := l.breaker.GetStats()
	if st.Failures != 1 {
		t.Fatalf("expected strict rejection to count as a breaker failure, stats=%+v", st)
	}
}

func TestGuardedGetSkipsBackendWhenBreakerOpen(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Unix(1000, 0))
	l := newTestLayer(t, clk, false)
	l.breaker.ForceOpen()

	wv := wrapValue(clk.Now(), "v", 0, nil)
	if _, err := l.backend.Set(ctx, "k", mustWire(t, l, wv), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	_, ok, err := l.guardedGet(ctx, "k")
	if err != nil || ok {
		t.Fatalf("expected open breaker to short-circuit to a miss, got ok=%v err=%v", ok, err)
	}
}

func TestGuardedSetStoresEnvelopeClampedToLayerCeiling(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Unix(1000, 0))
	l := newTestLayer(t, clk, false)
	l.ttl = 2 * time.Second

	if ok, err := l.guardedSet(ctx, "k", "v", time.Hour, nil); err != nil || !ok {
		t.Fatalf("guardedSet: ok=%v err=%v", ok, err)
	}

	raw, ok, err := l.backend.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("backend.Get: ok=%v err=%v", ok, err)
	}
	wv, wasEnvelope, err := l.unwrap(raw)
	if err != nil || !wasEnvelope {
		t.Fatalf("unwrap: wasEnvelope=%v err=%v", wasEnvelope, err)
	}
	if want := clk.Now().Add(l.ttl).Unix(); wv.ExpiresAtUnix != want {
		t.Fatalf("expected envelope expiry clamped to the layer ceiling (%d), got %d", want, wv.ExpiresAtUnix)
	}
}

func mustWire(t *testing.T, l *guardedLayer[string], wv WrappedValue[string]) []byte {
	t.Helper()
	b, err := l.wrap(wv)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	return b
}

func TestClampTTLAppliesCeiling(t *testing.T) {
	if got := clampTTL(10*time.Minute, time.Minute); got != time.Minute {
		t.Fatalf("expected ceiling applied, got %v", got)
	}
	if got := clampTTL(30*time.Second, time.Minute); got != 30*time.Second {
		t.Fatalf("expected requested TTL under ceiling to pass through, got %v", got)
	}
	if got := clampTTL(0, time.Minute); got != time.Minute {
		t.Fatalf("expected no-TTL request to take the ceiling, got %v", got)
	}
}

func TestBackfillTTLFloorsAtOneSecond(t *testing.T) {
	now := time.Unix(1000, 0)
	got := backfillTTL(now, now.Add(200*time.Millisecond).Unix(), time.Minute)
	if got != time.Second {
		t.Fatalf("expected 1s floor, got %v", got)
	}
}
