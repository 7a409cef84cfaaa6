package memory

import (
	"context"
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New()
	t.Cleanup(func() { _ = b.Close(ctx) })

	if ok, err := b.Set(ctx, "k", []byte("v"), 0); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	v, ok, err := b.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get: v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestGetMissing(t *testing.T) {
	b := New()
	_, ok, err := b.Get(context.Background(), "missing")
	if err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestSetTTLExpires(t *testing.T) {
	ctx := context.Background()
	b := New()
	if _, err := b.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	_, ok, err := b.Get(ctx, "k")
	if err != nil || ok {
		t.Fatalf("expected expiry to produce a miss, got ok=%v err=%v", ok, err)
	}
}

func TestAddRejectsExistingLiveKey(t *testing.T) {
	ctx := context.Background()
	b := New()
	if ok, _ := b.Add(ctx, "k", []byte("first"), 0); !ok {
		t.Fatalf("first Add should succeed")
	}
	if ok, _ := b.Add(ctx, "k", []byte("second"), 0); ok {
		t.Fatalf("second Add should be rejected")
	}
	v, _, _ := b.Get(ctx, "k")
	if string(v) != "first" {
		t.Fatalf("Add must not overwrite: got %q", v)
	}
}

func TestAddSucceedsAfterExpiry(t *testing.T) {
	ctx := context.Background()
	b := New()
	if _, err := b.Set(ctx, "k", []byte("v1"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if ok, _ := b.Add(ctx, "k", []byte("v2"), 0); !ok {
		t.Fatalf("Add should succeed once the prior entry has expired")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := New()
	if ok, err := b.Delete(ctx, "never-existed"); err != nil || !ok {
		t.Fatalf("Delete on missing key should report ok=true, got ok=%v err=%v", ok, err)
	}
}

func TestFlushClearsEverything(t *testing.T) {
	ctx := context.Background()
	b := New()
	_, _ = b.Set(ctx, "a", []byte("1"), 0)
	_, _ = b.Set(ctx, "b", []byte("2"), 0)
	if ok, err := b.Flush(ctx); err != nil || !ok {
		t.Fatalf("Flush: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := b.Get(ctx, "a"); ok {
		t.Fatalf("expected 'a' gone after Flush")
	}
	if _, ok, _ := b.Get(ctx, "b"); ok {
		t.Fatalf("expected 'b' gone after Flush")
	}
}
