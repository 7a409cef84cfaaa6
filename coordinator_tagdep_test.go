package tiercache_test

import (
	"context"
	"testing"
	"time"

	"github.com/unkn0wn-root/tiercache"
	"github.com/unkn0wn-root/tiercache/backend/memory"
	"github.com/unkn0wn-root/tiercache/codec"
	"github.com/unkn0wn-root/tiercache/tag"
)

// TestSetWithDependencyTagInvalidationEndToEnd drives a tag-dependent
// write and read through Cache[V].Get, then invalidates the tag and
// checks the previously-cached entry now reads as a miss (spec §9,
// Testable Scenario 6), exercising coordinator.Get's Recreate+IsChanged
// staleness check end-to-end rather than unit-testing its pieces alone.
func TestSetWithDependencyTagInvalidationEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := tag.NewLocalStore(0, 0)

	reg := tiercache.NewRegistry()
	reg.Register(tag.ClassName, tag.Constructor(store))

	co, err := tiercache.New[string](tiercache.Options[string]{
		Layers:             []tiercache.LayerOptions{{Backend: memory.New(), Name: "l0"}},
		Codec:              codec.JSONCodec[string]{},
		DependencyRegistry: reg,
	})
	if err != nil {
		t.Fatalf("tiercache.New: %v", err)
	}

	dep, err := tag.New(ctx, store, "users")
	if err != nil {
		t.Fatalf("tag.New: %v", err)
	}
	if ok, err := co.SetWithDependency(ctx, "u1", "alice", time.Minute, dep); err != nil || !ok {
		t.Fatalf("SetWithDependency: ok=%v err=%v", ok, err)
	}

	v, ok, err := co.Get(ctx, "u1")
	if err != nil || !ok || v != "alice" {
		t.Fatalf("Get before invalidation: v=%q ok=%v err=%v", v, ok, err)
	}

	if err := tag.Invalidate(ctx, store, "users"); err != nil {
		t.Fatalf("tag.Invalidate: %v", err)
	}

	_, ok, err = co.Get(ctx, "u1")
	if err != nil || ok {
		t.Fatalf("expected a tag bump to make the entry stale, got ok=%v err=%v", ok, err)
	}
}
