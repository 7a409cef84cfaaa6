package tag

import (
	"context"
	"fmt"

	"github.com/unkn0wn-root/tiercache"
)

// ClassName is the DependencyMetadata.ClassName recorded for every
// Dependency this package constructs, used to route Recreate back here.
const ClassName = "tag.Dependency"

// Dependency snapshots a set of tag generations at write time and detects
// whether any of them have moved by read time (spec §4.3). *Dependency
// satisfies the root package's Dependency interface.
type Dependency struct {
	tags  []string
	store Store
	snap  map[string]uint64
}

// New captures the current generation of every tag from store. Call this
// at write time, before SetWithDependency/AddWithDependency.
func New(ctx context.Context, store Store, tags ...string) (*Dependency, error) {
	snap, err := store.SnapshotMany(ctx, tags)
	if err != nil {
		return nil, err
	}
	return &Dependency{tags: tags, store: store, snap: snap}, nil
}

func (d *Dependency) ClassName() string { return ClassName }

func (d *Dependency) Config() map[string]any {
	tags := make([]any, len(d.tags))
	for i, t := range d.tags {
		tags[i] = t
	}
	return map[string]any{"tags": tags}
}

func (d *Dependency) EvaluatedData() any { return d.snap }

// IsChanged re-snapshots d's tags and reports whether any generation has
// moved since original (the write-time snapshot restored by Recreate).
func (d *Dependency) IsChanged(ctx context.Context, original any) (bool, error) {
	writeSnap, err := normalizeSnapshot(original)
	if err != nil {
		return false, err
	}
	current, err := d.store.SnapshotMany(ctx, d.tags)
	if err != nil {
		return false, err
	}
	for t, gen := range writeSnap {
		if current[t] != gen {
			return true, nil
		}
	}
	return false, nil
}

// normalizeSnapshot accepts the exact type EvaluatedData returns
// (map[string]uint64) as well as the generic map shapes a round-trip
// through a codec produces: map[any]any (CBOR decoding into an `any`
// field) or map[string]any (e.g. JSON), where generation numbers surface
// as int64/uint64/float64.
func normalizeSnapshot(v any) (map[string]uint64, error) {
	switch m := v.(type) {
	case map[string]uint64:
		return m, nil
	case map[any]any:
		generic := make(map[string]any, len(m))
		for k, raw := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("tiercache/tag: unexpected tag key type %T", k)
			}
			generic[ks] = raw
		}
		return normalizeSnapshot(generic)
	case map[string]any:
		out := make(map[string]uint64, len(m))
		for k, raw := range m {
			switch n := raw.(type) {
			case uint64:
				out[k] = n
			case int64:
				out[k] = uint64(n)
			case float64:
				out[k] = uint64(n)
			default:
				return nil, fmt.Errorf("tiercache/tag: unexpected generation type %T for tag %q", raw, k)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("tiercache/tag: unexpected evaluated data type %T", v)
	}
}

// Invalidate bumps tagName's generation, so every entry captured against
// it is treated as stale on its next read.
func Invalidate(ctx context.Context, store Store, tagName string) error {
	_, err := store.Bump(ctx, tagName)
	return err
}

// Constructor builds a tiercache.DependencyConstructor bound to store,
// for registration with a root package Registry:
//
//	reg.Register(tag.ClassName, tag.Constructor(store))
func Constructor(store Store) tiercache.DependencyConstructor {
	return func(config map[string]any, evaluatedData any) tiercache.Dependency {
		var tags []string
		if raw, ok := config["tags"].([]any); ok {
			tags = make([]string, 0, len(raw))
			for _, v := range raw {
				if s, ok := v.(string); ok {
					tags = append(tags, s)
				}
			}
		}
		snap, _ := normalizeSnapshot(evaluatedData)
		return &Dependency{tags: tags, store: store, snap: snap}
	}
}
