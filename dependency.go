package tiercache

import "context"

// Dependency is the host-cache-framework collaborator consumed for
// tag-style invalidation (spec §4.6, §9). A concrete implementation (see
// package tag) knows how to evaluate itself against the current world and
// detect whether that evaluation has moved since write time.
type Dependency interface {
	// ClassName identifies the concrete variant, used by
	// DependencyMetadata.Recreate to pick a constructor from a Registry.
	ClassName() string

	// Config returns the dependency's public, non-static configuration
	// (e.g. the list of tags), captured at write time.
	Config() map[string]any

	// EvaluatedData returns the dependency's current evaluated snapshot
	// (e.g. per-tag generation numbers). Captured at write time and
	// compared against a fresh evaluation on read.
	EvaluatedData() any

	// IsChanged compares original (the evaluatedData captured at write
	// time) against a fresh evaluation of the same dependency. true means
	// the cached entry is stale and must be treated as a miss.
	IsChanged(ctx context.Context, original any) (bool, error)
}

// DependencyMetadata is the serializable snapshot of a Dependency,
// captured at write time (spec §4.3).
type DependencyMetadata struct {
	ClassName     string
	Config        map[string]any
	EvaluatedData any
}

// FromDependency captures a DependencyMetadata snapshot from a live
// Dependency at write time.
func FromDependency(d Dependency) DependencyMetadata {
	return DependencyMetadata{
		ClassName:     d.ClassName(),
		Config:        d.Config(),
		EvaluatedData: d.EvaluatedData(),
	}
}

// DependencyConstructor builds a Dependency from a recorded config and the
// original (write-time) evaluated data, without re-evaluating it.
type DependencyConstructor func(config map[string]any, evaluatedData any) Dependency

// Registry resolves a ClassName to a DependencyConstructor so
// DependencyMetadata.Recreate can instantiate the right concrete type.
// Implementations must register every Dependency variant they write.
type Registry struct {
	ctors map[string]DependencyConstructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]DependencyConstructor)}
}

// Register adds (or replaces) the constructor for a class name.
func (r *Registry) Register(className string, ctor DependencyConstructor) {
	r.ctors[className] = ctor
}

// Recreate instantiates a Dependency of m's recorded class, with the
// recorded config, and directly restores EvaluatedData without
// re-evaluating it — essential so the read-time IsChanged check compares
// against the exact write-time snapshot (spec §4.3).
func (m DependencyMetadata) Recreate(reg *Registry) (Dependency, error) {
	ctor, ok := reg.ctors[m.ClassName]
	if !ok {
		return nil, &UnknownDependencyClassError{ClassName: m.ClassName}
	}
	return ctor(m.Config, m.EvaluatedData), nil
}

// UnknownDependencyClassError is returned by Recreate when no constructor
// was registered for the recorded class name.
type UnknownDependencyClassError struct {
	ClassName string
}

func (e *UnknownDependencyClassError) Error() string {
	return "tiercache: no dependency constructor registered for class " + e.ClassName
}
