package tiercache

import "github.com/fxamacker/cbor/v2"

// encodeDependencyMetadata/decodeDependencyMetadata frame a
// DependencyMetadata's Config/EvaluatedData maps (arbitrary any-typed
// trees) onto bytes for the wire envelope's dep slot. CBOR is used rather
// than the codec.Codec[V] machinery because DependencyMetadata isn't the
// caller's V — it's a fixed internal shape the façade itself owns, so it
// gets one fixed format instead of a pluggable one.
func encodeDependencyMetadata(m DependencyMetadata) []byte {
	b, err := cbor.Marshal(m)
	if err != nil {
		// m is built entirely from plain maps/strings/numbers supplied by
		// Dependency implementations; a CBOR-unrepresentable value here is
		// a caller bug, not a runtime condition to recover from.
		return nil
	}
	return b
}

func decodeDependencyMetadata(b []byte) (DependencyMetadata, error) {
	var m DependencyMetadata
	if err := cbor.Unmarshal(b, &m); err != nil {
		return DependencyMetadata{}, err
	}
	return m, nil
}
