// Package spool provides binary serialization and deep copy of Go object graphs.
//
// spool writes values of static Go types to a compact little-endian byte stream
// and reads them back, preserving the shape of the graph: an object reachable
// through several references is written once and restored once, cycles terminate,
// and polymorphic references come back as their dynamic types.
//
// # References
//
// Four reference kinds are understood:
//
//   - *T and interface values: raw, non-owning references
//   - Unique[P]: exclusive ownership
//   - Shared[P]: shared ownership through a common control block
//   - Weak[P]: an observer of a Shared owner
//
// A raw reference seen first may later be claimed by an owner without creating
// a second object. Unique and Shared claims on one object fail with
// ErrOwnershipConflict.
//
// # Polymorphism
//
// Types used behind interfaces implement Object and are listed in a Registry:
//
//	reg, err := spool.NewRegistry(
//	    spool.Type[Device](),
//	    spool.Type[Sensor](),
//	)
//
// # Basic Usage
//
//	data, err := spool.Marshal(reg, home)
//
//	var restored Home
//	err = spool.Unmarshal(reg, data, &restored)
//
//	clone, err := spool.Clone(reg, home)
//
// For repeated use of one type, a Processor adds lifecycle signals:
//
//	proc, _ := spool.Use[Home](reg)
//	data, _ := proc.Encode(ctx, home)
//
// # Streaming
//
// Encoder and Decoder sessions span several calls. Objects written by an earlier
// Encode are referenced by identity in later ones until Clear:
//
//	enc := spool.NewEncoder(w, reg)
//	_ = enc.Encode(first)
//	_ = enc.Encode(second) // aliases into first are preserved
//
// # Schemas
//
// Describe returns the structural descriptor of a type, and Registry.Manifest
// summarizes every registered type so peers can verify they agree before
// exchanging data. Manifests travel through any Codec, such as the json, yaml,
// xml, msgpack and bson subpackages.
package spool

import "bytes"

// Marshal encodes v and everything reachable from it in a fresh session.
func Marshal(reg *Registry, v any, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf, reg, opts...).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into the value ptr points to in a fresh session.
func Unmarshal(reg *Registry, data []byte, ptr any, opts ...Option) error {
	return NewDecoder(bytes.NewReader(data), reg, opts...).Decode(ptr)
}
