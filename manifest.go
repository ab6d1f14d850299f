package spool

import (
	"encoding/xml"
	"errors"
	"fmt"
	"reflect"
)

// ManifestVersion identifies the wire format and descriptor encoding a manifest describes.
const ManifestVersion = "spool/1"

// Manifest describes the polymorphic types of a Registry. Peers exchange manifests
// to confirm they agree on type ids and layouts before exchanging graphs.
type Manifest struct {
	XMLName xml.Name        `json:"-" yaml:"-" msgpack:"-" bson:"-" xml:"manifest"`
	Version string          `json:"version" yaml:"version" msgpack:"version" bson:"version" xml:"version,attr"`
	Hash    HashAlgo        `json:"hash" yaml:"hash" msgpack:"hash" bson:"hash" xml:"hash,attr"`
	Types   []ManifestEntry `json:"types" yaml:"types" msgpack:"types" bson:"types" xml:"type"`
}

// ManifestEntry describes one registered type.
type ManifestEntry struct {
	ID          TypeID     `json:"id" yaml:"id" msgpack:"id" bson:"id" xml:"id,attr"`
	Name        string     `json:"name" yaml:"name" msgpack:"name" bson:"name" xml:"name,attr"`
	Descriptor  Descriptor `json:"descriptor" yaml:"descriptor" msgpack:"descriptor" bson:"descriptor" xml:"descriptor>token"`
	Fingerprint string     `json:"fingerprint" yaml:"fingerprint" msgpack:"fingerprint" bson:"fingerprint" xml:"fingerprint"`
}

// Manifest returns the manifest of r, entries ordered by id.
func (r *Registry) Manifest() Manifest {
	m := Manifest{
		Version: ManifestVersion,
		Hash:    HashBLAKE2b,
		Types:   make([]ManifestEntry, 0, r.Len()),
	}
	for _, id := range r.IDs() {
		e := r.entry(id)
		d := structureOf(e.typ.Elem())
		m.Types = append(m.Types, ManifestEntry{
			ID:          id,
			Name:        e.name,
			Descriptor:  d,
			Fingerprint: d.Fingerprint(),
		})
	}
	return m
}

// structureOf describes the fields of a registered type. DescribeType stops at the
// custom token; a manifest needs the layout behind it.
func structureOf(t reflect.Type) Descriptor {
	g := describer{stack: []reflect.Type{t}}
	out := []Token{TokenStruct}
	for _, f := range planFor(t).fields {
		out = g.describe(out, f.typ)
	}
	return append(out, TokenEnd)
}

// Verify checks m against r. Every type must be present on both sides with the same
// name and fingerprint. Mismatches are returned joined, each a *SchemaError.
func (m Manifest) Verify(r *Registry) error {
	if m.Version != ManifestVersion {
		return fmt.Errorf("%w: version %q, want %q", ErrSchemaMismatch, m.Version, ManifestVersion)
	}
	h, ok := HasherFor(m.Hash)
	if !ok {
		return fmt.Errorf("%w: unknown hash %q", ErrSchemaMismatch, m.Hash)
	}

	var errs []error
	seen := make(map[TypeID]bool, len(m.Types))
	for _, entry := range m.Types {
		seen[entry.ID] = true
		e := r.entry(entry.ID)
		if e == nil {
			errs = append(errs, &SchemaError{ID: entry.ID, Name: entry.Name, Reason: "not registered"})
			continue
		}
		if e.name != entry.Name {
			errs = append(errs, &SchemaError{ID: entry.ID, Name: entry.Name, Reason: "registered as " + e.name})
			continue
		}
		fp, err := structureOf(e.typ.Elem()).FingerprintWith(h)
		if err != nil {
			return err
		}
		if fp != entry.Fingerprint {
			errs = append(errs, &SchemaError{ID: entry.ID, Name: entry.Name, Reason: "layout differs"})
		}
	}
	for _, id := range r.IDs() {
		if !seen[id] {
			errs = append(errs, &SchemaError{ID: id, Name: r.Name(id), Reason: "missing from manifest"})
		}
	}
	return errors.Join(errs...)
}

// WriteManifest marshals the manifest of r with c.
func WriteManifest(c Codec, r *Registry) ([]byte, error) {
	return c.Marshal(r.Manifest())
}

// ReadManifest unmarshals a manifest with c.
func ReadManifest(c Codec, data []byte) (Manifest, error) {
	var m Manifest
	err := c.Unmarshal(data, &m)
	return m, err
}
