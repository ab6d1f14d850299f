package spool

import (
	"context"
	"reflect"
	"sort"
)

// maxTypeID bounds registered ids so the dense table stays small.
const maxTypeID = 1 << 20

// Factory returns a new zero instance of a registered type.
type Factory func() Object

// Type returns the Factory for struct type T whose pointer implements Object.
func Type[T any, P interface {
	*T
	Object
}]() Factory {
	return func() Object {
		return P(new(T))
	}
}

// registryEntry describes one registered type.
type registryEntry struct {
	id      TypeID
	typ     reflect.Type // concrete pointer type
	name    string
	factory Factory
}

// Registry maps type ids to factories for polymorphic references.
// A Registry is immutable after NewRegistry returns and safe for concurrent use.
type Registry struct {
	byID   []*registryEntry
	byType map[reflect.Type]TypeID
	ids    []TypeID
}

// NewRegistry builds a registry from factories.
// Registering the same type twice is a no-op; two types claiming one id fail with
// ErrDuplicateType.
func NewRegistry(factories ...Factory) (*Registry, error) {
	r := &Registry{
		byType: make(map[reflect.Type]TypeID, len(factories)),
	}
	for _, f := range factories {
		if err := r.add(f); err != nil {
			return nil, err
		}
	}
	sort.Slice(r.ids, func(i, j int) bool { return r.ids[i] < r.ids[j] })

	emitRegistryBuilt(context.Background(), len(r.ids))
	return r, nil
}

// MustRegistry is NewRegistry that panics on error, for package-level registries.
func MustRegistry(factories ...Factory) *Registry {
	r, err := NewRegistry(factories...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) add(f Factory) error {
	sample := f()
	if sample == nil {
		return newRegistryError(ErrInvalidTypeID, 0, "nil factory result")
	}
	typ := reflect.TypeOf(sample)
	id := sample.TypeID()
	if typ.Kind() != reflect.Pointer {
		return newRegistryError(ErrUnsupported, id, typ.String())
	}
	if id == 0 || id >= maxTypeID {
		return newRegistryError(ErrInvalidTypeID, id, typ.String())
	}

	if int(id) < len(r.byID) {
		if existing := r.byID[id]; existing != nil {
			if existing.typ == typ {
				return nil
			}
			return newRegistryError(ErrDuplicateType, id, typ.String())
		}
	}
	if prev, ok := r.byType[typ]; ok {
		return newRegistryError(ErrDuplicateType, prev, typ.String())
	}

	for int(id) >= len(r.byID) {
		r.byID = append(r.byID, nil)
	}
	r.byID[id] = &registryEntry{
		id:      id,
		typ:     typ,
		name:    typ.Elem().String(),
		factory: f,
	}
	r.byType[typ] = id
	r.ids = append(r.ids, id)
	return nil
}

func (r *Registry) entry(id TypeID) *registryEntry {
	if r == nil || int(id) >= len(r.byID) {
		return nil
	}
	return r.byID[id]
}

// Create returns a new instance of the type registered under id.
func (r *Registry) Create(id TypeID) (Object, error) {
	e := r.entry(id)
	if e == nil {
		return nil, newRegistryError(ErrInvalidTypeID, id, "")
	}
	return e.factory(), nil
}

// IDOf returns the dynamic type id of obj and verifies it is registered for
// obj's concrete type.
func (r *Registry) IDOf(obj Object) (TypeID, error) {
	id := obj.TypeID()
	e := r.entry(id)
	if e == nil {
		return id, newRegistryError(ErrInvalidTypeID, id, reflect.TypeOf(obj).String())
	}
	if e.typ != reflect.TypeOf(obj) {
		return id, newRegistryError(ErrTypeMismatch, id, reflect.TypeOf(obj).String())
	}
	return id, nil
}

// Lookup returns the id registered for the concrete pointer type t.
func (r *Registry) Lookup(t reflect.Type) (TypeID, bool) {
	if r == nil {
		return 0, false
	}
	id, ok := r.byType[t]
	return id, ok
}

// Name returns the Go type name registered under id.
func (r *Registry) Name(id TypeID) string {
	if e := r.entry(id); e != nil {
		return e.name
	}
	return ""
}

// IDs returns the registered ids in ascending order.
func (r *Registry) IDs() []TypeID {
	if r == nil {
		return nil
	}
	return append([]TypeID(nil), r.ids...)
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ids)
}
