package spool

import (
	"reflect"
	"weak"
)

// References wrap a pointer-like P: a pointer type, or an interface type whose
// dynamic values are pointers. Interface P and pointer P whose target implements
// Object are polymorphic and carry a type id on the wire.

// block is the control block every Shared copy points at.
type block[P any] struct {
	v P
}

// Unique is an exclusive owning reference.
// No other Unique or Shared may own the same object within one graph.
type Unique[P any] struct {
	v P
}

// MakeUnique wraps v as an exclusive owner.
func MakeUnique[P any](v P) Unique[P] {
	return Unique[P]{v: v}
}

// Get returns the owned value.
func (u Unique[P]) Get() P {
	return u.v
}

// IsNil reports whether u owns nothing.
func (u Unique[P]) IsNil() bool {
	return isNilRef(reflect.ValueOf(&u.v).Elem())
}

// Release returns the owned value and leaves u empty.
func (u *Unique[P]) Release() P {
	v := u.v
	var zero P
	u.v = zero
	return v
}

// Shared is a reference-counted owning reference. Copies of a Shared value share
// one control block; Weak observers are created from it.
type Shared[P any] struct {
	b *block[P]
}

// MakeShared creates a new control block owning v.
// Create a Shared once per object and copy it; two blocks for one object are
// two unrelated owners.
func MakeShared[P any](v P) Shared[P] {
	if isNilRef(reflect.ValueOf(&v).Elem()) {
		return Shared[P]{}
	}
	return Shared[P]{b: &block[P]{v: v}}
}

// Get returns the shared value.
func (s Shared[P]) Get() P {
	if s.b == nil {
		var zero P
		return zero
	}
	return s.b.v
}

// IsNil reports whether s owns nothing.
func (s Shared[P]) IsNil() bool {
	return s.b == nil
}

// Owns reports whether s and o share one control block.
func (s Shared[P]) Owns(o Shared[P]) bool {
	return s.b != nil && s.b == o.b
}

// Weak returns a non-owning observer of s.
func (s Shared[P]) Weak() Weak[P] {
	if s.b == nil {
		return Weak[P]{}
	}
	return Weak[P]{p: weak.Make(s.b)}
}

// Weak observes a Shared owner without keeping it alive.
type Weak[P any] struct {
	p weak.Pointer[block[P]]
}

// Lock returns a Shared owner, or an empty one if the object has been collected.
func (w Weak[P]) Lock() Shared[P] {
	return Shared[P]{b: w.p.Value()}
}

// Expired reports whether the observed owner is gone.
func (w Weak[P]) Expired() bool {
	return w.p.Value() == nil
}

// reference is implemented by *Unique, *Shared and *Weak.
type reference interface {
	ownership() Ownership
	refType() reflect.Type
	// load returns the current P value; nil or invalid when empty.
	load() reflect.Value
	clear()
}

// uniqueRef stores a freshly resolved object.
type uniqueRef interface {
	reference
	store(v reflect.Value)
}

// blockRef binds Shared and Weak values to a control block.
type blockRef interface {
	reference
	newBlock(v reflect.Value) any
	bind(b any)
}

var (
	referenceType = reflect.TypeFor[reference]()
	blockRefType  = reflect.TypeFor[blockRef]()
)

func (u *Unique[P]) ownership() Ownership  { return OwnershipUnique }
func (u *Unique[P]) refType() reflect.Type { return reflect.TypeFor[P]() }
func (u *Unique[P]) load() reflect.Value   { return reflect.ValueOf(&u.v).Elem() }
func (u *Unique[P]) clear()                { u.Release() }

func (u *Unique[P]) store(v reflect.Value) {
	reflect.ValueOf(&u.v).Elem().Set(v)
}

func (s *Shared[P]) ownership() Ownership  { return OwnershipShared }
func (s *Shared[P]) refType() reflect.Type { return reflect.TypeFor[P]() }
func (s *Shared[P]) clear()                { s.b = nil }

func (s *Shared[P]) load() reflect.Value {
	if s.b == nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(&s.b.v).Elem()
}

func (s *Shared[P]) newBlock(v reflect.Value) any {
	return newBlock[P](v)
}

func (s *Shared[P]) bind(b any) {
	s.b = b.(*block[P])
}

func (w *Weak[P]) ownership() Ownership  { return OwnershipWeak }
func (w *Weak[P]) refType() reflect.Type { return reflect.TypeFor[P]() }
func (w *Weak[P]) clear()                { w.p = weak.Pointer[block[P]]{} }

func (w *Weak[P]) load() reflect.Value {
	b := w.p.Value()
	if b == nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(&b.v).Elem()
}

func (w *Weak[P]) newBlock(v reflect.Value) any {
	return newBlock[P](v)
}

func (w *Weak[P]) bind(b any) {
	w.p = weak.Make(b.(*block[P]))
}

func newBlock[P any](v reflect.Value) *block[P] {
	b := &block[P]{}
	reflect.ValueOf(&b.v).Elem().Set(v)
	return b
}

// isNilRef reports whether a pointer or interface value refers to nothing.
func isNilRef(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}

// concrete resolves a reference value to the pointer it designates.
// It returns an invalid Value for nil and ok=false for non-pointer targets.
func concrete(v reflect.Value) (reflect.Value, bool) {
	if isNilRef(v) {
		return reflect.Value{}, true
	}
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if v.Kind() != reflect.Pointer {
		return reflect.Value{}, false
	}
	if v.IsNil() {
		return reflect.Value{}, true
	}
	return v, true
}
