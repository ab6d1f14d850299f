package spool

import "reflect"

// Optional holds a value or nothing. It is written as a presence byte followed by
// the value when present.
type Optional[T any] struct {
	value T
	valid bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, valid: true}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the held value and whether one is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

// Valid reports whether a value is present.
func (o Optional[T]) Valid() bool {
	return o.valid
}

type optional interface {
	optionalElem() reflect.Type
	present() bool
	setPresent(ok bool)
	slot() reflect.Value
}

func (o *Optional[T]) optionalElem() reflect.Type { return reflect.TypeFor[T]() }
func (o *Optional[T]) present() bool              { return o.valid }
func (o *Optional[T]) slot() reflect.Value        { return reflect.ValueOf(&o.value).Elem() }

func (o *Optional[T]) setPresent(ok bool) {
	o.valid = ok
	if !ok {
		var zero T
		o.value = zero
	}
}

// variant is the storage shared by all VariantN types.
type variant struct {
	index uint32
	value any
}

// Index returns the active alternative.
func (v *variant) Index() int { return int(v.index) }

// Value returns the active alternative's value, or nil for a zero variant.
func (v *variant) Value() any { return v.value }

func (v *variant) active() (uint32, any) { return v.index, v.value }

func (v *variant) activate(i uint32, x any) {
	v.index = i
	v.value = x
}

type variantValue interface {
	alternatives() []reflect.Type
	active() (uint32, any)
	activate(i uint32, x any)
}

func variantGet[T any](v *variant, i uint32) (T, bool) {
	if v.index != i {
		var zero T
		return zero, false
	}
	x, ok := v.value.(T)
	return x, ok
}

// Variant2 holds exactly one of A or B. It is written as a u32 alternative index
// followed by the active value. A zero Variant2 holds the zero A.
type Variant2[A, B any] struct {
	variant
}

// Set0 activates the first alternative.
func (v *Variant2[A, B]) Set0(a A) { v.activate(0, a) }

// Set1 activates the second alternative.
func (v *Variant2[A, B]) Set1(b B) { v.activate(1, b) }

// Get0 returns the first alternative if active.
func (v *Variant2[A, B]) Get0() (A, bool) { return variantGet[A](&v.variant, 0) }

// Get1 returns the second alternative if active.
func (v *Variant2[A, B]) Get1() (B, bool) { return variantGet[B](&v.variant, 1) }

func (v *Variant2[A, B]) alternatives() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B]()}
}

// Variant3 holds exactly one of A, B or C.
type Variant3[A, B, C any] struct {
	variant
}

// Set0 activates the first alternative.
func (v *Variant3[A, B, C]) Set0(a A) { v.activate(0, a) }

// Set1 activates the second alternative.
func (v *Variant3[A, B, C]) Set1(b B) { v.activate(1, b) }

// Set2 activates the third alternative.
func (v *Variant3[A, B, C]) Set2(c C) { v.activate(2, c) }

// Get0 returns the first alternative if active.
func (v *Variant3[A, B, C]) Get0() (A, bool) { return variantGet[A](&v.variant, 0) }

// Get1 returns the second alternative if active.
func (v *Variant3[A, B, C]) Get1() (B, bool) { return variantGet[B](&v.variant, 1) }

// Get2 returns the third alternative if active.
func (v *Variant3[A, B, C]) Get2() (C, bool) { return variantGet[C](&v.variant, 2) }

func (v *Variant3[A, B, C]) alternatives() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C]()}
}

// Variant4 holds exactly one of A, B, C or D.
type Variant4[A, B, C, D any] struct {
	variant
}

// Set0 activates the first alternative.
func (v *Variant4[A, B, C, D]) Set0(a A) { v.activate(0, a) }

// Set1 activates the second alternative.
func (v *Variant4[A, B, C, D]) Set1(b B) { v.activate(1, b) }

// Set2 activates the third alternative.
func (v *Variant4[A, B, C, D]) Set2(c C) { v.activate(2, c) }

// Set3 activates the fourth alternative.
func (v *Variant4[A, B, C, D]) Set3(d D) { v.activate(3, d) }

// Get0 returns the first alternative if active.
func (v *Variant4[A, B, C, D]) Get0() (A, bool) { return variantGet[A](&v.variant, 0) }

// Get1 returns the second alternative if active.
func (v *Variant4[A, B, C, D]) Get1() (B, bool) { return variantGet[B](&v.variant, 1) }

// Get2 returns the third alternative if active.
func (v *Variant4[A, B, C, D]) Get2() (C, bool) { return variantGet[C](&v.variant, 2) }

// Get3 returns the fourth alternative if active.
func (v *Variant4[A, B, C, D]) Get3() (D, bool) { return variantGet[D](&v.variant, 3) }

func (v *Variant4[A, B, C, D]) alternatives() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[A](), reflect.TypeFor[B](), reflect.TypeFor[C](), reflect.TypeFor[D]()}
}

// Tuple2 is an ordered pair written without framing.
type Tuple2[A, B any] struct {
	V0 A
	V1 B
}

func (Tuple2[A, B]) tuple() {}

// Tuple3 is an ordered triple written without framing.
type Tuple3[A, B, C any] struct {
	V0 A
	V1 B
	V2 C
}

func (Tuple3[A, B, C]) tuple() {}

type tupleValue interface {
	tuple()
}

// Const is a read-only value. It is written exactly as T and restored once on decode.
type Const[T any] struct {
	v T
}

// MakeConst wraps v.
func MakeConst[T any](v T) Const[T] {
	return Const[T]{v: v}
}

// Get returns the wrapped value.
func (c Const[T]) Get() T {
	return c.v
}

type constValue interface {
	constElem() reflect.Type
	constSlot() reflect.Value
}

func (c *Const[T]) constElem() reflect.Type  { return reflect.TypeFor[T]() }
func (c *Const[T]) constSlot() reflect.Value { return reflect.ValueOf(&c.v).Elem() }

var (
	optionalType = reflect.TypeFor[optional]()
	variantType  = reflect.TypeFor[variantValue]()
	tupleType    = reflect.TypeFor[tupleValue]()
	constType    = reflect.TypeFor[constValue]()
)
