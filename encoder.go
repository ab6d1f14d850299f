package spool

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"sync/atomic"
	"time"
	"unsafe"
)

// emitted records an identity already written in this session.
type emitted struct {
	id    uint64
	owner Ownership
}

// Encoder writes values and the object graphs reachable from them.
//
// An Encoder is one session: an object reached twice, through any mix of raw
// pointers, Unique, Shared or Weak references, is written once and referenced by
// identity afterwards, across Encode calls. Clear starts a new session.
// An Encoder is not safe for concurrent use.
type Encoder struct {
	w    writer
	reg  *Registry
	cfg  config
	ids  map[objKey]*emitted
	next uint64
	err  error
}

// NewEncoder returns an Encoder writing to w. reg is used to verify polymorphic
// type ids and may be nil.
func NewEncoder(w io.Writer, reg *Registry, opts ...Option) *Encoder {
	return &Encoder{
		w:   writer{w: w},
		reg: reg,
		cfg: newConfig(opts),
		ids: make(map[objKey]*emitted),
	}
}

// Encode writes v. Pointer values are written as raw references.
// After a failure the Encoder returns the same error until Clear is called.
func (e *Encoder) Encode(v any) error {
	if e.err != nil {
		return e.err
	}
	if v == nil {
		return e.fail(newCodecError(opEncode, ErrUnsupported, e.w.n, errors.New("nil interface")))
	}
	return e.fail(e.value(addressable(reflect.ValueOf(v))))
}

// encodeValue writes an addressable value under its static type.
func (e *Encoder) encodeValue(v reflect.Value) error {
	if e.err != nil {
		return e.err
	}
	return e.fail(e.value(v))
}

// Fields writes the exported fields of the struct v points to, in declaration order.
// It is the usual body of EncodeSelf.
func (e *Encoder) Fields(v any) error {
	if e.err != nil {
		return e.err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return e.fail(newCodecError(opEncode, ErrNotPointer, e.w.n, fmt.Errorf("%T", v)))
	}
	return e.fail(e.fields(rv.Elem()))
}

// Clear forgets every emitted identity and any prior failure.
func (e *Encoder) Clear() {
	clear(e.ids)
	e.next = 0
	e.err = nil
}

// Written returns the number of bytes written.
func (e *Encoder) Written() int64 {
	return e.w.n
}

// Objects returns the number of identities assigned in this session.
func (e *Encoder) Objects() int {
	return len(e.ids)
}

func (e *Encoder) fail(err error) error {
	if err != nil && e.err == nil {
		e.err = err
	}
	return err
}

func (e *Encoder) unsupported(t reflect.Type) error {
	return newCodecError(opEncode, ErrUnsupported, e.w.n, errors.New(t.String()))
}

// value writes an addressable value.
func (e *Encoder) value(v reflect.Value) error {
	info := infoOf(v.Type())
	switch info.class {
	case classScalar:
		return e.w.scalar(v)
	case classString:
		return e.w.string(v.String())
	case classSlice:
		return e.slice(v, info)
	case classArray:
		return e.array(v, info)
	case classMap:
		return e.mapValue(v)
	case classStruct:
		if info.selfEnc {
			return v.Addr().Interface().(SelfEncoder).EncodeSelf(e)
		}
		return e.fields(v)
	case classPointer, classInterface:
		return e.ref(v, OwnershipRaw, v.Type())
	case classReference:
		r := v.Addr().Interface().(reference)
		return e.ref(r.load(), r.ownership(), r.refType())
	case classOptional:
		o := v.Addr().Interface().(optional)
		if err := e.w.bool(o.present()); err != nil || !o.present() {
			return err
		}
		return e.value(o.slot())
	case classVariant:
		return e.variant(v.Addr().Interface().(variantValue))
	case classConst:
		return e.value(v.Addr().Interface().(constValue).constSlot())
	case classDuration:
		return e.instant(InstantOf(time.Duration(v.Int())))
	case classTime:
		return e.instant(InstantOfTime(v.Interface().(time.Time)))
	case classAtomic:
		return e.atomic(v)
	}
	return e.unsupported(v.Type())
}

func (e *Encoder) fields(v reflect.Value) error {
	plan := planFor(v.Type())
	for _, f := range plan.fields {
		fv := v.FieldByIndex(f.index)
		var err error
		if f.scalar {
			err = e.w.scalar(fv)
		} else {
			err = e.value(fv)
		}
		if err != nil {
			return withPath(err, opEncode, e.w.n, fieldSegment(f.name))
		}
	}
	return nil
}

func (e *Encoder) slice(v reflect.Value, info *typeInfo) error {
	n := v.Len()
	if err := e.w.count(n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if info.bulk > 0 && hostLittleEndian {
		return e.w.write(unsafe.Slice((*byte)(v.UnsafePointer()), n*info.bulk))
	}
	return e.elements(v, n)
}

func (e *Encoder) array(v reflect.Value, info *typeInfo) error {
	n := v.Len()
	if err := e.w.count(n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	if info.bulk > 0 && hostLittleEndian {
		return e.w.write(unsafe.Slice((*byte)(v.Addr().UnsafePointer()), n*info.bulk))
	}
	return e.elements(v, n)
}

func (e *Encoder) elements(v reflect.Value, n int) error {
	for i := 0; i < n; i++ {
		if err := e.value(v.Index(i)); err != nil {
			return withPath(err, opEncode, e.w.n, indexSegment(i))
		}
	}
	return nil
}

func (e *Encoder) mapValue(v reflect.Value) error {
	keys := v.MapKeys()
	if err := e.w.count(len(keys)); err != nil {
		return err
	}
	if e.cfg.sortedMaps {
		sortKeys(keys)
	}
	for _, k := range keys {
		if err := e.value(addressable(k)); err != nil {
			return withPath(err, opEncode, e.w.n, keySegment(k))
		}
		if err := e.value(addressable(v.MapIndex(k))); err != nil {
			return withPath(err, opEncode, e.w.n, keySegment(k))
		}
	}
	return nil
}

// sortKeys orders keys of ordered kinds. Other key kinds keep map order.
func sortKeys(keys []reflect.Value) {
	if len(keys) < 2 {
		return
	}
	switch keys[0].Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) })
	case reflect.Float32, reflect.Float64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) })
	case reflect.String:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) })
	case reflect.Bool:
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return cmp.Compare(boolOrder(a.Bool()), boolOrder(b.Bool()))
		})
	case reflect.Array:
		if keys[0].Type().Elem().Kind() == reflect.Uint8 {
			slices.SortFunc(keys, func(a, b reflect.Value) int {
				return bytes.Compare(byteArray(a), byteArray(b))
			})
		}
	}
}

func boolOrder(b bool) int {
	if b {
		return 1
	}
	return 0
}

func byteArray(v reflect.Value) []byte {
	b := make([]byte, v.Len())
	reflect.Copy(reflect.ValueOf(b), v)
	return b
}

func (e *Encoder) variant(vv variantValue) error {
	alts := vv.alternatives()
	idx, x := vv.active()
	if int(idx) >= len(alts) {
		return newCodecError(opEncode, ErrInvalidVariantIndex, e.w.n, nil)
	}
	slot := reflect.New(alts[idx]).Elem()
	if x != nil {
		slot.Set(reflect.ValueOf(x))
	}
	if err := e.w.u32(idx); err != nil {
		return err
	}
	return e.value(slot)
}

func (e *Encoder) atomic(v reflect.Value) error {
	switch a := v.Addr().Interface().(type) {
	case *atomic.Bool:
		return e.w.bool(a.Load())
	case *atomic.Int32:
		return e.w.u32(uint32(a.Load()))
	case *atomic.Int64:
		return e.w.i64(a.Load())
	case *atomic.Uint32:
		return e.w.u32(a.Load())
	case *atomic.Uint64:
		return e.w.u64(a.Load())
	}
	return e.unsupported(v.Type())
}

// ref writes a reference of static type static.
//
// Layout: u64 identity (0 for nil), then on first occurrence the u32 type id for
// polymorphic types and the object's payload.
func (e *Encoder) ref(v reflect.Value, kind Ownership, static reflect.Type) error {
	c, ok := concrete(v)
	if !ok {
		return e.unsupported(v.Type())
	}
	if !c.IsValid() {
		return e.w.u64(0)
	}

	key := keyOf(c)
	if rec, seen := e.ids[key]; seen {
		owner, err := claim(rec.owner, kind)
		if err != nil {
			return newCodecError(opEncode, ErrOwnershipConflict, e.w.n, fmt.Errorf("identity %d: %w", rec.id, err))
		}
		rec.owner = owner
		return e.w.u64(rec.id)
	}

	e.next++
	owner, _ := claim(OwnershipRaw, kind)
	e.ids[key] = &emitted{id: e.next, owner: owner}
	if err := e.w.u64(e.next); err != nil {
		return err
	}

	if !isPolymorphic(static) {
		return e.value(c.Elem())
	}
	obj, ok := c.Interface().(Object)
	if !ok {
		return newCodecError(opEncode, ErrUnsupported, e.w.n, fmt.Errorf("%s is not an Object", c.Type()))
	}
	id := obj.TypeID()
	if e.reg != nil {
		if _, err := e.reg.IDOf(obj); err != nil {
			return newCodecError(opEncode, ErrInvalidTypeID, e.w.n, err)
		}
	}
	if err := e.w.u32(uint32(id)); err != nil {
		return err
	}
	return obj.EncodeSelf(e)
}
