package spool

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
)

// copyRecord is the state of one copied source object.
type copyRecord struct {
	owner  Ownership
	dst    reflect.Value        // concrete pointer to the copy
	blocks map[reflect.Type]any // control block per Shared/Weak element type
}

func (r *copyRecord) block(ref blockRef) any {
	t := ref.refType()
	if b, ok := r.blocks[t]; ok {
		return b
	}
	if r.blocks == nil {
		r.blocks = make(map[reflect.Type]any, 1)
	}
	b := ref.newBlock(r.dst)
	r.blocks[t] = b
	return b
}

// Copier deep copies object graphs in memory.
//
// Each source object is copied once; every later reference to it, through any
// reference kind, is redirected to the same copy, so the copy is isomorphic to the
// source with no shared addresses. Polymorphic objects are created through the
// Registry when one is configured. A Copier is one session and is not safe for
// concurrent use.
type Copier struct {
	reg     *Registry
	records map[objKey]*copyRecord
	err     error
}

// NewCopier returns a Copier. reg may be nil, in which case polymorphic objects
// are allocated from their concrete type.
func NewCopier(reg *Registry) *Copier {
	return &Copier{
		reg:     reg,
		records: make(map[objKey]*copyRecord),
	}
}

// Clone returns a deep copy of v.
func Clone[T any](reg *Registry, v T) (T, error) {
	var dst T
	err := NewCopier(reg).Copy(&dst, &v)
	return dst, err
}

// Copy deep copies *src into *dst. dst and src must be non-nil pointers of the
// same type. Copying a value onto itself does nothing.
func (c *Copier) Copy(dst, src any) error {
	if c.err != nil {
		return c.err
	}
	d, s, err := c.targets(dst, src)
	if err != nil {
		return c.fail(err)
	}
	return c.fail(c.value(d.Elem(), s.Elem()))
}

// Fields copies the exported fields of the struct src points to into the struct
// dst points to. It is the usual body of CopyFrom.
func (c *Copier) Fields(dst, src any) error {
	if c.err != nil {
		return c.err
	}
	d, s, err := c.targets(dst, src)
	if err != nil {
		return c.fail(err)
	}
	if d.Elem().Kind() != reflect.Struct {
		return c.fail(newCodecError(opCopy, ErrNotPointer, -1, fmt.Errorf("%T", dst)))
	}
	if d.Pointer() == s.Pointer() {
		return nil
	}
	return c.fail(c.fields(d.Elem(), s.Elem()))
}

// Clear forgets every copied identity and any prior failure.
func (c *Copier) Clear() {
	clear(c.records)
	c.err = nil
}

// Objects returns the number of source objects copied in this session.
func (c *Copier) Objects() int {
	return len(c.records)
}

func (c *Copier) fail(err error) error {
	if err != nil && c.err == nil {
		c.err = err
	}
	return err
}

func (c *Copier) targets(dst, src any) (reflect.Value, reflect.Value, error) {
	d, s := reflect.ValueOf(dst), reflect.ValueOf(src)
	if d.Kind() != reflect.Pointer || d.IsNil() || s.Kind() != reflect.Pointer || s.IsNil() {
		return d, s, newCodecError(opCopy, ErrNotPointer, -1, fmt.Errorf("%T, %T", dst, src))
	}
	if d.Type() != s.Type() {
		return d, s, newCodecError(opCopy, ErrTypeMismatch, -1, fmt.Errorf("%s into %s", s.Type(), d.Type()))
	}
	return d, s, nil
}

func (c *Copier) unsupported(t reflect.Type) error {
	return newCodecError(opCopy, ErrUnsupported, -1, errors.New(t.String()))
}

// value copies src into the settable dst of the same type.
func (c *Copier) value(dst, src reflect.Value) error {
	if dst.CanAddr() && src.CanAddr() && dst.Addr().Pointer() == src.Addr().Pointer() {
		return nil
	}
	src = addressable(src)

	info := infoOf(dst.Type())
	switch info.class {
	case classScalar, classString, classDuration, classTime, classVoid:
		dst.Set(src)
		return nil
	case classSlice:
		return c.slice(dst, src, info)
	case classArray:
		if info.bulk > 0 {
			dst.Set(src)
			return nil
		}
		return c.elements(dst, src, src.Len())
	case classMap:
		return c.mapValue(dst, src)
	case classStruct:
		if info.selfCopy {
			return dst.Addr().Interface().(SelfCopier).CopyFrom(c, src.Addr().Interface())
		}
		return c.fields(dst, src)
	case classPointer, classInterface:
		rec, err := c.ref(src, OwnershipRaw, dst.Type())
		if err != nil {
			return err
		}
		if rec == nil {
			dst.SetZero()
			return nil
		}
		dst.Set(rec.dst)
		return nil
	case classReference:
		return c.reference(dst.Addr().Interface().(reference), src.Addr().Interface().(reference))
	case classOptional:
		so := src.Addr().Interface().(optional)
		do := dst.Addr().Interface().(optional)
		do.setPresent(so.present())
		if !so.present() {
			return nil
		}
		return c.value(do.slot(), so.slot())
	case classVariant:
		return c.variant(dst.Addr().Interface().(variantValue), src.Addr().Interface().(variantValue))
	case classConst:
		return c.value(dst.Addr().Interface().(constValue).constSlot(), src.Addr().Interface().(constValue).constSlot())
	case classAtomic:
		return c.atomic(dst, src)
	}
	return c.unsupported(dst.Type())
}

func (c *Copier) fields(dst, src reflect.Value) error {
	plan := planFor(dst.Type())
	for _, f := range plan.fields {
		if f.scalar {
			dst.FieldByIndex(f.index).Set(src.FieldByIndex(f.index))
			continue
		}
		if err := c.value(dst.FieldByIndex(f.index), src.FieldByIndex(f.index)); err != nil {
			return withPath(err, opCopy, -1, fieldSegment(f.name))
		}
	}
	return nil
}

func (c *Copier) slice(dst, src reflect.Value, info *typeInfo) error {
	if src.IsNil() {
		dst.SetZero()
		return nil
	}
	n := src.Len()
	s := reflect.MakeSlice(dst.Type(), n, n)
	if info.bulk > 0 {
		reflect.Copy(s, src)
	} else if err := c.elements(s, src, n); err != nil {
		return err
	}
	dst.Set(s)
	return nil
}

func (c *Copier) elements(dst, src reflect.Value, n int) error {
	for i := 0; i < n; i++ {
		if err := c.value(dst.Index(i), src.Index(i)); err != nil {
			return withPath(err, opCopy, -1, indexSegment(i))
		}
	}
	return nil
}

func (c *Copier) mapValue(dst, src reflect.Value) error {
	if src.IsNil() {
		dst.SetZero()
		return nil
	}
	t := dst.Type()
	m := reflect.MakeMapWithSize(t, src.Len())
	iter := src.MapRange()
	for iter.Next() {
		k := reflect.New(t.Key()).Elem()
		if err := c.value(k, iter.Key()); err != nil {
			return withPath(err, opCopy, -1, keySegment(iter.Key()))
		}
		e := reflect.New(t.Elem()).Elem()
		if err := c.value(e, iter.Value()); err != nil {
			return withPath(err, opCopy, -1, keySegment(iter.Key()))
		}
		m.SetMapIndex(k, e)
	}
	dst.Set(m)
	return nil
}

func (c *Copier) variant(dst, src variantValue) error {
	idx, x := src.active()
	alts := src.alternatives()
	if int(idx) >= len(alts) {
		return newCodecError(opCopy, ErrInvalidVariantIndex, -1, nil)
	}
	if x == nil {
		dst.activate(idx, nil)
		return nil
	}
	from := reflect.New(alts[idx]).Elem()
	from.Set(reflect.ValueOf(x))
	slot := reflect.New(alts[idx]).Elem()
	if err := c.value(slot, from); err != nil {
		return err
	}
	dst.activate(idx, slot.Interface())
	return nil
}

func (c *Copier) atomic(dst, src reflect.Value) error {
	switch d := dst.Addr().Interface().(type) {
	case *atomic.Bool:
		d.Store(src.Addr().Interface().(*atomic.Bool).Load())
	case *atomic.Int32:
		d.Store(src.Addr().Interface().(*atomic.Int32).Load())
	case *atomic.Int64:
		d.Store(src.Addr().Interface().(*atomic.Int64).Load())
	case *atomic.Uint32:
		d.Store(src.Addr().Interface().(*atomic.Uint32).Load())
	case *atomic.Uint64:
		d.Store(src.Addr().Interface().(*atomic.Uint64).Load())
	default:
		return c.unsupported(dst.Type())
	}
	return nil
}

// reference copies a Unique, Shared or Weak. Weak sources are locked first; an
// expired source yields an empty copy.
func (c *Copier) reference(dst, src reference) error {
	rec, err := c.ref(src.load(), src.ownership(), dst.refType())
	if err != nil {
		return err
	}
	if rec == nil {
		dst.clear()
		return nil
	}
	switch ref := dst.(type) {
	case uniqueRef:
		ref.store(rec.dst)
	case blockRef:
		ref.bind(rec.block(ref))
	}
	return nil
}

// ref resolves the copy of the object src designates, copying it on first visit.
func (c *Copier) ref(src reflect.Value, kind Ownership, static reflect.Type) (*copyRecord, error) {
	p, ok := concrete(src)
	if !ok {
		return nil, c.unsupported(src.Type())
	}
	if !p.IsValid() {
		return nil, nil
	}

	key := keyOf(p)
	if rec, seen := c.records[key]; seen {
		owner, err := claim(rec.owner, kind)
		if err != nil {
			return nil, newCodecError(opCopy, ErrOwnershipConflict, -1, fmt.Errorf("%s: %w", p.Type(), err))
		}
		rec.owner = owner
		return rec, nil
	}

	obj, isObj := p.Interface().(Object)
	var dst reflect.Value
	switch {
	case isObj && c.reg != nil:
		created, err := c.reg.Create(obj.TypeID())
		if err != nil {
			return nil, newCodecError(opCopy, ErrInvalidTypeID, -1, err)
		}
		dst = reflect.ValueOf(created)
		if dst.Type() != p.Type() {
			return nil, newCodecError(opCopy, ErrTypeMismatch, -1, fmt.Errorf("registry made %s for %s", dst.Type(), p.Type()))
		}
	default:
		dst = reflect.New(p.Type().Elem())
	}
	if !dst.Type().AssignableTo(static) {
		return nil, newCodecError(opCopy, ErrTypeMismatch, -1, fmt.Errorf("%s is not assignable to %s", dst.Type(), static))
	}

	owner, _ := claim(OwnershipRaw, kind)
	rec := &copyRecord{owner: owner, dst: dst}
	c.records[key] = rec

	var err error
	if isObj {
		err = dst.Interface().(Object).CopyFrom(c, obj)
	} else {
		err = c.value(dst.Elem(), p.Elem())
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
