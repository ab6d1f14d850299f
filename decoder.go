package spool

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync/atomic"
	"unsafe"
)

// record is the state of one decoded identity.
type record struct {
	owner  Ownership
	ptr    reflect.Value        // concrete pointer to the object
	blocks map[reflect.Type]any // control block per Shared/Weak element type
}

// block returns the control block for ref's element type, creating it around the
// existing object on first use. Creating it is how a raw entry is promoted.
func (r *record) block(ref blockRef) any {
	t := ref.refType()
	if b, ok := r.blocks[t]; ok {
		return b
	}
	if r.blocks == nil {
		r.blocks = make(map[reflect.Type]any, 1)
	}
	b := ref.newBlock(r.ptr)
	r.blocks[t] = b
	return b
}

// weakEdge is a Weak value waiting to be bound once decoding finishes.
type weakEdge struct {
	ref blockRef
	rec *record
}

// Decoder reads values written by an Encoder and rebuilds their object graphs.
//
// Every identity is materialized once and registered before its payload is read,
// so cycles resolve to the object under construction. Weak references are bound
// after the top-level value completes. Records persist across Decode calls until
// Clear, which keeps objects referenced only weakly alive for the session.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	r       reader
	reg     *Registry
	cfg     config
	records map[uint64]*record
	pending []weakEdge
	depth   int
	err     error
}

// NewDecoder returns a Decoder reading from r. reg materializes polymorphic
// objects and may be nil when none are expected.
func NewDecoder(r io.Reader, reg *Registry, opts ...Option) *Decoder {
	return &Decoder{
		r:       reader{r: r},
		reg:     reg,
		cfg:     newConfig(opts),
		records: make(map[uint64]*record),
	}
}

// Decode reads one value into the variable ptr points to.
// After a failure the Decoder returns the same error until Clear is called.
func (d *Decoder) Decode(ptr any) error {
	if d.err != nil {
		return d.err
	}
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return d.fail(newCodecError(opDecode, ErrNotPointer, d.r.n, fmt.Errorf("%T", ptr)))
	}

	d.depth++
	err := d.value(rv.Elem())
	d.depth--
	if err != nil {
		return d.fail(err)
	}
	if d.depth == 0 {
		d.resolve()
	}
	return nil
}

// Fields reads the exported fields of the struct v points to, in declaration order.
// It is the usual body of DecodeSelf.
func (d *Decoder) Fields(v any) error {
	if d.err != nil {
		return d.err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return d.fail(newCodecError(opDecode, ErrNotPointer, d.r.n, fmt.Errorf("%T", v)))
	}
	return d.fail(d.fields(rv.Elem()))
}

// Clear forgets every decoded identity and any prior failure.
func (d *Decoder) Clear() {
	clear(d.records)
	d.pending = nil
	d.depth = 0
	d.err = nil
}

// Consumed returns the number of bytes read.
func (d *Decoder) Consumed() int64 {
	return d.r.n
}

// Objects returns the number of identities materialized in this session.
func (d *Decoder) Objects() int {
	return len(d.records)
}

func (d *Decoder) fail(err error) error {
	if err != nil && d.err == nil {
		d.err = err
	}
	return err
}

func (d *Decoder) unsupported(t reflect.Type) error {
	return newCodecError(opDecode, ErrUnsupported, d.r.n, errors.New(t.String()))
}

// resolve binds deferred weak references to their owners' control blocks.
func (d *Decoder) resolve() {
	d.resolveFrom(0)
}

// resolveFrom binds the weak references deferred since mark. Values decoded into
// temporaries (map entries, variant alternatives) are bound before they are copied out.
func (d *Decoder) resolveFrom(mark int) {
	for _, edge := range d.pending[mark:] {
		edge.ref.bind(edge.rec.block(edge.ref))
	}
	d.pending = d.pending[:mark]
}

// value reads into a settable value.
func (d *Decoder) value(v reflect.Value) error {
	info := infoOf(v.Type())
	switch info.class {
	case classScalar:
		return d.r.scalar(v)
	case classString:
		s, err := d.r.string(d.cfg.maxLength)
		if err != nil {
			return err
		}
		v.SetString(s)
		return nil
	case classSlice:
		return d.slice(v, info)
	case classArray:
		return d.array(v, info)
	case classMap:
		return d.mapValue(v)
	case classStruct:
		if info.selfDec {
			return v.Addr().Interface().(SelfDecoder).DecodeSelf(d)
		}
		return d.fields(v)
	case classPointer, classInterface:
		rec, err := d.ref(OwnershipRaw, v.Type())
		if err != nil {
			return err
		}
		if rec == nil {
			v.SetZero()
			return nil
		}
		v.Set(rec.ptr)
		return nil
	case classReference:
		return d.reference(v.Addr().Interface().(reference))
	case classOptional:
		o := v.Addr().Interface().(optional)
		ok, err := d.r.bool()
		if err != nil {
			return err
		}
		o.setPresent(ok)
		if !ok {
			return nil
		}
		return d.value(o.slot())
	case classVariant:
		return d.variant(v.Addr().Interface().(variantValue))
	case classConst:
		return d.value(v.Addr().Interface().(constValue).constSlot())
	case classDuration:
		inst, err := d.instant()
		if err != nil {
			return err
		}
		dur, ok := inst.Duration()
		if !ok {
			return newCodecError(opDecode, ErrOutOfRange, d.r.n, fmt.Errorf("%d s", inst.Sec))
		}
		v.SetInt(int64(dur))
		return nil
	case classTime:
		inst, err := d.instant()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(inst.Time()))
		return nil
	case classAtomic:
		return d.atomic(v)
	}
	return d.unsupported(v.Type())
}

func (d *Decoder) fields(v reflect.Value) error {
	plan := planFor(v.Type())
	for _, f := range plan.fields {
		fv := v.FieldByIndex(f.index)
		var err error
		if f.scalar {
			err = d.r.scalar(fv)
		} else {
			err = d.value(fv)
		}
		if err != nil {
			return withPath(err, opDecode, d.r.n, fieldSegment(f.name))
		}
	}
	return nil
}

func (d *Decoder) slice(v reflect.Value, info *typeInfo) error {
	n, err := d.r.count(d.cfg.maxLength)
	if err != nil {
		return err
	}
	if n == 0 {
		v.SetZero()
		return nil
	}
	s := reflect.MakeSlice(v.Type(), n, n)
	if info.bulk > 0 && hostLittleEndian {
		if err := d.r.fill(unsafe.Slice((*byte)(s.UnsafePointer()), n*info.bulk)); err != nil {
			return err
		}
	} else if err := d.elements(s, n); err != nil {
		return err
	}
	v.Set(s)
	return nil
}

func (d *Decoder) array(v reflect.Value, info *typeInfo) error {
	n, err := d.r.count(d.cfg.maxLength)
	if err != nil {
		return err
	}
	if n != v.Len() {
		return newCodecError(opDecode, ErrLengthMismatch, d.r.n, fmt.Errorf("got %d elements, want %d", n, v.Len()))
	}
	if n == 0 {
		return nil
	}
	if info.bulk > 0 && hostLittleEndian {
		return d.r.fill(unsafe.Slice((*byte)(v.Addr().UnsafePointer()), n*info.bulk))
	}
	return d.elements(v, n)
}

func (d *Decoder) elements(v reflect.Value, n int) error {
	for i := 0; i < n; i++ {
		if err := d.value(v.Index(i)); err != nil {
			return withPath(err, opDecode, d.r.n, indexSegment(i))
		}
	}
	return nil
}

func (d *Decoder) mapValue(v reflect.Value) error {
	n, err := d.r.count(d.cfg.maxLength)
	if err != nil {
		return err
	}
	if n == 0 {
		v.SetZero()
		return nil
	}
	t := v.Type()
	m := reflect.MakeMapWithSize(t, n)
	mark := len(d.pending)
	for i := 0; i < n; i++ {
		k := reflect.New(t.Key()).Elem()
		if err := d.value(k); err != nil {
			return withPath(err, opDecode, d.r.n, indexSegment(i))
		}
		e := reflect.New(t.Elem()).Elem()
		if err := d.value(e); err != nil {
			return withPath(err, opDecode, d.r.n, keySegment(k))
		}
		d.resolveFrom(mark)
		m.SetMapIndex(k, e)
	}
	v.Set(m)
	return nil
}

func (d *Decoder) variant(vv variantValue) error {
	idx, err := d.r.u32()
	if err != nil {
		return err
	}
	alts := vv.alternatives()
	if int(idx) >= len(alts) {
		return newCodecError(opDecode, ErrInvalidVariantIndex, d.r.n, fmt.Errorf("index %d of %d", idx, len(alts)))
	}
	slot := reflect.New(alts[idx]).Elem()
	mark := len(d.pending)
	if err := d.value(slot); err != nil {
		return err
	}
	d.resolveFrom(mark)
	vv.activate(idx, slot.Interface())
	return nil
}

func (d *Decoder) atomic(v reflect.Value) error {
	switch a := v.Addr().Interface().(type) {
	case *atomic.Bool:
		x, err := d.r.bool()
		a.Store(x)
		return err
	case *atomic.Int32:
		x, err := d.r.u32()
		a.Store(int32(x))
		return err
	case *atomic.Int64:
		x, err := d.r.i64()
		a.Store(x)
		return err
	case *atomic.Uint32:
		x, err := d.r.u32()
		a.Store(x)
		return err
	case *atomic.Uint64:
		x, err := d.r.u64()
		a.Store(x)
		return err
	}
	return d.unsupported(v.Type())
}

func (d *Decoder) reference(r reference) error {
	rec, err := d.ref(r.ownership(), r.refType())
	if err != nil {
		return err
	}
	if rec == nil {
		r.clear()
		return nil
	}
	switch ref := r.(type) {
	case uniqueRef:
		ref.store(rec.ptr)
	case blockRef:
		if r.ownership() == OwnershipWeak {
			d.pending = append(d.pending, weakEdge{ref: ref, rec: rec})
			return nil
		}
		ref.bind(rec.block(ref))
	}
	return nil
}

// ref reads a reference of static type static and returns its record, or nil for
// a null reference.
func (d *Decoder) ref(kind Ownership, static reflect.Type) (*record, error) {
	id, err := d.r.u64()
	if err != nil || id == 0 {
		return nil, err
	}

	if rec, ok := d.records[id]; ok {
		if !rec.ptr.Type().AssignableTo(static) {
			return nil, newCodecError(opDecode, ErrTypeMismatch, d.r.n,
				fmt.Errorf("identity %d is %s, want %s", id, rec.ptr.Type(), static))
		}
		owner, err := claim(rec.owner, kind)
		if err != nil {
			return nil, newCodecError(opDecode, ErrOwnershipConflict, d.r.n, fmt.Errorf("identity %d: %w", id, err))
		}
		rec.owner = owner
		return rec, nil
	}

	poly := isPolymorphic(static)
	var c reflect.Value
	if poly {
		tid, err := d.r.u32()
		if err != nil {
			return nil, err
		}
		obj, err := d.reg.Create(TypeID(tid))
		if err != nil {
			return nil, newCodecError(opDecode, ErrInvalidTypeID, d.r.n, err)
		}
		c = reflect.ValueOf(obj)
	} else {
		if static.Kind() != reflect.Pointer {
			return nil, d.unsupported(static)
		}
		c = reflect.New(static.Elem())
	}
	if !c.Type().AssignableTo(static) {
		return nil, newCodecError(opDecode, ErrTypeMismatch, d.r.n, fmt.Errorf("%s is not assignable to %s", c.Type(), static))
	}

	owner, _ := claim(OwnershipRaw, kind)
	rec := &record{owner: owner, ptr: c}
	d.records[id] = rec

	if poly {
		err = c.Interface().(Object).DecodeSelf(d)
	} else {
		err = d.value(c.Elem())
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
