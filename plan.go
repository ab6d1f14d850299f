package spool

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register the field tag with sentinel
	sentinel.Tag("spool")
}

// class is the coding strategy chosen for a Go type.
type class uint8

const (
	classUnsupported class = iota
	classScalar
	classString
	classSlice
	classArray
	classMap
	classStruct
	classPointer
	classInterface
	classReference
	classOptional
	classVariant
	classConst
	classDuration
	classTime
	classAtomic
	classVoid
)

// typeInfo is the cached coding strategy for one type.
type typeInfo struct {
	class    class
	bulk     int  // element width for bulk-copied slices and arrays
	selfEnc  bool // pointer implements SelfEncoder
	selfDec  bool // pointer implements SelfDecoder
	selfCopy bool // pointer implements SelfCopier
}

var (
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
	voidType     = reflect.TypeFor[unsafe.Pointer]()

	atomicTypes = map[reflect.Type]reflect.Type{
		reflect.TypeFor[atomic.Bool]():   reflect.TypeFor[bool](),
		reflect.TypeFor[atomic.Int32]():  reflect.TypeFor[int32](),
		reflect.TypeFor[atomic.Int64]():  reflect.TypeFor[int64](),
		reflect.TypeFor[atomic.Uint32](): reflect.TypeFor[uint32](),
		reflect.TypeFor[atomic.Uint64](): reflect.TypeFor[uint64](),
	}

	infos sync.Map // reflect.Type -> *typeInfo
	plans sync.Map // reflect.Type -> *structPlan
)

// infoOf returns the cached typeInfo for t.
func infoOf(t reflect.Type) *typeInfo {
	if cached, ok := infos.Load(t); ok {
		return cached.(*typeInfo)
	}
	info := classify(t)
	actual, _ := infos.LoadOrStore(t, info)
	return actual.(*typeInfo)
}

func classify(t reflect.Type) *typeInfo {
	info := &typeInfo{}
	pt := reflect.PointerTo(t)

	switch {
	case t == durationType:
		info.class = classDuration
		return info
	case t == timeType:
		info.class = classTime
		return info
	case t == voidType:
		info.class = classVoid
		return info
	}
	if _, ok := atomicTypes[t]; ok {
		info.class = classAtomic
		return info
	}
	switch {
	case pt.Implements(referenceType):
		info.class = classReference
		return info
	case pt.Implements(optionalType):
		info.class = classOptional
		return info
	case pt.Implements(variantType):
		info.class = classVariant
		return info
	case pt.Implements(constType):
		info.class = classConst
		return info
	}

	if isScalarKind(t.Kind()) {
		info.class = classScalar
		return info
	}
	switch t.Kind() {
	case reflect.String:
		info.class = classString
	case reflect.Slice:
		info.class = classSlice
		info.bulk = fixedSize(t.Elem().Kind())
	case reflect.Array:
		info.class = classArray
		info.bulk = fixedSize(t.Elem().Kind())
	case reflect.Map:
		info.class = classMap
	case reflect.Struct:
		info.class = classStruct
		info.selfEnc = pt.Implements(selfEncoderType)
		info.selfDec = pt.Implements(selfDecoderType)
		info.selfCopy = pt.Implements(selfCopierType)
	case reflect.Pointer:
		info.class = classPointer
	case reflect.Interface:
		info.class = classInterface
	}
	return info
}

// isScalarKind reports whether k is coded as fixed-width little-endian bytes.
func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// structPlan lists the coded fields of a struct in declaration order.
type structPlan struct {
	typeName string
	fields   []fieldPlan
}

// fieldPlan describes how to reach a single field.
type fieldPlan struct {
	index []int        // reflect.Value.FieldByIndex access path
	name  string       // field name for error paths
	typ   reflect.Type // declared type

	// scalar fields are read and written directly, skipping class lookup
	scalar bool
}

// planFor returns the cached plan for struct type t.
func planFor(t reflect.Type) *structPlan {
	if cached, ok := plans.Load(t); ok {
		return cached.(*structPlan)
	}
	plan := buildPlan(scanStruct(t))
	actual, _ := plans.LoadOrStore(t, plan)
	return actual.(*structPlan)
}

func buildPlan(spec sentinel.Metadata) *structPlan {
	plan := &structPlan{
		typeName: spec.TypeName,
		fields:   make([]fieldPlan, 0, len(spec.Fields)),
	}
	for _, field := range spec.Fields {
		if field.Tags["spool"] == "-" {
			continue
		}
		plan.fields = append(plan.fields, fieldPlan{
			index:  field.Index,
			name:   field.Name,
			typ:    field.ReflectType,
			scalar: scalarField(field),
		})
	}
	return plan
}

// scalarField reports whether a field can bypass classification. Durations are
// int64 to sentinel but coded as instants.
func scalarField(field sentinel.FieldMetadata) bool {
	return field.Kind == sentinel.KindScalar &&
		field.ReflectType != durationType &&
		isScalarKind(field.ReflectType.Kind())
}

// scanStruct collects exported field metadata for rt, preferring metadata sentinel
// has already scanned. Embedded exported structs stay whole so base fields are
// coded first.
func scanStruct(rt reflect.Type) sentinel.Metadata {
	if rt.Name() != "" {
		if spec, ok := sentinel.Lookup(rt.Name()); ok && describes(spec, rt) {
			return spec
		}
	}

	spec := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        make(map[string]string),
		}
		if val, ok := sf.Tag.Lookup("spool"); ok {
			fm.Tags["spool"] = val
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		spec.Fields = append(spec.Fields, fm)
	}

	return spec
}

// describes reports whether spec was scanned from rt. sentinel keys its cache by
// bare type name, so same-named types from other packages must be rejected.
func describes(spec sentinel.Metadata, rt reflect.Type) bool {
	if spec.PackageName != rt.PkgPath() || spec.TypeName != rt.Name() {
		return false
	}
	exported := 0
	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).IsExported() {
			exported++
		}
	}
	if len(spec.Fields) != exported {
		return false
	}
	for _, f := range spec.Fields {
		if len(f.Index) != 1 || f.Index[0] >= rt.NumField() {
			return false
		}
		sf := rt.Field(f.Index[0])
		if sf.Name != f.Name || sf.Type != f.ReflectType {
			return false
		}
	}
	return true
}

// addressable returns v itself when it can be addressed, otherwise an addressable copy.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

// objKey identifies an object by address and concrete pointer type.
// Distinct types at one address (a struct and its first field) are distinct objects.
type objKey struct {
	ptr unsafe.Pointer
	typ reflect.Type
}

func keyOf(p reflect.Value) objKey {
	return objKey{ptr: p.UnsafePointer(), typ: p.Type()}
}
