package spool

import "reflect"

// Override interfaces allow types to bypass reflection-based field walking.
// When a struct's pointer implements one of these, the Encoder, Decoder or
// Copier calls the method instead of visiting fields itself. Implementations
// usually delegate back with Fields and add or reorder what they need.

// SelfEncoder writes the receiver's payload.
type SelfEncoder interface {
	EncodeSelf(e *Encoder) error
}

// SelfDecoder reads the receiver's payload in place.
type SelfDecoder interface {
	DecodeSelf(d *Decoder) error
}

// SelfCopier deep copies src, a value of the receiver's dynamic type, into the receiver.
type SelfCopier interface {
	CopyFrom(c *Copier, src any) error
}

// TypeID identifies a polymorphic type on the wire.
type TypeID uint32

// Object is the contract every polymorphic type satisfies.
//
// TypeID must return the id the type is registered under and must not depend on
// receiver state. Embedding a base struct and overriding all four methods keeps
// base fields first when the methods delegate to Fields:
//
//	type Sensor struct {
//	    Device
//	    Current float64
//	}
//
//	func (*Sensor) TypeID() spool.TypeID                  { return SensorID }
//	func (s *Sensor) EncodeSelf(e *spool.Encoder) error    { return e.Fields(s) }
//	func (s *Sensor) DecodeSelf(d *spool.Decoder) error    { return d.Fields(s) }
//	func (s *Sensor) CopyFrom(c *spool.Copier, src any) error { return c.Fields(s, src) }
type Object interface {
	TypeID() TypeID
	SelfEncoder
	SelfDecoder
	SelfCopier
}

var (
	objectType      = reflect.TypeFor[Object]()
	selfEncoderType = reflect.TypeFor[SelfEncoder]()
	selfDecoderType = reflect.TypeFor[SelfDecoder]()
	selfCopierType  = reflect.TypeFor[SelfCopier]()
)

// isPolymorphic reports whether references of static type t carry a type id.
func isPolymorphic(t reflect.Type) bool {
	return t.Kind() == reflect.Interface || (t.Kind() == reflect.Pointer && t.Implements(objectType))
}

// staticTypeID returns the id a struct type reports through its pointer, if any.
func staticTypeID(t reflect.Type) (TypeID, bool) {
	if t.Kind() != reflect.Struct || !reflect.PointerTo(t).Implements(objectType) {
		return 0, false
	}
	obj, ok := reflect.New(t).Interface().(Object)
	if !ok {
		return 0, false
	}
	return obj.TypeID(), true
}
