package spool

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/zoobzio/sentinel"
)

// Processor encodes, decodes and clones values of type T with lifecycle signals.
//
// Each call runs in its own session, so Processors are safe for concurrent use.
type Processor[T any] struct {
	reg  *Registry
	opts []Option

	// Type metadata
	typeName   string
	descriptor Descriptor
}

// NewProcessor creates a Processor for T. It fails with ErrUnsupported when T
// contains a type the codec cannot represent, such as a channel or function.
func NewProcessor[T any](reg *Registry, opts ...Option) (*Processor[T], error) {
	typ := reflect.TypeFor[T]()
	desc := DescribeType(typ)
	if !desc.valid() {
		return nil, &CodecError{Err: ErrUnsupported, Op: opEncode, Offset: -1, Cause: fmt.Errorf("%s: %s", typ, desc)}
	}

	p := &Processor[T]{
		reg:        reg,
		opts:       opts,
		typeName:   typeNameOf[T](),
		descriptor: desc,
	}

	emitProcessorCreated(context.Background(), p.typeName)
	return p, nil
}

// typeNameOf names T for signals. Struct types, and pointers to them, are scanned
// with sentinel, which also seeds the metadata their field plans look up.
func typeNameOf[T any]() string {
	typ := reflect.TypeFor[T]()
	st := typ
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct && st.Name() != "" {
		if spec, err := sentinel.TryScan[T](); err == nil && spec.PackageName == st.PkgPath() {
			return spec.PackageName + "." + spec.TypeName
		}
	}
	return typ.String()
}

// Descriptor returns the structural descriptor of T.
func (p *Processor[T]) Descriptor() Descriptor {
	return p.descriptor
}

// Encode writes v and everything reachable from it.
func (p *Processor[T]) Encode(ctx context.Context, v T) ([]byte, error) {
	start := time.Now()
	emitEncodeStart(ctx, p.typeName)

	var buf bytes.Buffer
	enc := NewEncoder(&buf, p.reg, p.opts...)

	var retErr error
	defer func() {
		emitEncodeComplete(ctx, p.typeName, buf.Len(), enc.Objects(), time.Since(start), retErr)
	}()

	if err := enc.encodeValue(reflect.ValueOf(&v).Elem()); err != nil {
		retErr = err
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a T written by Encode.
func (p *Processor[T]) Decode(ctx context.Context, data []byte) (T, error) {
	start := time.Now()
	emitDecodeStart(ctx, p.typeName, len(data))

	dec := NewDecoder(bytes.NewReader(data), p.reg, p.opts...)

	var retErr error
	defer func() {
		emitDecodeComplete(ctx, p.typeName, dec.Objects(), time.Since(start), retErr)
	}()

	var out T
	if err := dec.Decode(&out); err != nil {
		retErr = err
		var zero T
		return zero, err
	}
	return out, nil
}

// Clone returns a deep copy of v.
func (p *Processor[T]) Clone(ctx context.Context, v T) (T, error) {
	start := time.Now()
	emitCloneStart(ctx, p.typeName)

	c := NewCopier(p.reg)

	var retErr error
	defer func() {
		emitCloneComplete(ctx, p.typeName, c.Objects(), time.Since(start), retErr)
	}()

	var out T
	if err := c.Copy(&out, &v); err != nil {
		retErr = err
		var zero T
		return zero, err
	}
	return out, nil
}
