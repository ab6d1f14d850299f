package spool

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrShortRead indicates the byte source ended before a value was complete.
	// It matches io.ErrUnexpectedEOF as well.
	ErrShortRead = fmt.Errorf("short read: %w", io.ErrUnexpectedEOF)

	// ErrRead indicates the underlying reader failed for a reason other than exhaustion.
	ErrRead = errors.New("read failed")

	// ErrWrite indicates the underlying writer failed.
	ErrWrite = errors.New("write failed")

	// ErrInvalidTypeID indicates a type id that is not present in the registry.
	ErrInvalidTypeID = errors.New("invalid type id")

	// ErrTypeMismatch indicates a materialized object is not assignable to the reference type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidVariantIndex indicates a variant discriminant outside the alternative list.
	ErrInvalidVariantIndex = errors.New("invalid variant index")

	// ErrOwnershipConflict indicates exclusive and shared ownership claims on one identity.
	ErrOwnershipConflict = errors.New("ownership conflict")

	// ErrUnsupported indicates a Go type the codec cannot represent.
	ErrUnsupported = errors.New("unsupported type")

	// ErrLengthMismatch indicates a fixed-size array decoded with the wrong element count.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrLengthLimit indicates a container count above the configured maximum.
	ErrLengthLimit = errors.New("length exceeds limit")

	// ErrOutOfRange indicates a decoded value that does not fit its target type.
	ErrOutOfRange = errors.New("value out of range")

	// ErrNotPointer indicates a decode or copy target that is not a non-nil pointer.
	ErrNotPointer = errors.New("target must be a non-nil pointer")

	// ErrDuplicateType indicates two distinct types registered under one type id.
	ErrDuplicateType = errors.New("duplicate type id")

	// ErrSchemaMismatch indicates a manifest that does not match a registry.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Operations reported by CodecError.
const (
	opEncode = "encode"
	opDecode = "decode"
	opCopy   = "copy"
)

// CodecError represents a failed encode, decode or copy.
// Path locates the failing value from the root ("$.Next.Items[3]"), Offset is the
// number of bytes written or consumed when the failure was detected.
type CodecError struct {
	Err    error  // Underlying sentinel error (ErrShortRead, ErrTypeMismatch, etc.)
	Op     string // encode, decode or copy
	Path   string // Value path from the root
	Offset int64  // Byte offset, -1 for copies
	Cause  error  // Original error, if any
}

func (e *CodecError) Error() string {
	path := "$" + e.Path
	msg := e.Err.Error()
	if e.Offset >= 0 {
		msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, path, msg, e.Cause)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, path, msg)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// RegistryError represents a registry construction or lookup failure.
type RegistryError struct {
	Err      error  // Underlying sentinel error (ErrDuplicateType, ErrInvalidTypeID)
	ID       TypeID // Type id involved
	TypeName string // Go type involved, if known
}

func (e *RegistryError) Error() string {
	if e.TypeName != "" {
		return fmt.Sprintf("%s %d (type %s)", e.Err.Error(), e.ID, e.TypeName)
	}
	return fmt.Sprintf("%s %d", e.Err.Error(), e.ID)
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// SchemaError describes one manifest entry that disagrees with a registry.
type SchemaError struct {
	ID     TypeID
	Name   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: type %d (%s): %s", ErrSchemaMismatch.Error(), e.ID, e.Name, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}

// newCodecError creates a CodecError at the given offset.
func newCodecError(op string, sentinel error, offset int64, cause error) error {
	return &CodecError{
		Err:    sentinel,
		Op:     op,
		Offset: offset,
		Cause:  cause,
	}
}

// newRegistryError creates a RegistryError.
func newRegistryError(sentinel error, id TypeID, typeName string) error {
	return &RegistryError{
		Err:      sentinel,
		ID:       id,
		TypeName: typeName,
	}
}

// withPath prefixes the path of a CodecError with segment.
// Errors returned by user code are wrapped so the path survives.
func withPath(err error, op string, offset int64, segment string) error {
	if err == nil {
		return nil
	}
	var ce *CodecError
	if errors.As(err, &ce) {
		ce.Path = segment + ce.Path
		return err
	}
	return &CodecError{Err: err, Op: op, Path: segment, Offset: offset}
}

func fieldSegment(name string) string { return "." + name }

func indexSegment(i int) string { return fmt.Sprintf("[%d]", i) }

func keySegment(k any) string { return fmt.Sprintf("[%v]", k) }
