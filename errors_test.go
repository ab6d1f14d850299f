package spool

import (
	"errors"
	"io"
	"testing"
)

func TestCodecError_Is(t *testing.T) {
	err := newCodecError(opDecode, ErrTypeMismatch, 12, errors.New("*Sensor into *Device"))

	if !errors.Is(err, ErrTypeMismatch) {
		t.Error("CodecError should unwrap to ErrTypeMismatch")
	}

	if errors.Is(err, ErrOwnershipConflict) {
		t.Error("CodecError should not match ErrOwnershipConflict")
	}
}

func TestCodecError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "offset and cause",
			err:  newCodecError(opDecode, ErrInvalidTypeID, 8, errors.New("id 99")),
			want: "decode $: invalid type id at offset 8: id 99",
		},
		{
			name: "copy without offset",
			err:  &CodecError{Err: ErrOwnershipConflict, Op: opCopy, Path: ".Next", Offset: -1},
			want: "copy $.Next: ownership conflict",
		},
		{
			name: "path only",
			err:  &CodecError{Err: ErrLengthMismatch, Op: opDecode, Path: ".Grid[2]", Offset: 40},
			want: "decode $.Grid[2]: length mismatch at offset 40",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithPath(t *testing.T) {
	err := newCodecError(opEncode, ErrUnsupported, 4, nil)
	err = withPath(err, opEncode, 4, indexSegment(3))
	err = withPath(err, opEncode, 4, fieldSegment("Items"))
	err = withPath(err, opEncode, 4, keySegment("kitchen"))

	var ce *CodecError
	if !errors.As(err, &ce) {
		t.Fatalf("withPath() should keep a *CodecError, got %T", err)
	}
	if ce.Path != "[kitchen].Items[3]" {
		t.Errorf("Path = %q, want %q", ce.Path, "[kitchen].Items[3]")
	}
}

func TestWithPath_WrapsForeignErrors(t *testing.T) {
	cause := errors.New("sensor offline")
	err := withPath(cause, opDecode, 17, fieldSegment("Current"))

	if !errors.Is(err, cause) {
		t.Error("wrapped error should match its cause")
	}
	var ce *CodecError
	if !errors.As(err, &ce) || ce.Offset != 17 || ce.Path != ".Current" {
		t.Errorf("withPath() = %#v", err)
	}
	if withPath(nil, opDecode, 0, ".X") != nil {
		t.Error("withPath(nil) should be nil")
	}
}

func TestShortRead_MatchesUnexpectedEOF(t *testing.T) {
	err := newCodecError(opDecode, ErrShortRead, 3, nil)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("ErrShortRead should match io.ErrUnexpectedEOF")
	}
}

func TestRegistryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"with type", newRegistryError(ErrDuplicateType, 4, "*home.Sensor"), "duplicate type id 4 (type *home.Sensor)"},
		{"id only", newRegistryError(ErrInvalidTypeID, 99, ""), "invalid type id 99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if !errors.Is(newRegistryError(ErrDuplicateType, 1, ""), ErrDuplicateType) {
		t.Error("RegistryError should unwrap to ErrDuplicateType")
	}
}

func TestSchemaError(t *testing.T) {
	err := &SchemaError{ID: 2, Name: "home.Sensor", Reason: "layout differs"}
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Error("SchemaError should match ErrSchemaMismatch")
	}
	want := "schema mismatch: type 2 (home.Sensor): layout differs"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestSentinelErrors_Distinct(t *testing.T) {
	sentinels := []error{
		ErrShortRead, ErrRead, ErrWrite, ErrInvalidTypeID, ErrTypeMismatch,
		ErrInvalidVariantIndex, ErrOwnershipConflict, ErrUnsupported, ErrLengthMismatch,
		ErrLengthLimit, ErrOutOfRange, ErrNotPointer, ErrDuplicateType, ErrSchemaMismatch,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}
