package spool

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type drawing struct {
	Title  string
	Shapes []Shared[shape]
	Focus  Weak[shape]
}

func TestNewProcessor(t *testing.T) {
	proc, err := NewProcessor[drawing](shapeRegistry())
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}
	if !proc.Descriptor().Equal(Describe[drawing]()) {
		t.Errorf("Descriptor() = %v", proc.Descriptor())
	}
	if !strings.Contains(proc.typeName, "drawing") {
		t.Errorf("typeName = %q, want drawing", proc.typeName)
	}
}

func TestNewProcessor_Unsupported(t *testing.T) {
	_, err := NewProcessor[struct{ Done chan struct{} }](nil)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("NewProcessor() error = %v, want ErrUnsupported", err)
	}
}

func TestProcessor_RoundTrip(t *testing.T) {
	ctx := context.Background()
	proc, err := NewProcessor[drawing](shapeRegistry())
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}

	sq := MakeShared[shape](&square{Side: 2})
	in := drawing{
		Title:  "plan",
		Shapes: []Shared[shape]{sq, MakeShared[shape](&label{Text: "door", Shape: sq.Get()})},
		Focus:  sq.Weak(),
	}

	data, err := proc.Encode(ctx, in)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	out, err := proc.Decode(ctx, data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if out.Title != "plan" || len(out.Shapes) != 2 {
		t.Fatalf("Decode() = %+v", out)
	}
	if out.Shapes[1].Get().(*label).Shape != out.Shapes[0].Get() {
		t.Error("label should point at the decoded square")
	}
	if !out.Focus.Lock().Owns(out.Shapes[0]) {
		t.Error("focus should observe the decoded square")
	}

	cloned, err := proc.Clone(ctx, in)
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if cloned.Shapes[0].Get() == in.Shapes[0].Get() || cloned.Shapes[0].Get().Area() != 4 {
		t.Errorf("Clone() = %+v", cloned)
	}
}

func TestProcessor_DecodeError(t *testing.T) {
	proc, err := NewProcessor[drawing](shapeRegistry())
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}
	if _, err := proc.Decode(context.Background(), []byte{3, 0}); !errors.Is(err, ErrShortRead) {
		t.Errorf("Decode() error = %v, want ErrShortRead", err)
	}
}

func TestProcessor_Options(t *testing.T) {
	proc, err := NewProcessor[[]uint8](nil, WithMaxLength(4))
	if err != nil {
		t.Fatalf("NewProcessor() error: %v", err)
	}
	data, err := proc.Encode(context.Background(), []uint8{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if _, err := proc.Decode(context.Background(), data); !errors.Is(err, ErrLengthLimit) {
		t.Errorf("Decode() error = %v, want ErrLengthLimit", err)
	}
}

func TestUse_Caches(t *testing.T) {
	Reset()
	defer Reset()

	reg := shapeRegistry()
	a, err := Use[drawing](reg)
	if err != nil {
		t.Fatalf("Use() error: %v", err)
	}
	b, err := Use[drawing](reg)
	if err != nil {
		t.Fatalf("Use() error: %v", err)
	}
	if a != b {
		t.Error("Use() should return the cached processor")
	}

	other, err := Use[drawing](shapeRegistry())
	if err != nil {
		t.Fatalf("Use() error: %v", err)
	}
	if other == a {
		t.Error("processors are cached per registry")
	}

	Reset()
	c, err := Use[drawing](reg)
	if err != nil {
		t.Fatalf("Use() error: %v", err)
	}
	if c == a {
		t.Error("Reset() should clear the cache")
	}
}

func TestUse_Error(t *testing.T) {
	Reset()
	defer Reset()
	if _, err := Use[func()](nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Use() error = %v, want ErrUnsupported", err)
	}
}

func TestCodec(t *testing.T) {
	c := NewCodec(shapeRegistry())
	if c.ContentType() != ContentType {
		t.Errorf("ContentType() = %q", c.ContentType())
	}

	in := []shape{&square{Side: 5}}
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var out []shape
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if out[0].Area() != 25 {
		t.Errorf("Area() = %v, want 25", out[0].Area())
	}
}
