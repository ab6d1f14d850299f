package spool

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"reflect"
)

// hostLittleEndian reports whether in-memory scalars already match the wire layout.
var hostLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// writer emits fixed-width little-endian scalars and counts bytes written.
type writer struct {
	w   io.Writer
	n   int64
	buf [16]byte
}

func (w *writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err != nil {
		return newCodecError(opEncode, ErrWrite, w.n, err)
	}
	return nil
}

func (w *writer) u8(v uint8) error {
	w.buf[0] = v
	return w.write(w.buf[:1])
}

func (w *writer) bool(v bool) error {
	if v {
		return w.u8(1)
	}
	return w.u8(0)
}

func (w *writer) u16(v uint16) error {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	return w.write(w.buf[:2])
}

func (w *writer) u32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.write(w.buf[:4])
}

func (w *writer) u64(v uint64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	return w.write(w.buf[:8])
}

func (w *writer) i64(v int64) error { return w.u64(uint64(v)) }

func (w *writer) f32(v float32) error { return w.u32(math.Float32bits(v)) }

func (w *writer) f64(v float64) error { return w.u64(math.Float64bits(v)) }

// count writes a container length.
func (w *writer) count(n int) error {
	if uint64(n) > math.MaxUint32 {
		return newCodecError(opEncode, ErrLengthLimit, w.n, nil)
	}
	return w.u32(uint32(n))
}

func (w *writer) string(s string) error {
	if err := w.count(len(s)); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	n, err := io.WriteString(w.w, s)
	w.n += int64(n)
	if err != nil {
		return newCodecError(opEncode, ErrWrite, w.n, err)
	}
	return nil
}

// scalar writes a value whose kind is a fixed-width scalar.
func (w *writer) scalar(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		return w.bool(v.Bool())
	case reflect.Int8:
		return w.u8(uint8(v.Int()))
	case reflect.Int16:
		return w.u16(uint16(v.Int()))
	case reflect.Int32:
		return w.u32(uint32(v.Int()))
	case reflect.Int64, reflect.Int:
		return w.i64(v.Int())
	case reflect.Uint8:
		return w.u8(uint8(v.Uint()))
	case reflect.Uint16:
		return w.u16(uint16(v.Uint()))
	case reflect.Uint32:
		return w.u32(uint32(v.Uint()))
	case reflect.Uint64, reflect.Uint:
		return w.u64(v.Uint())
	case reflect.Float32:
		return w.f32(float32(v.Float()))
	case reflect.Float64:
		return w.f64(v.Float())
	case reflect.Complex64:
		c := v.Complex()
		if err := w.f32(float32(real(c))); err != nil {
			return err
		}
		return w.f32(float32(imag(c)))
	case reflect.Complex128:
		c := v.Complex()
		if err := w.f64(real(c)); err != nil {
			return err
		}
		return w.f64(imag(c))
	}
	return newCodecError(opEncode, ErrUnsupported, w.n, errors.New(v.Type().String()))
}

// reader consumes fixed-width little-endian scalars and counts bytes read.
type reader struct {
	r   io.Reader
	n   int64
	buf [16]byte
}

func (r *reader) fill(p []byte) error {
	n, err := io.ReadFull(r.r, p)
	r.n += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return newCodecError(opDecode, ErrShortRead, r.n, nil)
		}
		return newCodecError(opDecode, ErrRead, r.n, err)
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	if err := r.fill(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *reader) bool() (bool, error) {
	b, err := r.u8()
	return b != 0, err
}

func (r *reader) u16() (uint16, error) {
	if err := r.fill(r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.buf[:2]), nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.fill(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.buf[:4]), nil
}

func (r *reader) u64() (uint64, error) {
	if err := r.fill(r.buf[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.buf[:8]), nil
}

func (r *reader) i64() (int64, error) {
	v, err := r.u64()
	return int64(v), err
}

func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	return math.Float32frombits(v), err
}

func (r *reader) f64() (float64, error) {
	v, err := r.u64()
	return math.Float64frombits(v), err
}

// count reads a container length and checks it against limit.
func (r *reader) count(limit uint32) (int, error) {
	n, err := r.u32()
	if err != nil {
		return 0, err
	}
	if n > limit {
		return 0, newCodecError(opDecode, ErrLengthLimit, r.n, nil)
	}
	return int(n), nil
}

func (r *reader) string(limit uint32) (string, error) {
	n, err := r.count(limit)
	if err != nil || n == 0 {
		return "", err
	}
	b := make([]byte, n)
	if err := r.fill(b); err != nil {
		return "", err
	}
	return string(b), nil
}

// scalar reads into v, whose kind is a fixed-width scalar.
func (r *reader) scalar(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		b, err := r.bool()
		v.SetBool(b)
		return err
	case reflect.Int8:
		x, err := r.u8()
		v.SetInt(int64(int8(x)))
		return err
	case reflect.Int16:
		x, err := r.u16()
		v.SetInt(int64(int16(x)))
		return err
	case reflect.Int32:
		x, err := r.u32()
		v.SetInt(int64(int32(x)))
		return err
	case reflect.Int64, reflect.Int:
		x, err := r.i64()
		if err == nil && v.OverflowInt(x) {
			return newCodecError(opDecode, ErrOutOfRange, r.n, nil)
		}
		v.SetInt(x)
		return err
	case reflect.Uint8:
		x, err := r.u8()
		v.SetUint(uint64(x))
		return err
	case reflect.Uint16:
		x, err := r.u16()
		v.SetUint(uint64(x))
		return err
	case reflect.Uint32:
		x, err := r.u32()
		v.SetUint(uint64(x))
		return err
	case reflect.Uint64, reflect.Uint:
		x, err := r.u64()
		if err == nil && v.OverflowUint(x) {
			return newCodecError(opDecode, ErrOutOfRange, r.n, nil)
		}
		v.SetUint(x)
		return err
	case reflect.Float32:
		x, err := r.f32()
		v.SetFloat(float64(x))
		return err
	case reflect.Float64:
		x, err := r.f64()
		v.SetFloat(x)
		return err
	case reflect.Complex64:
		re, err := r.f32()
		if err != nil {
			return err
		}
		im, err := r.f32()
		v.SetComplex(complex(float64(re), float64(im)))
		return err
	case reflect.Complex128:
		re, err := r.f64()
		if err != nil {
			return err
		}
		im, err := r.f64()
		v.SetComplex(complex(re, im))
		return err
	}
	return newCodecError(opDecode, ErrUnsupported, r.n, errors.New(v.Type().String()))
}

// fixedSize returns the in-memory width of kinds that can be bulk copied, or 0.
// bool, int and uint are always coded element by element.
func fixedSize(k reflect.Kind) int {
	switch k {
	case reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64, reflect.Complex64:
		return 8
	case reflect.Complex128:
		return 16
	}
	return 0
}
