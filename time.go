package spool

import (
	"fmt"
	"math"
	"time"
)

const (
	attoPerNano = 1_000_000_000
	attoPerSec  = 1_000_000_000_000_000_000
)

// Instant is the wire form of durations and time points: whole seconds plus
// attoseconds, both carrying the sign of the value. It represents any duration of
// any tick size without loss.
type Instant struct {
	Sec  int64
	Atto int64
}

// InstantOf splits d toward zero.
func InstantOf(d time.Duration) Instant {
	sec := int64(d / time.Second)
	rem := int64(d % time.Second)
	return Instant{Sec: sec, Atto: rem * attoPerNano}
}

// InstantOfTime measures t from the Unix epoch.
func InstantOfTime(t time.Time) Instant {
	sec := t.Unix()
	nsec := int64(t.Nanosecond())
	if sec < 0 && nsec > 0 {
		sec++
		nsec -= int64(time.Second)
	}
	return Instant{Sec: sec, Atto: nsec * attoPerNano}
}

// Valid reports whether Atto is less than one second in magnitude and does not
// disagree with the sign of Sec.
func (i Instant) Valid() bool {
	if i.Atto <= -attoPerSec || i.Atto >= attoPerSec {
		return false
	}
	return !(i.Sec > 0 && i.Atto < 0) && !(i.Sec < 0 && i.Atto > 0)
}

// Duration converts i to nanoseconds, truncating sub-nanosecond precision.
// ok is false when i does not fit in a time.Duration.
func (i Instant) Duration() (d time.Duration, ok bool) {
	const maxSec = math.MaxInt64 / int64(time.Second)
	if i.Sec > maxSec || i.Sec < -maxSec {
		return 0, false
	}
	ns := i.Sec*int64(time.Second) + i.Atto/attoPerNano
	if (i.Sec > 0 && ns < 0) || (i.Sec < 0 && ns > 0) {
		return 0, false
	}
	return time.Duration(ns), true
}

// Time converts i to a UTC time point, truncating sub-nanosecond precision.
func (i Instant) Time() time.Time {
	return time.Unix(i.Sec, i.Atto/attoPerNano).UTC()
}

// Float converts i to a count of unit, rounding to the nearest representable value.
func (i Instant) Float(unit time.Duration) float64 {
	u := float64(unit)
	return (float64(i.Sec)*float64(time.Second) + float64(i.Atto)/attoPerNano) / u
}

func (e *Encoder) instant(i Instant) error {
	if err := e.w.i64(i.Sec); err != nil {
		return err
	}
	return e.w.i64(i.Atto)
}

func (d *Decoder) instant() (Instant, error) {
	sec, err := d.r.i64()
	if err != nil {
		return Instant{}, err
	}
	atto, err := d.r.i64()
	if err != nil {
		return Instant{}, err
	}
	i := Instant{Sec: sec, Atto: atto}
	if !i.Valid() {
		return Instant{}, newCodecError(opDecode, ErrOutOfRange, d.r.n, fmt.Errorf("%d s %d as", sec, atto))
	}
	return i, nil
}
