package spool_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/zoobzio/spool"
	spooltest "github.com/zoobzio/spool/testing"
)

func TestClone_SharedCycle(t *testing.T) {
	head := spooltest.Ring(3)

	c := spool.NewCopier(nil)
	var out spool.Shared[*spooltest.Node]
	if err := c.Copy(&out, &head); err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	if c.Objects() != 3 {
		t.Errorf("Objects() = %d, want 3", c.Objects())
	}

	src, dst := head.Get(), out.Get()
	for i := 0; i < 3; i++ {
		if src == dst {
			t.Fatalf("node %d shares an address with its source", i)
		}
		if src.Name != dst.Name || src.Value != dst.Value {
			t.Errorf("node %d = %+v, want %+v", i, dst, src)
		}
		src, dst = src.Next.Get(), dst.Next.Get()
	}
	if dst != out.Get() {
		t.Error("copied ring should close on the copied head")
	}
}

func TestClone_Home(t *testing.T) {
	reg := spooltest.NewRegistry(t)
	in := spooltest.SampleHome()

	out, err := spool.Clone(reg, in)
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	if out == in {
		t.Fatal("Clone() returned the source")
	}

	gw := out.Primary.(*spooltest.NetworkDevice)
	if gw == in.Primary {
		t.Error("gateway should be copied")
	}
	if gw.Uplink != gw {
		t.Error("gateway self link should point at the copy")
	}
	if out.Devices[0].Get() != spooltest.Component(gw) {
		t.Error("Primary and Devices[0] should stay one object")
	}
	if !out.Thermostat.Get().Gateway.Lock().Owns(out.Devices[0]) {
		t.Error("thermostat should observe the copied gateway")
	}
	if reflect.ValueOf(out.Rooms).Pointer() == reflect.ValueOf(in.Rooms).Pointer() {
		t.Error("maps should be copied")
	}
	if !reflect.DeepEqual(out.Rooms, in.Rooms) || out.Uptime.Load() != in.Uptime.Load() {
		t.Errorf("values lost: %+v", out)
	}
	if &out.Thermostat.Get().Samples[0] == &in.Thermostat.Get().Samples[0] {
		t.Error("slices should be copied")
	}
	if note, _ := out.Note.Get(); note != "winterized" {
		t.Errorf("Note = %q", note)
	}
}

func TestClone_MatchesDecode(t *testing.T) {
	reg := spooltest.NewRegistry(t)
	in := spooltest.SampleHome()

	cloned, err := spool.Clone(reg, in)
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	a, err := spool.Marshal(reg, in)
	if err != nil {
		t.Fatalf("Marshal(source) error: %v", err)
	}
	b, err := spool.Marshal(reg, cloned)
	if err != nil {
		t.Fatalf("Marshal(clone) error: %v", err)
	}
	if string(a) != string(b) {
		t.Error("a clone should encode to the same bytes as its source")
	}
}

func TestClone_OwnershipConflict(t *testing.T) {
	type pair struct {
		Mine spool.Unique[*spooltest.Node]
		Ours spool.Shared[*spooltest.Node]
	}
	n := &spooltest.Node{}
	in := pair{Mine: spool.MakeUnique(n), Ours: spool.MakeShared(n)}

	var out pair
	err := spool.NewCopier(nil).Copy(&out, &in)
	if !errors.Is(err, spool.ErrOwnershipConflict) {
		t.Fatalf("Copy() error = %v, want ErrOwnershipConflict", err)
	}
	var ce *spool.CodecError
	if errors.As(err, &ce) && ce.Offset != -1 {
		t.Errorf("Offset = %d, want -1 for copies", ce.Offset)
	}
}

func TestClone_SelfCopy(t *testing.T) {
	n := &spooltest.Node{Name: "me", Value: 4}
	if err := spool.NewCopier(nil).Copy(n, n); err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	if n.Name != "me" || n.Value != 4 {
		t.Errorf("self copy changed the value: %+v", n)
	}

	d := &spooltest.Device{Name: "dev"}
	if err := spool.NewCopier(nil).Fields(d, d); err != nil {
		t.Fatalf("Fields() error: %v", err)
	}
	if d.Name != "dev" {
		t.Errorf("Name = %q", d.Name)
	}
}

func TestClone_Targets(t *testing.T) {
	var n spooltest.Node
	var l spooltest.Link
	tests := []struct {
		name     string
		dst, src any
		want     error
	}{
		{"not pointers", n, n, spool.ErrNotPointer},
		{"nil pointer", (*spooltest.Node)(nil), &n, spool.ErrNotPointer},
		{"different types", &n, &l, spool.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := spool.NewCopier(nil).Copy(tt.dst, tt.src); !errors.Is(err, tt.want) {
				t.Errorf("Copy() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClone_WeakExpired(t *testing.T) {
	type watcher struct {
		Target spool.Weak[*spooltest.Node]
	}
	var in watcher
	out := watcher{Target: spool.MakeShared(&spooltest.Node{}).Weak()}

	if err := spool.NewCopier(nil).Copy(&out, &in); err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	if !out.Target.Expired() {
		t.Error("copying an empty weak reference should clear the target")
	}
}

func TestClone_Variant(t *testing.T) {
	type message struct {
		Body spool.Variant3[int32, []string, *spooltest.Link]
	}
	l := &spooltest.Link{Name: "payload"}
	l.Peer = l
	var in message
	in.Body.Set2(l)

	var out message
	if err := spool.NewCopier(nil).Copy(&out, &in); err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	got, ok := out.Body.Get2()
	if !ok || got == l || got.Peer != got || got.Name != "payload" {
		t.Errorf("Body = %+v, %v", got, ok)
	}
}

func TestClone_SessionSharesCopies(t *testing.T) {
	shared := &spooltest.Link{Name: "shared"}
	a := &spooltest.Link{Name: "a", Peer: shared}
	b := &spooltest.Link{Name: "b", Peer: shared}

	c := spool.NewCopier(nil)
	var ca, cb *spooltest.Link
	if err := c.Copy(&ca, &a); err != nil {
		t.Fatalf("Copy(a) error: %v", err)
	}
	if err := c.Copy(&cb, &b); err != nil {
		t.Fatalf("Copy(b) error: %v", err)
	}
	if ca.Peer != cb.Peer || ca.Peer == shared {
		t.Error("one Copier session should copy a shared object once")
	}

	c.Clear()
	var again *spooltest.Link
	if err := c.Copy(&again, &a); err != nil {
		t.Fatalf("Copy() error: %v", err)
	}
	if again.Peer == ca.Peer {
		t.Error("Clear should start a new session")
	}
}

func TestClone_WithoutRegistry(t *testing.T) {
	ts := &spooltest.TemperatureSensor{Celsius: true}
	var in spooltest.Component = ts

	out, err := spool.Clone[spooltest.Component](nil, in)
	if err != nil {
		t.Fatalf("Clone() error: %v", err)
	}
	got, ok := out.(*spooltest.TemperatureSensor)
	if !ok || got == ts || !got.Celsius {
		t.Errorf("Clone() = %#v", out)
	}
}
