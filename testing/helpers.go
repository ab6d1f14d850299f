// Package testing provides fixtures and helpers for spool tests.
//
// The fixtures model a small home automation graph: polymorphic devices held
// through Shared references, sensors that observe their gateway weakly, and
// plain node types for cycles and ownership edge cases.
package testing

import (
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zoobzio/spool"
)

// Type ids of the registered fixtures.
const (
	DeviceID spool.TypeID = iota + 1
	NetworkDeviceID
	SensorID
	TemperatureSensorID
)

// Component is the interface polymorphic fixtures are held through.
type Component interface {
	spool.Object
	Label() string
}

// Device is the base polymorphic fixture.
type Device struct {
	Name   string
	Serial uint64
	Tags   map[string]struct{}
}

func (*Device) TypeID() spool.TypeID                      { return DeviceID }
func (d *Device) EncodeSelf(e *spool.Encoder) error       { return e.Fields(d) }
func (d *Device) DecodeSelf(dec *spool.Decoder) error     { return dec.Fields(d) }
func (d *Device) CopyFrom(c *spool.Copier, src any) error { return c.Fields(d, src) }
func (d *Device) Label() string                           { return d.Name }

// NetworkDevice is a Device with an address and an optional raw uplink.
type NetworkDevice struct {
	Device
	Address [4]byte
	Port    uint16
	Uplink  *NetworkDevice
}

func (*NetworkDevice) TypeID() spool.TypeID                      { return NetworkDeviceID }
func (n *NetworkDevice) EncodeSelf(e *spool.Encoder) error       { return e.Fields(n) }
func (n *NetworkDevice) DecodeSelf(dec *spool.Decoder) error     { return dec.Fields(n) }
func (n *NetworkDevice) CopyFrom(c *spool.Copier, src any) error { return c.Fields(n, src) }

// Sensor samples a value and weakly observes the component it reports to.
type Sensor struct {
	Device
	Current  float64
	Interval time.Duration
	Samples  []float32
	Gateway  spool.Weak[Component]
}

func (*Sensor) TypeID() spool.TypeID                      { return SensorID }
func (s *Sensor) EncodeSelf(e *spool.Encoder) error       { return e.Fields(s) }
func (s *Sensor) DecodeSelf(dec *spool.Decoder) error     { return dec.Fields(s) }
func (s *Sensor) CopyFrom(c *spool.Copier, src any) error { return c.Fields(s, src) }

// TemperatureSensor is a Sensor with a unit and a calibration time.
type TemperatureSensor struct {
	Sensor
	Celsius    bool
	Calibrated time.Time
}

func (*TemperatureSensor) TypeID() spool.TypeID                      { return TemperatureSensorID }
func (t *TemperatureSensor) EncodeSelf(e *spool.Encoder) error       { return e.Fields(t) }
func (t *TemperatureSensor) DecodeSelf(dec *spool.Decoder) error     { return dec.Fields(t) }
func (t *TemperatureSensor) CopyFrom(c *spool.Copier, src any) error { return c.Fields(t, src) }

// Home aggregates every reference kind and most value kinds. Use it through a pointer.
type Home struct {
	Name       string
	Primary    Component
	Devices    []spool.Shared[Component]
	Thermostat spool.Shared[*TemperatureSensor]
	Rooms      map[string]int32
	Mode       spool.Variant2[int32, string]
	Note       spool.Optional[string]
	Revision   spool.Const[uint16]
	Location   spool.Tuple2[float64, float64]
	Uptime     atomic.Int64
}

// Node is a singly linked node with shared ownership of its successor.
type Node struct {
	Name  string
	Value int32
	Next  spool.Shared[*Node]
}

// Link is a node joined by raw pointers.
type Link struct {
	Name string
	Peer *Link
}

// Tree owns its children exclusively and points back at its parent.
type Tree struct {
	Label    string
	Children []spool.Unique[*Tree]
	Parent   *Tree
}

// Watcher observes a Node weakly.
type Watcher struct {
	Owner  spool.Shared[*Node]
	Target spool.Weak[*Node]
}

// Factories returns the factories of every polymorphic fixture.
func Factories() []spool.Factory {
	return []spool.Factory{
		spool.Type[Device](),
		spool.Type[NetworkDevice](),
		spool.Type[Sensor](),
		spool.Type[TemperatureSensor](),
	}
}

// NewRegistry returns a registry of the fixtures, failing t on error.
func NewRegistry(t testing.TB) *spool.Registry {
	t.Helper()
	reg, err := spool.NewRegistry(Factories()...)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	return reg
}

// Ring returns the head of n nodes linked in a Shared cycle, named "n0".."n{n-1}".
func Ring(n int) spool.Shared[*Node] {
	nodes := make([]*Node, n)
	for i := range nodes {
		nodes[i] = &Node{Name: "n" + strconv.Itoa(i), Value: int32(i)}
	}
	shared := make([]spool.Shared[*Node], n)
	for i, node := range nodes {
		shared[i] = spool.MakeShared(node)
	}
	for i, node := range nodes {
		node.Next = shared[(i+1)%n]
	}
	return shared[0]
}

// SampleHome returns a populated Home. Primary aliases the gateway, which is also
// the first shared device, and the thermostat reports to the gateway weakly.
func SampleHome() *Home {
	gateway := &NetworkDevice{
		Device:  Device{Name: "gateway", Serial: 1001, Tags: map[string]struct{}{"core": {}}},
		Address: [4]byte{192, 168, 1, 1},
		Port:    8443,
	}
	gateway.Uplink = gateway

	sharedGateway := spool.MakeShared[Component](gateway)

	thermostat := &TemperatureSensor{
		Sensor: Sensor{
			Device:   Device{Name: "thermostat", Serial: 2002},
			Current:  21.5,
			Interval: 30 * time.Second,
			Samples:  []float32{21.0, 21.25, 21.5},
			Gateway:  sharedGateway.Weak(),
		},
		Celsius:    true,
		Calibrated: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
	}
	sharedThermostat := spool.MakeShared(thermostat)

	motion := &Sensor{
		Device:   Device{Name: "motion", Serial: 3003},
		Interval: time.Second,
		Gateway:  sharedGateway.Weak(),
	}

	h := &Home{
		Name:       "lakehouse",
		Primary:    gateway,
		Devices:    []spool.Shared[Component]{sharedGateway, spool.MakeShared[Component](motion)},
		Thermostat: sharedThermostat,
		Rooms:      map[string]int32{"kitchen": 1, "office": 2, "porch": 3},
		Note:       spool.Some("winterized"),
		Revision:   spool.MakeConst[uint16](7),
		Location:   spool.Tuple2[float64, float64]{V0: 46.5, V1: -84.3},
	}
	h.Mode.Set1("away")
	h.Uptime.Store(86400)
	return h
}
