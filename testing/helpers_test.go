package testing

import (
	"testing"

	"github.com/zoobzio/spool"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry(t)
	if reg.Len() != 4 {
		t.Errorf("Len() = %d, want 4", reg.Len())
	}
	tests := []struct {
		id   spool.TypeID
		name string
	}{
		{DeviceID, "testing.Device"},
		{NetworkDeviceID, "testing.NetworkDevice"},
		{SensorID, "testing.Sensor"},
		{TemperatureSensorID, "testing.TemperatureSensor"},
	}
	for _, tt := range tests {
		obj, err := reg.Create(tt.id)
		if err != nil {
			t.Fatalf("Create(%d) error: %v", tt.id, err)
		}
		if obj.TypeID() != tt.id {
			t.Errorf("Create(%d).TypeID() = %d", tt.id, obj.TypeID())
		}
		if got := reg.Name(tt.id); got != tt.name {
			t.Errorf("Name(%d) = %q, want %q", tt.id, got, tt.name)
		}
	}
}

func TestRing(t *testing.T) {
	head := Ring(3)
	a := head.Get()
	if a.Name != "n0" {
		t.Errorf("head = %q, want n0", a.Name)
	}
	if got := a.Next.Get().Next.Get().Next.Get(); got != a {
		t.Error("ring of 3 should return to its head")
	}
}

func TestSampleHome(t *testing.T) {
	h := SampleHome()
	gw, ok := h.Primary.(*NetworkDevice)
	if !ok {
		t.Fatalf("Primary is %T, want *NetworkDevice", h.Primary)
	}
	if h.Devices[0].Get() != Component(gw) {
		t.Error("first device should alias Primary")
	}
	if gw.Uplink != gw {
		t.Error("gateway uplink should point at itself")
	}
	if h.Thermostat.Get().Gateway.Lock().Get() != Component(gw) {
		t.Error("thermostat should observe the gateway")
	}
	if got, _ := h.Mode.Get1(); got != "away" {
		t.Errorf("Mode = %q, want away", got)
	}
}
