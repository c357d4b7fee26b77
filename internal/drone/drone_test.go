package drone

import (
	"math"
	"testing"

	"dronefleet-sim/internal/geo"
	"dronefleet-sim/internal/weather"
)

var testOrigin = geo.Position{Lat: 37.7749, Lon: -122.4194}

func TestStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusIdle, StatusInTransit, true},
		{StatusIdle, StatusCharging, true},
		{StatusIdle, StatusReturning, false},
		{StatusInTransit, StatusIdle, true},
		{StatusInTransit, StatusCharging, false},
		{StatusReturning, StatusIdle, true},
		{StatusCharging, StatusInTransit, false},
		{StatusDelivering, StatusEmergency, true},
		{StatusEmergency, StatusIdle, false},
		{StatusEmergency, StatusMaintenance, true},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestUpdatePosition_AltitudeGate(t *testing.T) {
	d := New(testOrigin, SpecForModel("courier-x1"))
	bad := 1000.0
	before := d.Snapshot()
	if d.UpdatePosition(geo.Position{Lat: 37.78, Lon: -122.41}, &bad, nil) {
		t.Fatal("expected rejection for altitude above envelope")
	}
	after := d.Snapshot()
	if before.Position != after.Position || before.BatteryLevel != after.BatteryLevel {
		t.Error("rejected move mutated state")
	}
	if d.Status() != StatusIdle {
		t.Errorf("altitude rejection should not change status, got %s", d.Status())
	}
}

func TestUpdatePosition_WindGate(t *testing.T) {
	d := New(testOrigin, SpecForModel("courier-x1"))
	gale := weather.Condition{WindSpeed: 25}
	if d.UpdatePosition(geo.Position{Lat: 37.78, Lon: -122.41}, nil, &gale) {
		t.Fatal("expected rejection for wind above model limit")
	}
	if d.Status() != StatusIdle {
		t.Errorf("wind rejection should not change status, got %s", d.Status())
	}
}

func TestUpdatePosition_EmergencyReserve(t *testing.T) {
	d := New(testOrigin, SpecForModel("courier-x1"))
	d.BatteryLevel = 21
	d.CurrentDelivery = &Delivery{Destination: geo.Position{Lat: 37.79, Lon: -122.40}, PayloadWeight: 2.5}
	wx := weather.Condition{WindSpeed: 14}
	pos := d.Position
	if d.UpdatePosition(geo.Position{Lat: 37.79, Lon: -122.40}, nil, &wx) {
		t.Fatal("expected rejection when the reserve would be breached")
	}
	if d.Status() != StatusEmergency {
		t.Errorf("reserve breach should force EMERGENCY, got %s", d.Status())
	}
	if d.Position != pos {
		t.Error("rejected move should not change position")
	}
	if d.BatteryLevel < EmergencyReserve {
		t.Errorf("battery %f fell below the reserve", d.BatteryLevel)
	}
}

func TestUpdatePosition_CommitsAndWears(t *testing.T) {
	d := New(testOrigin, SpecForModel("courier-x1"))
	target := geo.Position{Lat: 37.79, Lon: -122.40}
	alt := 120.0
	if !d.UpdatePosition(target, &alt, nil) {
		t.Fatal("expected successful move")
	}
	if d.Position != target || d.Altitude != alt {
		t.Error("move did not commit position/altitude")
	}
	dist := geo.Distance(testOrigin, target)
	wantBattery := 100 - dist*d.Spec.PowerConsumptionRate
	if math.Abs(d.BatteryLevel-wantBattery) > 1e-9 {
		t.Errorf("battery %f, want %f", d.BatteryLevel, wantBattery)
	}
	wantHealth := 100 - dist*wearPerKM
	for name, h := range d.ComponentHealth {
		if math.Abs(h-wantHealth) > 1e-9 {
			t.Errorf("component %s health %f, want %f", name, h, wantHealth)
		}
	}
	if math.Abs(d.MaintenanceScore-wantHealth) > 1e-9 {
		t.Errorf("maintenance score %f, want mean health %f", d.MaintenanceScore, wantHealth)
	}
}

func TestEstimatePower_Factors(t *testing.T) {
	d := New(testOrigin, SpecForModel("courier-x1"))
	base := d.EstimatePower(10, 0, nil)
	loaded := d.EstimatePower(10, 2.5, nil)
	if math.Abs(loaded-base*2) > 1e-9 {
		t.Errorf("full payload should double consumption: base %f, loaded %f", base, loaded)
	}
	wx := weather.Condition{WindSpeed: 15}
	windy := d.EstimatePower(10, 0, &wx)
	if math.Abs(windy-base*2) > 1e-9 {
		t.Errorf("max wind should double consumption: base %f, windy %f", base, windy)
	}
}

func TestCharging_Cycle(t *testing.T) {
	d := New(testOrigin, SpecForModel("courier-x1"))
	d.BatteryLevel = 40
	if !d.StartCharging() {
		t.Fatal("expected idle low-battery drone to start charging")
	}
	if d.Status() != StatusCharging {
		t.Fatalf("status %s, want charging", d.Status())
	}
	d.Charge(1)
	if d.BatteryLevel != 60 {
		t.Errorf("battery %f after 1h, want 60", d.BatteryLevel)
	}
	if d.Status() != StatusCharging {
		t.Errorf("should still be charging at 60%%")
	}
	d.Charge(2)
	if d.Status() != StatusIdle {
		t.Errorf("expected auto-return to idle at >=95%%, got %s", d.Status())
	}

	// Full drones refuse the charger.
	if d.StartCharging() {
		t.Error("nearly full drone should not start charging")
	}
}
