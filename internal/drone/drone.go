// Package drone models per-drone physical and operational state.
//
// A Drone is a record with operations, not a goroutine. All mutation goes
// through the fleet coordinator's table lock; the type itself carries no
// locking.
package drone

import (
	"time"

	"github.com/google/uuid"

	"dronefleet-sim/internal/geo"
	"dronefleet-sim/internal/weather"
)

const (
	// EmergencyReserve is the battery percentage that must remain after
	// any movement. Breaching it forces EMERGENCY.
	EmergencyReserve = 20.0

	chargeRatePerHour   = 20.0
	chargeFullThreshold = 95.0

	// wearPerKM is the component wear in health points per kilometer flown.
	wearPerKM = 0.01
)

// componentNames are the monitored subsystems.
var componentNames = []string{"motors", "battery", "propellers", "controllers", "sensors"}

// Delivery is the payload currently carried, if any.
type Delivery struct {
	Destination   geo.Position `json:"destination"`
	PayloadWeight float64      `json:"payload_weight"`
}

// Drone is the mutable state of one fleet member.
type Drone struct {
	ID               string
	Spec             Specification
	Position         geo.Position
	Altitude         float64
	BatteryLevel     float64
	MaintenanceScore float64
	ComponentHealth  map[string]float64
	CurrentDelivery  *Delivery
	TotalFlightHours float64
	LastUpdated      time.Time

	status Status
}

// New creates an idle, fully charged drone at pos.
func New(pos geo.Position, spec Specification) *Drone {
	health := make(map[string]float64, len(componentNames))
	for _, name := range componentNames {
		health[name] = 100
	}
	return &Drone{
		ID:               uuid.New().String(),
		Spec:             spec,
		Position:         pos,
		Altitude:         100,
		BatteryLevel:     100,
		MaintenanceScore: 100,
		ComponentHealth:  health,
		LastUpdated:      time.Now(),
		status:           StatusIdle,
	}
}

// Status returns the current operational state.
func (d *Drone) Status() Status { return d.status }

// TransitionTo moves the drone to next if the transition table allows it.
func (d *Drone) TransitionTo(next Status) bool {
	if !d.status.CanTransitionTo(next) {
		return false
	}
	d.status = next
	return true
}

// UpdatePosition moves the drone, consuming battery and accruing wear.
// The move is rejected without mutation when the target altitude is outside
// the envelope or the wind exceeds the model limit. A move that would leave
// the battery below the emergency reserve is rejected and forces EMERGENCY.
func (d *Drone) UpdatePosition(newPos geo.Position, newAltitude *float64, wx *weather.Condition) bool {
	distance := geo.Distance(d.Position, newPos)

	if newAltitude != nil && (*newAltitude < d.Spec.MinAltitude || *newAltitude > d.Spec.MaxAltitude) {
		return false
	}
	if wx != nil && wx.WindSpeed > d.Spec.MaxWindSpeed {
		return false
	}

	payload := 0.0
	if d.CurrentDelivery != nil {
		payload = d.CurrentDelivery.PayloadWeight
	}
	power := d.EstimatePower(distance, payload, wx)
	if d.BatteryLevel-power < EmergencyReserve {
		d.status = StatusEmergency
		return false
	}

	d.Position = newPos
	if newAltitude != nil {
		d.Altitude = *newAltitude
	}
	d.BatteryLevel -= power
	if d.Spec.MaxSpeed > 0 {
		d.TotalFlightHours += distance / (d.Spec.MaxSpeed * 3.6)
	}
	d.LastUpdated = time.Now()
	d.applyWear(distance)
	return true
}

// EstimatePower returns the battery percentage a flight of the given
// distance would consume, scaled by payload and head wind.
func (d *Drone) EstimatePower(distanceKM, payloadKg float64, wx *weather.Condition) float64 {
	power := distanceKM * d.Spec.PowerConsumptionRate
	if payloadKg > 0 && d.Spec.MaxPayload > 0 {
		power *= 1 + payloadKg/d.Spec.MaxPayload
	}
	if wx != nil && d.Spec.MaxWindSpeed > 0 {
		power *= 1 + wx.WindSpeed/d.Spec.MaxWindSpeed
	}
	return power
}

func (d *Drone) applyWear(distanceKM float64) {
	wear := distanceKM * wearPerKM
	total := 0.0
	for name, health := range d.ComponentHealth {
		health -= wear
		if health < 0 {
			health = 0
		}
		d.ComponentHealth[name] = health
		total += health
	}
	d.MaintenanceScore = total / float64(len(d.ComponentHealth))
}

// StartCharging puts an idle drone below the full threshold on the charger.
func (d *Drone) StartCharging() bool {
	if d.status != StatusIdle || d.BatteryLevel >= chargeFullThreshold {
		return false
	}
	return d.TransitionTo(StatusCharging)
}

// Charge advances charging by the given duration at 20%/h and returns the
// drone to IDLE once it reaches the full threshold.
func (d *Drone) Charge(hours float64) {
	if d.status != StatusCharging {
		return
	}
	d.BatteryLevel += chargeRatePerHour * hours
	if d.BatteryLevel > 100 {
		d.BatteryLevel = 100
	}
	if d.BatteryLevel >= chargeFullThreshold {
		d.TransitionTo(StatusIdle)
	}
}

// Snapshot is an immutable copy of drone state for queries and telemetry.
type Snapshot struct {
	ID               string             `json:"id"`
	Model            string             `json:"model"`
	Position         geo.Position       `json:"position"`
	Altitude         float64            `json:"altitude"`
	BatteryLevel     float64            `json:"battery_level"`
	Status           Status             `json:"status"`
	MaintenanceScore float64            `json:"maintenance_score"`
	ComponentHealth  map[string]float64 `json:"component_health"`
	CurrentDelivery  *Delivery          `json:"current_delivery,omitempty"`
	TotalFlightHours float64            `json:"total_flight_hours"`
	LastUpdated      time.Time          `json:"last_updated"`
}

// Snapshot copies the drone state.
func (d *Drone) Snapshot() Snapshot {
	health := make(map[string]float64, len(d.ComponentHealth))
	for k, v := range d.ComponentHealth {
		health[k] = v
	}
	var delivery *Delivery
	if d.CurrentDelivery != nil {
		cp := *d.CurrentDelivery
		delivery = &cp
	}
	return Snapshot{
		ID:               d.ID,
		Model:            d.Spec.Model,
		Position:         d.Position,
		Altitude:         d.Altitude,
		BatteryLevel:     d.BatteryLevel,
		Status:           d.status,
		MaintenanceScore: d.MaintenanceScore,
		ComponentHealth:  health,
		CurrentDelivery:  delivery,
		TotalFlightHours: d.TotalFlightHours,
		LastUpdated:      d.LastUpdated,
	}
}
