package fleet

import (
	"time"

	"dronefleet-sim/internal/drone"
	"dronefleet-sim/internal/geo"
	"dronefleet-sim/internal/route"
	"dronefleet-sim/internal/weather"
)

// EventType classifies fleet lifecycle events emitted by Tick.
type EventType string

const (
	EventCompleted       EventType = "completed"
	EventAborted         EventType = "aborted"
	EventEmergency       EventType = "emergency"
	EventChargingStarted EventType = "charging_started"
	EventReturned        EventType = "returned"
)

// Event records one lifecycle change during a tick.
type Event struct {
	DroneID    string    `json:"drone_id"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	Type       EventType `json:"type"`
	At         time.Time `json:"at"`
}

// Tick advances every drone one step: in-transit drones move along their
// stored route at the planner's two-minute cadence, charging drones gain
// one tick of charge, returning drones fly back to base, and idle drones
// below the charge trigger go on the charger. Each drone's step commits
// atomically under the table lock.
func (c *Coordinator) Tick() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var events []Event

	for _, id := range c.order {
		d := c.drones[id]
		switch d.Status() {
		case drone.StatusInTransit:
			events = append(events, c.advanceDelivery(d, now)...)
		case drone.StatusCharging:
			d.Charge(c.tickInterval.Hours())
		case drone.StatusReturning:
			events = append(events, c.advanceReturn(d, now)...)
		case drone.StatusIdle:
			if d.BatteryLevel < chargeTriggerBattery && d.StartCharging() {
				events = append(events, Event{DroneID: d.ID, Type: EventChargingStarted, At: now})
			}
		}
		// EMERGENCY is terminal for the core; the external maintenance
		// workflow resolves it.
	}
	return events
}

// advanceDelivery moves an in-transit drone to the route point its elapsed
// time maps to, reacting to unsafe or power-limited updates.
func (c *Coordinator) advanceDelivery(d *drone.Drone, now time.Time) []Event {
	del, ok := c.active[d.ID]
	rt, haveRoute := c.routes[d.ID]
	if !ok || !haveRoute {
		return nil
	}

	elapsed := now.Sub(del.StartTime)
	idx := int(elapsed / route.PointInterval)

	if idx >= len(rt) {
		// Drop-off is instantaneous: the delivery is done and the drone
		// is immediately reusable.
		took := elapsed
		d.CurrentDelivery = nil
		d.TransitionTo(drone.StatusIdle)
		delete(c.routes, d.ID)
		delete(c.active, d.ID)
		c.completed = append(c.completed, completedDelivery{at: now, took: took})
		return []Event{{DroneID: d.ID, DeliveryID: del.ID, Type: EventCompleted, At: now}}
	}

	pt := rt[idx]
	var wx *weather.Condition
	if cond, err := c.weather.ConditionsAt(pt.Position); err == nil {
		wx = &cond
	}
	alt := pt.Altitude
	if d.UpdatePosition(pt.Position, &alt, wx) {
		return nil
	}

	if d.Status() == drone.StatusEmergency {
		// Reserve breach inside UpdatePosition.
		d.CurrentDelivery = nil
		delete(c.routes, d.ID)
		delete(c.active, d.ID)
		c.failed++
		return []Event{{DroneID: d.ID, DeliveryID: del.ID, Type: EventEmergency, At: now}}
	}

	// Unsafe altitude or wind: climb to the recommended safe altitude when
	// it fits the envelope, otherwise abort to base.
	if safeAlt, err := c.weather.SafeAltitude(pt.Position, time.Time{}); err == nil && safeAlt <= c.planner.MaxAltitude() {
		d.UpdatePosition(d.Position, &safeAlt, nil)
		return nil
	}

	d.CurrentDelivery = nil
	d.TransitionTo(drone.StatusReturning)
	delete(c.active, d.ID)
	c.routes[d.ID] = c.planner.Plan(d.Position, c.base, now, c.weather)
	c.returns[d.ID] = returnLeg{start: now}
	c.failed++
	return []Event{{DroneID: d.ID, DeliveryID: del.ID, Type: EventAborted, At: now}}
}

// advanceReturn flies a returning drone along its base route.
func (c *Coordinator) advanceReturn(d *drone.Drone, now time.Time) []Event {
	leg, ok := c.returns[d.ID]
	if !ok {
		leg = returnLeg{start: now}
		c.returns[d.ID] = leg
		c.routes[d.ID] = c.planner.Plan(d.Position, c.base, now, c.weather)
	}
	rt := c.routes[d.ID]

	idx := int(now.Sub(leg.start) / route.PointInterval)
	if idx < len(rt) {
		pt := rt[idx]
		var wx *weather.Condition
		if cond, err := c.weather.ConditionsAt(pt.Position); err == nil {
			wx = &cond
		}
		alt := pt.Altitude
		if !d.UpdatePosition(pt.Position, &alt, wx) && d.Status() == drone.StatusEmergency {
			delete(c.routes, d.ID)
			delete(c.returns, d.ID)
			return []Event{{DroneID: d.ID, Type: EventEmergency, At: now}}
		}
	}

	if idx >= len(rt) || geo.Distance(d.Position, c.base) < arrivalToleranceKM {
		d.TransitionTo(drone.StatusIdle)
		delete(c.routes, d.ID)
		delete(c.returns, d.ID)
		return []Event{{DroneID: d.ID, Type: EventReturned, At: now}}
	}
	return nil
}
