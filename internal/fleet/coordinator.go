// Package fleet coordinates the drone collection: delivery assignment,
// periodic progression, and aggregate queries.
package fleet

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"dronefleet-sim/internal/drone"
	"dronefleet-sim/internal/geo"
	"dronefleet-sim/internal/route"
	"dronefleet-sim/internal/weather"
)

// Availability gates for delivery assignment.
const (
	minAssignableMaintenance = 80.0
	minAssignableBattery     = 30.0

	// chargeTriggerBattery is the level at which an idle drone is put on
	// the charger during a tick.
	chargeTriggerBattery = 30.0

	// arrivalToleranceKM is how close to base a returning drone must get
	// before it goes idle.
	arrivalToleranceKM = 0.05
)

// ErrDroneNotFound is returned by queries for unknown drone IDs.
var ErrDroneNotFound = errors.New("fleet: drone not found")

// ActiveDelivery is the record kept for one in-flight delivery.
type ActiveDelivery struct {
	ID            string       `json:"id"`
	Destination   geo.Position `json:"destination"`
	PayloadWeight float64      `json:"payload_weight"`
	StartTime     time.Time    `json:"start_time"`
}

type completedDelivery struct {
	at   time.Time
	took time.Duration
}

// returnLeg tracks progress of a drone flying back to base.
type returnLeg struct {
	start time.Time
}

// Status aggregates fleet-wide counters and per-drone snapshots.
type Status struct {
	Total            int              `json:"total"`
	Available        int              `json:"available"`
	ActiveDeliveries int              `json:"active_deliveries"`
	AverageBattery   float64          `json:"average_battery"`
	Utilization      float64          `json:"utilization"`
	Drones           []drone.Snapshot `json:"drones"`
}

// Coordinator owns the drone table. Every structural mutation happens under
// one exclusive lock so assignment scoring always observes a consistent
// availability snapshot and ticks never race assignments.
type Coordinator struct {
	mu sync.Mutex

	base    geo.Position
	planner *route.Planner
	weather *weather.Field

	drones map[string]*drone.Drone
	order  []string

	routes  map[string][]route.Point
	active  map[string]*ActiveDelivery
	returns map[string]returnLeg

	completed []completedDelivery
	failed    int

	tickInterval time.Duration
	now          func() time.Time
}

// New creates a coordinator for the given base, weather field, and planner.
// tickInterval is the host's tick period, used to advance charging.
func New(base geo.Position, field *weather.Field, planner *route.Planner, tickInterval time.Duration) *Coordinator {
	return &Coordinator{
		base:         base,
		planner:      planner,
		weather:      field,
		drones:       make(map[string]*drone.Drone),
		routes:       make(map[string][]route.Point),
		active:       make(map[string]*ActiveDelivery),
		returns:      make(map[string]returnLeg),
		tickInterval: tickInterval,
		now:          time.Now,
	}
}

// AddDrone inserts d into the fleet and returns its ID.
func (c *Coordinator) AddDrone(d *drone.Drone) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drones[d.ID] = d
	c.order = append(c.order, d.ID)
	return d.ID
}

// RemoveDrone removes an idle drone from the fleet.
func (c *Coordinator) RemoveDrone(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drones[id]
	if !ok || d.Status() != drone.StatusIdle {
		return false
	}
	delete(c.drones, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// availableLocked filters to assignable drones in stable insertion order.
func (c *Coordinator) availableLocked() []*drone.Drone {
	var out []*drone.Drone
	for _, id := range c.order {
		d := c.drones[id]
		if d.Status() == drone.StatusIdle &&
			d.MaintenanceScore >= minAssignableMaintenance &&
			d.BatteryLevel >= minAssignableBattery {
			out = append(out, d)
		}
	}
	return out
}

// AvailableDrones returns snapshots of drones eligible for assignment.
func (c *Coordinator) AvailableDrones() []drone.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	cands := c.availableLocked()
	out := make([]drone.Snapshot, len(cands))
	for i, d := range cands {
		out[i] = d.Snapshot()
	}
	return out
}

// AssignDelivery plans a route per candidate, scores them, and assigns the
// delivery to the winner. It returns the winning drone's ID, or false when
// no drone qualifies.
func (c *Coordinator) AssignDelivery(destination geo.Position, payloadWeight float64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	candidates := c.availableLocked()
	if len(candidates) == 0 {
		return "", false
	}

	now := c.now()
	var (
		best      *drone.Drone
		bestRoute []route.Point
		bestScore = -1.0
	)
	for _, d := range candidates {
		rt := c.planner.Plan(d.Position, destination, now, c.weather)
		if len(rt) == 0 {
			// The planner's fallback makes this unreachable; guard anyway.
			continue
		}
		score := c.scoreCandidate(d, rt, destination, payloadWeight)
		if score > bestScore {
			best, bestRoute, bestScore = d, rt, score
		}
	}
	if best == nil {
		return "", false
	}

	best.CurrentDelivery = &drone.Delivery{Destination: destination, PayloadWeight: payloadWeight}
	best.TransitionTo(drone.StatusInTransit)
	c.routes[best.ID] = bestRoute
	c.active[best.ID] = &ActiveDelivery{
		ID:            uuid.New().String(),
		Destination:   destination,
		PayloadWeight: payloadWeight,
		StartTime:     now,
	}
	return best.ID, true
}

// scoreCandidate weighs maintenance, battery headroom, and route length:
// 0.4*maintenance + 0.4*battery + 0.2*distance, with the battery score
// derived from the estimated consumption for the whole route and the
// distance score referenced to a 10 km route.
func (c *Coordinator) scoreCandidate(d *drone.Drone, rt []route.Point, destination geo.Position, payloadWeight float64) float64 {
	routeKM := route.TotalDistance(rt)

	var wx *weather.Condition
	if cond, err := c.weather.ConditionsAt(destination); err == nil {
		wx = &cond
	}
	estimated := d.EstimatePower(routeKM, payloadWeight, wx)

	batteryScore := 0.0
	if d.BatteryLevel > 0 {
		batteryScore = 100 * (1 - estimated/d.BatteryLevel)
	}
	distanceScore := 100 * (1 / (1 + routeKM/10))

	return 0.4*d.MaintenanceScore + 0.4*batteryScore + 0.2*distanceScore
}

// EmergencyReturn plans a route back to base, forces EMERGENCY with the
// route override, and discards any in-progress delivery.
func (c *Coordinator) EmergencyReturn(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drones[id]
	if !ok {
		return false
	}
	if _, had := c.active[id]; had {
		c.failed++
		delete(c.active, id)
	}
	d.CurrentDelivery = nil
	d.TransitionTo(drone.StatusEmergency)
	c.routes[id] = c.planner.Plan(d.Position, c.base, c.now(), c.weather)
	delete(c.returns, id)
	return true
}

// FleetStatus returns aggregate counters and per-drone snapshots.
func (c *Coordinator) FleetStatus() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Total:            len(c.drones),
		Available:        len(c.availableLocked()),
		ActiveDeliveries: len(c.active),
	}
	activeDrones := 0
	for _, id := range c.order {
		d := c.drones[id]
		st.Drones = append(st.Drones, d.Snapshot())
		st.AverageBattery += d.BatteryLevel
		if d.Status() != drone.StatusIdle {
			activeDrones++
		}
	}
	if st.Total > 0 {
		st.AverageBattery /= float64(st.Total)
		st.Utilization = float64(activeDrones) / float64(st.Total)
	}
	return st
}

// Drone returns a snapshot of one drone.
func (c *Coordinator) Drone(id string) (drone.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drones[id]
	if !ok {
		return drone.Snapshot{}, ErrDroneNotFound
	}
	return d.Snapshot(), nil
}

// RouteFor returns a copy of the stored route for a drone, if any.
func (c *Coordinator) RouteFor(id string) ([]route.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rt, ok := c.routes[id]
	if !ok {
		return nil, false
	}
	out := make([]route.Point, len(rt))
	copy(out, rt)
	return out, true
}

// CompletedDeliveries counts deliveries completed at or after since.
// A zero since counts all of them.
func (c *Coordinator) CompletedDeliveries(since time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if since.IsZero() {
		return len(c.completed)
	}
	n := 0
	for _, rec := range c.completed {
		if !rec.at.Before(since) {
			n++
		}
	}
	return n
}

// AverageDeliveryTime returns the mean duration of completed deliveries.
func (c *Coordinator) AverageDeliveryTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.completed) == 0 {
		return 0
	}
	var total time.Duration
	for _, rec := range c.completed {
		total += rec.took
	}
	return total / time.Duration(len(c.completed))
}

// FailedDeliveries returns the count of aborted or failed deliveries.
func (c *Coordinator) FailedDeliveries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}
