// Simulator orchestrating the delivery fleet and telemetry ticks
package sim

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"dronefleet-sim/internal/config"
	"dronefleet-sim/internal/demand"
	"dronefleet-sim/internal/drone"
	"dronefleet-sim/internal/fleet"
	"dronefleet-sim/internal/geo"
	"dronefleet-sim/internal/logging"
	"dronefleet-sim/internal/route"
	"dronefleet-sim/internal/telemetry"
	"dronefleet-sim/internal/weather"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.TelemetryRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.TelemetryRow) error
}

// DeliveryEventWriter handles delivery lifecycle events.
type DeliveryEventWriter interface {
	WriteEvent(telemetry.DeliveryEventRow) error
}

// Optional: Event writers may support batch mode
type batchEventWriter interface {
	WriteEvents([]telemetry.DeliveryEventRow) error
}

// eventAssigned is emitted when a request is matched to a drone. The
// remaining event names come from the fleet package.
const eventAssigned = "assigned"

// maxPendingRequests bounds the queue of orders no drone could take yet.
// Oldest requests are dropped beyond this.
const maxPendingRequests = 256

// DeliveryStats summarizes delivery outcomes for the admin surface.
type DeliveryStats struct {
	Completed      int     `json:"completed"`
	Failed         int     `json:"failed"`
	AverageSeconds float64 `json:"average_seconds"`
}

// Simulator owns the fleet coordinator, the weather field, and the demand
// generator, and drives them on a fixed tick.
type Simulator struct {
	clusterID string
	cfg       *config.SimulationConfig

	field   *weather.Field
	planner *route.Planner
	coord   *fleet.Coordinator
	gen     *demand.Generator

	writer      TelemetryWriter
	eventWriter DeliveryEventWriter

	tickInterval time.Duration
	weatherStep  time.Duration

	mu      sync.Mutex
	pending []demand.Request

	log *slog.Logger
	now func() time.Time
}

// NewSimulator initializes the weather field, route planner, fleet, and
// demand generator from the configuration. A nil rng falls back to a
// time-seeded source.
func NewSimulator(clusterID string, cfg *config.SimulationConfig, writer TelemetryWriter, eventWriter DeliveryEventWriter, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	bounds := cfg.Region.Bounds()
	base := cfg.BasePosition()

	minAlt := cfg.MinAltitudeM
	if minAlt <= 0 {
		minAlt = 50
	}
	maxAlt := cfg.MaxAltitudeM
	if maxAlt <= minAlt {
		maxAlt = 400
	}

	field := weather.NewField(bounds, rng)
	planner := route.NewPlanner(bounds, base, minAlt, maxAlt)
	coord := fleet.New(base, field, planner, cfg.TickInterval())

	maxPayload := math.Inf(1)
	for _, fl := range cfg.Fleets {
		spec := drone.SpecForModel(fl.Model)
		if spec.MaxPayload < maxPayload {
			maxPayload = spec.MaxPayload
		}
		for i := 0; i < fl.Count; i++ {
			coord.AddDrone(drone.New(base, spec))
		}
	}
	if math.IsInf(maxPayload, 1) {
		maxPayload = 2.5
	}

	return &Simulator{
		clusterID:    clusterID,
		cfg:          cfg,
		field:        field,
		planner:      planner,
		coord:        coord,
		gen:          demand.NewGenerator(bounds, cfg.DemandRate, maxPayload, rng),
		writer:       writer,
		eventWriter:  eventWriter,
		tickInterval: cfg.TickInterval(),
		weatherStep:  cfg.WeatherStep(),
		log:          slog.Default(),
		now:          time.Now,
	}
}

// Run drives the simulation until ctx is cancelled. The fleet ticks at the
// configured interval; the weather field evolves on its own slower cadence.
func (s *Simulator) Run(ctx context.Context) {
	logger := logging.FromContext(ctx)
	s.mu.Lock()
	s.log = logger
	s.mu.Unlock()

	logger.Info("simulator starting",
		"cluster", s.clusterID,
		"tick", s.tickInterval,
		"weather_step", s.weatherStep,
		"drones", s.coord.FleetStatus().Total)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	weatherTicker := time.NewTicker(s.weatherStep)
	defer weatherTicker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-weatherTicker.C:
			s.field.Advance(s.weatherStep)
		case <-ctx.Done():
			logger.Info("simulator stopping")
			return
		}
	}
}

// tick pulls new demand, assigns what it can, advances the fleet, and
// writes telemetry plus delivery events.
func (s *Simulator) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var events []telemetry.DeliveryEventRow

	s.pending = append(s.pending, s.gen.Step()...)
	remaining := s.pending[:0]
	for _, req := range s.pending {
		row, ok := s.dispatch(req, now)
		if !ok {
			remaining = append(remaining, req)
			continue
		}
		events = append(events, row)
	}
	if len(remaining) > maxPendingRequests {
		remaining = remaining[len(remaining)-maxPendingRequests:]
	}
	s.pending = remaining

	for _, ev := range s.coord.Tick() {
		events = append(events, s.eventRow(ev))
	}

	st := s.coord.FleetStatus()
	batch := make([]telemetry.TelemetryRow, 0, len(st.Drones))
	for _, snap := range st.Drones {
		batch = append(batch, s.rowFor(snap, now))
	}

	if bw, ok := s.writer.(batchWriter); ok {
		if err := bw.WriteBatch(batch); err != nil {
			s.log.Error("telemetry batch write failed", "error", err)
		}
	} else {
		for _, row := range batch {
			if err := s.writer.Write(row); err != nil {
				s.log.Error("telemetry write failed", "drone", row.DroneID, "error", err)
			}
		}
	}

	if len(events) > 0 && s.eventWriter != nil {
		if bw, ok := s.eventWriter.(batchEventWriter); ok {
			if err := bw.WriteEvents(events); err != nil {
				s.log.Error("event batch write failed", "error", err)
			}
		} else {
			for _, ev := range events {
				if err := s.eventWriter.WriteEvent(ev); err != nil {
					s.log.Error("event write failed", "drone", ev.DroneID, "error", err)
				}
			}
		}
	}
}

// dispatch tries to assign one request. The returned row reports the
// assignment when it succeeded.
func (s *Simulator) dispatch(req demand.Request, now time.Time) (telemetry.DeliveryEventRow, bool) {
	id, ok := s.coord.AssignDelivery(req.Destination, req.PayloadWeight)
	if !ok {
		return telemetry.DeliveryEventRow{}, false
	}
	return telemetry.DeliveryEventRow{
		ClusterID:  s.clusterID,
		DroneID:    id,
		DeliveryID: req.ID,
		Event:      eventAssigned,
		Lat:        req.Destination.Lat,
		Lon:        req.Destination.Lon,
		PayloadKg:  req.PayloadWeight,
		Timestamp:  now.UTC(),
	}, true
}

// eventRow converts a fleet event, locating the drone for position context.
func (s *Simulator) eventRow(ev fleet.Event) telemetry.DeliveryEventRow {
	row := telemetry.DeliveryEventRow{
		ClusterID:  s.clusterID,
		DroneID:    ev.DroneID,
		DeliveryID: ev.DeliveryID,
		Event:      string(ev.Type),
		Timestamp:  ev.At.UTC(),
	}
	if snap, err := s.coord.Drone(ev.DroneID); err == nil {
		row.Lat = snap.Position.Lat
		row.Lon = snap.Position.Lon
		if snap.CurrentDelivery != nil {
			row.PayloadKg = snap.CurrentDelivery.PayloadWeight
		}
	}
	return row
}

func (s *Simulator) rowFor(snap drone.Snapshot, now time.Time) telemetry.TelemetryRow {
	return telemetry.TelemetryRow{
		ClusterID:   s.clusterID,
		DroneID:     snap.ID,
		Model:       snap.Model,
		Lat:         snap.Position.Lat,
		Lon:         snap.Position.Lon,
		Alt:         snap.Altitude,
		Battery:     snap.BatteryLevel,
		Maintenance: snap.MaintenanceScore,
		Status:      string(snap.Status),
		Timestamp:   now.UTC(),
	}
}

// FleetStatus returns the coordinator's aggregate view.
func (s *Simulator) FleetStatus() fleet.Status {
	return s.coord.FleetStatus()
}

// DroneSnapshot returns one drone's state.
func (s *Simulator) DroneSnapshot(id string) (drone.Snapshot, error) {
	return s.coord.Drone(id)
}

// RouteFor returns the stored route for a drone, if any.
func (s *Simulator) RouteFor(id string) ([]route.Point, bool) {
	return s.coord.RouteFor(id)
}

// AssignDelivery dispatches an operator-submitted delivery immediately and
// emits the assignment event. It returns the winning drone's ID.
func (s *Simulator) AssignDelivery(destination geo.Position, payloadWeight float64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.dispatch(demand.Request{ID: "", Destination: destination, PayloadWeight: payloadWeight}, s.now())
	if !ok {
		return "", false
	}
	if s.eventWriter != nil {
		if err := s.eventWriter.WriteEvent(row); err != nil {
			s.log.Error("event write failed", "drone", row.DroneID, "error", err)
		}
	}
	return row.DroneID, true
}

// EmergencyReturn aborts a drone's mission and routes it back to base.
func (s *Simulator) EmergencyReturn(id string) bool {
	if !s.coord.EmergencyReturn(id) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventWriter != nil {
		row := s.eventRow(fleet.Event{DroneID: id, Type: fleet.EventEmergency, At: s.now()})
		if err := s.eventWriter.WriteEvent(row); err != nil {
			s.log.Error("event write failed", "drone", id, "error", err)
		}
	}
	return true
}

// WeatherAt assesses conditions at a position, now or at a forecast time.
func (s *Simulator) WeatherAt(p geo.Position, at time.Time) (weather.RiskAssessment, error) {
	var (
		cond weather.Condition
		err  error
	)
	if at.IsZero() {
		at = s.now()
		cond, err = s.field.ConditionsAt(p)
	} else {
		cond, err = s.field.ForecastAt(p, at)
	}
	if err != nil {
		return weather.RiskAssessment{}, err
	}
	safe, scores := cond.IsSafeForFlight()
	return weather.RiskAssessment{
		Position:  p,
		Time:      at,
		Condition: cond,
		Safe:      safe,
		Scores:    scores,
	}, nil
}

// DeliveryStats reports completion counters for the admin surface.
func (s *Simulator) DeliveryStats() DeliveryStats {
	return DeliveryStats{
		Completed:      s.coord.CompletedDeliveries(time.Time{}),
		Failed:         s.coord.FailedDeliveries(),
		AverageSeconds: s.coord.AverageDeliveryTime().Seconds(),
	}
}

// TelemetrySnapshot returns the latest state for all drones.
func (s *Simulator) TelemetrySnapshot() []telemetry.TelemetryRow {
	now := s.now()
	st := s.coord.FleetStatus()
	rows := make([]telemetry.TelemetryRow, 0, len(st.Drones))
	for _, snap := range st.Drones {
		rows = append(rows, s.rowFor(snap, now))
	}
	return rows
}

// GetConfig returns the simulation configuration.
func (s *Simulator) GetConfig() *config.SimulationConfig {
	return s.cfg
}
