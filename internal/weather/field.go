package weather

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"dronefleet-sim/internal/geo"
)

// GridSize is the cell edge length in degrees, roughly 1 km.
const GridSize = 0.01

// forecastHorizonHours is the length of the rolling forecast.
const forecastHorizonHours = 24

// riskPointInterval is the assumed travel time between consecutive route
// points, matching the route planner's point cadence.
const riskPointInterval = 2 * time.Minute

// ErrOutOfBounds is returned for queries outside the simulated region.
var ErrOutOfBounds = errors.New("weather: position outside region bounds")

type cellKey struct {
	i, j int
}

func (k cellKey) center() geo.Position {
	return geo.Position{Lat: float64(k.i) * GridSize, Lon: float64(k.j) * GridSize}
}

// RiskAssessment is the safety verdict for one route point at its
// estimated traversal time.
type RiskAssessment struct {
	Position  geo.Position       `json:"position"`
	Time      time.Time          `json:"time"`
	Condition Condition          `json:"condition"`
	Safe      bool               `json:"safe"`
	Scores    map[string]float64 `json:"scores,omitempty"`
}

// Field owns the weather grid for one region. Reads take the shared lock;
// the periodic Advance is the only writer.
type Field struct {
	bounds geo.Bounds

	mu           sync.RWMutex
	cells        map[cellKey]Condition
	forecast     map[int]map[cellKey]Condition
	forecastBase time.Time
	rng          *rand.Rand

	now func() time.Time
}

// NewField initializes the grid with plausible conditions for every cell in
// bounds. A nil rng falls back to a time-seeded source; tests inject a
// seeded one.
func NewField(bounds geo.Bounds, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	f := &Field{
		bounds:   bounds,
		cells:    make(map[cellKey]Condition),
		forecast: make(map[int]map[cellKey]Condition),
		rng:      rng,
		now:      time.Now,
	}
	for i := int(math.Floor(bounds.MinLat / GridSize)); i <= int(math.Ceil(bounds.MaxLat/GridSize)); i++ {
		for j := int(math.Floor(bounds.MinLon / GridSize)); j <= int(math.Ceil(bounds.MaxLon/GridSize)); j++ {
			f.cells[cellKey{i, j}] = f.genCondition()
		}
	}
	f.forecastBase = f.now()
	return f
}

// Bounds returns the simulated region.
func (f *Field) Bounds() geo.Bounds { return f.bounds }

func (f *Field) genCondition() Condition {
	return Condition{
		Temperature:   15 + f.rng.Float64()*10,
		WindSpeed:     f.rng.Float64() * 10,
		WindDirection: f.rng.Float64() * 360,
		Precipitation: f.rng.Float64() * 2,
		Visibility:    8 + f.rng.Float64()*7,
		Pressure:      995 + f.rng.Float64()*30,
		Turbulence:    f.rng.Float64() * 0.3,
		CloudCoverage: f.rng.Float64() * 60,
	}
}

// ConditionsAt returns the interpolated current conditions at p.
func (f *Field) ConditionsAt(p geo.Position) (Condition, error) {
	if !f.bounds.Contains(p) {
		return Condition{}, ErrOutOfBounds
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return interpolate(p, f.cells), nil
}

// ForecastAt returns interpolated conditions at p for the forecast snapshot
// nearest to at. With no matching snapshot it fails open to the current grid.
func (f *Field) ForecastAt(p geo.Position, at time.Time) (Condition, error) {
	if !f.bounds.Contains(p) {
		return Condition{}, ErrOutOfBounds
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	hours := int(math.Round(at.Sub(f.forecastBase).Hours()))
	if grid, ok := f.forecast[hours]; ok {
		return interpolate(p, grid), nil
	}
	return interpolate(p, f.cells), nil
}

// interpolate computes the inverse-distance-weighted blend of the four grid
// cells surrounding p. Weights are 1/(distance+eps), normalized to sum 1.
func interpolate(p geo.Position, grid map[cellKey]Condition) Condition {
	i0 := int(math.Floor(p.Lat / GridSize))
	j0 := int(math.Floor(p.Lon / GridSize))
	corners := [4]cellKey{
		{i0, j0}, {i0 + 1, j0}, {i0, j0 + 1}, {i0 + 1, j0 + 1},
	}

	const eps = 1e-4
	var out Condition
	total := 0.0
	for _, k := range corners {
		c, ok := grid[k]
		if !ok {
			continue
		}
		w := 1 / (geo.DegreeDistance(p, k.center()) + eps)
		total += w
		out.Temperature += c.Temperature * w
		out.WindSpeed += c.WindSpeed * w
		out.WindDirection += c.WindDirection * w
		out.Precipitation += c.Precipitation * w
		out.Visibility += c.Visibility * w
		out.Pressure += c.Pressure * w
		out.Turbulence += c.Turbulence * w
		out.CloudCoverage += c.CloudCoverage * w
	}
	if total == 0 {
		return Condition{}
	}
	out.Temperature /= total
	out.WindSpeed /= total
	out.WindDirection = math.Mod(out.WindDirection/total, 360)
	out.Precipitation /= total
	out.Visibility /= total
	out.Pressure /= total
	out.Turbulence /= total
	out.CloudCoverage /= total
	return out
}

// Advance evolves every cell by a bounded random walk scaled to the elapsed
// time, then regenerates the rolling 24-hour forecast by stepping hour by
// hour from the current grid with uncertainty growing as the square root of
// hours ahead.
func (f *Field) Advance(delta time.Duration) {
	hours := delta.Hours()
	if hours <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for k, c := range f.cells {
		f.cells[k] = f.evolve(c, hours, 1)
	}

	prev := f.cells
	forecast := make(map[int]map[cellKey]Condition, forecastHorizonHours)
	for h := 1; h <= forecastHorizonHours; h++ {
		grid := make(map[cellKey]Condition, len(prev))
		scale := math.Sqrt(float64(h))
		for k, c := range prev {
			grid[k] = f.evolve(c, 1, scale)
		}
		forecast[h] = grid
		prev = grid
	}
	f.forecast = forecast
	f.forecastBase = f.now()
}

// evolve applies one random-walk step. sigma values are per hour; scale
// widens the walk for forecast uncertainty.
func (f *Field) evolve(c Condition, hours, scale float64) Condition {
	step := func(sigma float64) float64 {
		return f.rng.NormFloat64() * sigma * hours * scale
	}
	return Condition{
		Temperature:   clamp(c.Temperature+step(0.5), -40, 50),
		WindSpeed:     clamp(c.WindSpeed+step(0.3), 0, 40),
		WindDirection: math.Mod(c.WindDirection+step(5)+360, 360),
		Precipitation: clamp(c.Precipitation+step(0.1), 0, 50),
		Visibility:    clamp(c.Visibility+step(0.3), 0.5, 20),
		Pressure:      clamp(c.Pressure+step(0.5), 950, 1050),
		Turbulence:    clamp(c.Turbulence+step(0.02), 0, 1),
		CloudCoverage: clamp(c.CloudCoverage+step(2), 0, 100),
	}
}

// SafeAltitude recommends a flight altitude in meters for p at time at.
// A zero at uses the current grid.
func (f *Field) SafeAltitude(p geo.Position, at time.Time) (float64, error) {
	var (
		c   Condition
		err error
	)
	if at.IsZero() {
		c, err = f.ConditionsAt(p)
	} else {
		c, err = f.ForecastAt(p, at)
	}
	if err != nil {
		return 0, err
	}
	alt := 100.0
	if c.WindSpeed > 5 {
		alt += (c.WindSpeed - 5) * 10
	}
	if c.Visibility < 10 {
		alt += (10 - c.Visibility) * 20
	}
	alt += c.Turbulence * 50
	return alt, nil
}

// FlightRisks assesses each route point at its estimated traversal time,
// assuming two minutes between consecutive points. Points outside the
// region get an unsafe verdict with no scores.
func (f *Field) FlightRisks(route []geo.Position, start time.Time) []RiskAssessment {
	risks := make([]RiskAssessment, 0, len(route))
	for i, p := range route {
		at := start.Add(time.Duration(i) * riskPointInterval)
		c, err := f.ForecastAt(p, at)
		if err != nil {
			risks = append(risks, RiskAssessment{Position: p, Time: at, Safe: false})
			continue
		}
		safe, scores := c.IsSafeForFlight()
		risks = append(risks, RiskAssessment{
			Position:  p,
			Time:      at,
			Condition: c,
			Safe:      safe,
			Scores:    scores,
		})
	}
	return risks
}
