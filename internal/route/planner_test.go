package route

import (
	"testing"
	"time"

	"dronefleet-sim/internal/geo"
	"dronefleet-sim/internal/weather"
)

var (
	testBounds = geo.Bounds{MinLat: 37.75, MinLon: -122.43, MaxLat: 37.80, MaxLon: -122.39}
	testBase   = geo.Position{Lat: 37.7749, Lon: -122.4194}
)

func newTestPlanner() *Planner {
	return NewPlanner(testBounds, testBase, 50, 400)
}

// stubWeather reports fixed conditions everywhere.
type stubWeather struct {
	cond weather.Condition
}

func (s stubWeather) ConditionsAt(geo.Position) (weather.Condition, error) {
	return s.cond, nil
}

func TestPlan_EndpointsMatch(t *testing.T) {
	p := newTestPlanner()
	start := geo.Position{Lat: 37.76, Lon: -122.42}
	end := geo.Position{Lat: 37.79, Lon: -122.40}
	depart := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)

	pts := p.Plan(start, end, depart, nil)
	if len(pts) == 0 {
		t.Fatal("Plan returned empty route")
	}
	if pts[0].Position != start {
		t.Errorf("first point %v, want start %v", pts[0].Position, start)
	}
	if pts[len(pts)-1].Position != end {
		t.Errorf("last point %v, want end %v", pts[len(pts)-1].Position, end)
	}
	if len(pts) < 3 {
		t.Errorf("route has %d points, want at least 3", len(pts))
	}
}

func TestPlan_AvoidsNoFlyZone(t *testing.T) {
	p := newTestPlanner()
	// Start and end straddle the restricted center east-west.
	start := geo.Position{Lat: 37.7749, Lon: -122.4290}
	end := geo.Position{Lat: 37.7749, Lon: -122.4100}
	pts := p.Plan(start, end, time.Now(), nil)
	if len(pts) < 3 {
		t.Fatalf("expected at least 3 points, got %d", len(pts))
	}
	// Endpoints are caller-supplied; the hard constraint binds the rest.
	for _, pt := range pts[1 : len(pts)-1] {
		if d := geo.Distance(pt.Position, testBase); d < hardRejectFactor*noFlyRadiusKM {
			t.Errorf("route point %v within hard no-fly radius (%.3f km)", pt.Position, d)
		}
	}
}

func TestPlan_TimingCadence(t *testing.T) {
	p := newTestPlanner()
	depart := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	pts := p.Plan(geo.Position{Lat: 37.76, Lon: -122.42}, geo.Position{Lat: 37.79, Lon: -122.40}, depart, nil)
	for i, pt := range pts {
		want := depart.Add(time.Duration(i) * PointInterval)
		if !pt.Time.Equal(want) {
			t.Errorf("point %d scheduled at %v, want %v", i, pt.Time, want)
		}
	}
}

func TestPlan_AltitudeWithinEnvelope(t *testing.T) {
	p := newTestPlanner()
	windy := stubWeather{cond: weather.Condition{WindSpeed: 14, Visibility: 12}}
	pts := p.Plan(geo.Position{Lat: 37.76, Lon: -122.42}, geo.Position{Lat: 37.79, Lon: -122.40}, time.Now(), windy)
	for _, pt := range pts {
		if pt.Altitude < p.minAltitude || pt.Altitude > p.maxAltitude {
			t.Errorf("altitude %f outside [%f, %f]", pt.Altitude, p.minAltitude, p.maxAltitude)
		}
	}
	// 14 m/s wind adds 60 m over the calm profile away from the no-fly zone.
	calm := p.altitudeFor(geo.Position{Lat: 37.79, Lon: -122.40}, nil)
	gusty := p.altitudeFor(geo.Position{Lat: 37.79, Lon: -122.40}, windy)
	if gusty <= calm {
		t.Errorf("wind surcharge missing: calm %f, windy %f", calm, gusty)
	}
}

func TestPlan_DegenerateRouteGetsMidpoint(t *testing.T) {
	p := newTestPlanner()
	start := geo.Position{Lat: 37.76, Lon: -122.42}
	pts := p.Plan(start, start, time.Now(), nil)
	if len(pts) != 3 {
		t.Fatalf("expected forced 3-point route, got %d points", len(pts))
	}
}

func TestFallbackPath_NeverCrossesNoFly(t *testing.T) {
	p := newTestPlanner()
	// Midpoint of this pair lands almost exactly on the restricted center.
	start := geo.Position{Lat: 37.7649, Lon: -122.4194}
	end := geo.Position{Lat: 37.7849, Lon: -122.4194}
	path := p.fallbackPath(start, end)
	if len(path) != 3 {
		t.Fatalf("fallback path has %d points, want 3", len(path))
	}
	if d := geo.Distance(path[1], testBase); d < hardRejectFactor*noFlyRadiusKM {
		t.Errorf("fallback midpoint %v within hard radius (%.3f km)", path[1], d)
	}
}

func TestPlan_WeatherCostRaisesEdgePrice(t *testing.T) {
	p := newTestPlanner()
	far := geo.Position{Lat: 37.79, Lon: -122.40}
	if c := p.weatherCost(far, stubWeather{cond: weather.Condition{WindSpeed: 12, Visibility: 3}}); c <= 0 {
		t.Errorf("expected positive weather cost in wind and haze, got %f", c)
	}
	if c := p.weatherCost(far, stubWeather{cond: weather.Condition{WindSpeed: 2, Visibility: 12}}); c != 0 {
		t.Errorf("expected zero cost in calm clear weather away from the zone, got %f", c)
	}
}
