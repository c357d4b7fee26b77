package demand

import (
	"math/rand"
	"testing"

	"dronefleet-sim/internal/geo"
)

var testBounds = geo.Bounds{MinLat: 37.75, MinLon: -122.43, MaxLat: 37.80, MaxLon: -122.39}

func TestStep_RequestsInBounds(t *testing.T) {
	g := NewGenerator(testBounds, 3, 2.5, rand.New(rand.NewSource(1)))
	reqs := g.Step()
	if len(reqs) < 3 {
		t.Fatalf("expected at least 3 requests at rate 3, got %d", len(reqs))
	}
	for _, r := range reqs {
		if r.ID == "" {
			t.Error("request missing ID")
		}
		if !testBounds.Contains(r.Destination) {
			t.Errorf("destination %v outside region", r.Destination)
		}
		if r.PayloadWeight < 0.1 || r.PayloadWeight > 2.5 {
			t.Errorf("payload %f outside [0.1, 2.5]", r.PayloadWeight)
		}
	}
}

func TestStep_FractionalRate(t *testing.T) {
	g := NewGenerator(testBounds, 0.5, 2.5, rand.New(rand.NewSource(2)))
	total := 0
	const steps = 1000
	for i := 0; i < steps; i++ {
		total += len(g.Step())
	}
	// Mean should land near rate*steps; generous tolerance for the walk.
	if total < 400 || total > 600 {
		t.Errorf("rate 0.5 over %d steps produced %d requests", steps, total)
	}
}

func TestStep_Deterministic(t *testing.T) {
	g1 := NewGenerator(testBounds, 1, 2.5, rand.New(rand.NewSource(3)))
	g2 := NewGenerator(testBounds, 1, 2.5, rand.New(rand.NewSource(3)))
	r1 := g1.Step()
	r2 := g2.Step()
	if len(r1) != len(r2) {
		t.Fatalf("seeded generators disagree on count: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i].Destination != r2[i].Destination || r1[i].PayloadWeight != r2[i].PayloadWeight {
			t.Errorf("seeded generators diverge at %d: %+v vs %+v", i, r1[i], r2[i])
		}
	}
}
