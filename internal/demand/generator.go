// Package demand produces simulated delivery requests, standing in for the
// out-of-scope order API.
package demand

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"dronefleet-sim/internal/geo"
)

// Request is one delivery order: a destination inside the region and a
// payload weight.
type Request struct {
	ID            string       `json:"id"`
	Destination   geo.Position `json:"destination"`
	PayloadWeight float64      `json:"payload_weight"`
}

// Generator emits requests at a mean rate per tick using an injectable
// random source.
type Generator struct {
	bounds     geo.Bounds
	rate       float64
	maxPayload float64
	rng        *rand.Rand
}

// NewGenerator creates a generator. rate is the mean number of requests per
// Step; maxPayload caps the random payload weight. A nil rng falls back to
// a time-seeded source.
func NewGenerator(bounds geo.Bounds, rate, maxPayload float64, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if maxPayload <= 0 {
		maxPayload = 2.5
	}
	return &Generator{bounds: bounds, rate: rate, maxPayload: maxPayload, rng: rng}
}

// Step returns the requests arriving this tick. The integer part of the
// rate always arrives; the fractional part arrives probabilistically.
func (g *Generator) Step() []Request {
	n := int(g.rate)
	if g.rng.Float64() < g.rate-float64(n) {
		n++
	}
	if n <= 0 {
		return nil
	}
	out := make([]Request, n)
	for i := range out {
		out[i] = Request{
			ID:            uuid.New().String(),
			Destination:   g.randomDestination(),
			PayloadWeight: 0.1 + g.rng.Float64()*(g.maxPayload-0.1),
		}
	}
	return out
}

func (g *Generator) randomDestination() geo.Position {
	return geo.Position{
		Lat: g.bounds.MinLat + g.rng.Float64()*(g.bounds.MaxLat-g.bounds.MinLat),
		Lon: g.bounds.MinLon + g.rng.Float64()*(g.bounds.MaxLon-g.bounds.MinLon),
	}
}
