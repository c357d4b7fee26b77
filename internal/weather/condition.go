// Package weather simulates a grid-based, time-evolving weather field
// over a bounded region.
package weather

import "math"

// Flight-safety thresholds. The sub-scores below normalize each factor
// against these before the weighted average is compared to SafeScore.
const (
	maxSafeWindSpeed  = 15.0 // m/s
	clearVisibilityKM = 10.0
	maxSafePrecipMMH  = 5.0

	// SafeScore is the weighted-average threshold at or above which
	// conditions are considered flyable.
	SafeScore = 0.7
)

// Condition describes the weather at one point.
type Condition struct {
	Temperature   float64 `json:"temperature"`    // Celsius
	WindSpeed     float64 `json:"wind_speed"`     // m/s
	WindDirection float64 `json:"wind_direction"` // degrees from north, 0-360
	Precipitation float64 `json:"precipitation"`  // mm/h
	Visibility    float64 `json:"visibility"`     // km
	Pressure      float64 `json:"pressure"`       // hPa
	Turbulence    float64 `json:"turbulence"`     // 0-1
	CloudCoverage float64 `json:"cloud_coverage"` // percent, 0-100
}

// SafetyScores returns the per-factor flight-safety sub-scores, each in [0,1].
func (c Condition) SafetyScores() map[string]float64 {
	return map[string]float64{
		"wind":          clamp01(1 - c.WindSpeed/maxSafeWindSpeed),
		"visibility":    clamp01(c.Visibility / clearVisibilityKM),
		"precipitation": clamp01(1 - c.Precipitation/maxSafePrecipMMH),
		"turbulence":    clamp01(1 - c.Turbulence),
	}
}

// IsSafeForFlight reports whether conditions permit flight, along with the
// per-factor scores. This is the single safety predicate shared by route
// risk assessment and the fleet's in-flight checks; the weighted average of
// the sub-scores must reach SafeScore.
func (c Condition) IsSafeForFlight() (bool, map[string]float64) {
	scores := c.SafetyScores()
	avg := 0.35*scores["wind"] +
		0.25*scores["visibility"] +
		0.25*scores["precipitation"] +
		0.15*scores["turbulence"]
	return avg >= SafeScore, scores
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
