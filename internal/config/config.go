// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
	goyaml "gopkg.in/yaml.v3"

	"dronefleet-sim/internal/geo"
)

// Region defines the operational area as a lat/lon bounding box.
type Region struct {
	Name   string  `yaml:"name"`
	MinLat float64 `yaml:"min_lat"`
	MinLon float64 `yaml:"min_lon"`
	MaxLat float64 `yaml:"max_lat"`
	MaxLon float64 `yaml:"max_lon"`
}

// Bounds converts the region into geo coordinates.
func (r Region) Bounds() geo.Bounds {
	return geo.Bounds{MinLat: r.MinLat, MinLon: r.MinLon, MaxLat: r.MaxLat, MaxLon: r.MaxLon}
}

// Base is the home location where drones launch, land, and charge.
type Base struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Fleet defines a group of drones of the same model.
type Fleet struct {
	Name  string `yaml:"name"`
	Model string `yaml:"model"`
	Count int    `yaml:"count"`
}

// SimulationConfig is the root configuration for the simulated operation.
type SimulationConfig struct {
	Region            Region  `yaml:"region"`
	Base              Base    `yaml:"base"`
	Fleets            []Fleet `yaml:"fleets"`
	DemandRate        float64 `yaml:"demand_rate"`
	TickSeconds       int     `yaml:"tick_seconds"`
	WeatherStepMinute int     `yaml:"weather_step_minutes"`
	MinAltitudeM      float64 `yaml:"min_altitude_m"`
	MaxAltitudeM      float64 `yaml:"max_altitude_m"`
}

// TickInterval returns the simulation tick duration, defaulting to 5s.
func (c *SimulationConfig) TickInterval() time.Duration {
	if c.TickSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TickSeconds) * time.Second
}

// WeatherStep returns how often the weather field evolves, defaulting to 5m.
func (c *SimulationConfig) WeatherStep() time.Duration {
	if c.WeatherStepMinute <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.WeatherStepMinute) * time.Minute
}

// BasePosition returns the base as a geo position.
func (c *SimulationConfig) BasePosition() geo.Position {
	return geo.Position{Lat: c.Base.Lat, Lon: c.Base.Lon}
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*SimulationConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg SimulationConfig
	if err := goyaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *SimulationConfig) check() error {
	if c.Region.MinLat >= c.Region.MaxLat || c.Region.MinLon >= c.Region.MaxLon {
		return fmt.Errorf("region %q has an empty bounding box", c.Region.Name)
	}
	base := c.BasePosition()
	if !base.Valid() {
		return fmt.Errorf("base position %v is not a valid coordinate", base)
	}
	if !c.Region.Bounds().Contains(base) {
		return fmt.Errorf("base position %v lies outside region %q", base, c.Region.Name)
	}
	if len(c.Fleets) == 0 {
		return fmt.Errorf("no fleets configured")
	}
	for _, f := range c.Fleets {
		if f.Count <= 0 {
			return fmt.Errorf("fleet %q has non-positive count %d", f.Name, f.Count)
		}
	}
	if c.DemandRate < 0 {
		return fmt.Errorf("demand_rate must not be negative")
	}
	return nil
}

// ValidateWithCue validates a YAML configuration file using a CUE schema file.
func ValidateWithCue(configFile, cueFile string) error {
	ctx := cuecontext.New()

	// Read YAML config
	yamlBytes, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	yamlFile, err := yaml.Extract(configFile, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(yamlFile)

	// Read CUE schema
	schemaBytes, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	schemaVal := ctx.CompileBytes(schemaBytes)

	// Merge values with schema
	final := configVal.Unify(schemaVal)
	if final.Err() != nil {
		return fmt.Errorf("schema unify failed: %w", final.Err())
	}

	// Validate final structure
	if err := final.Validate(); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
