package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
region:
  name: sf-bay
  min_lat: 37.75
  min_lon: -122.43
  max_lat: 37.80
  max_lon: -122.39
base:
  lat: 37.7749
  lon: -122.4194
fleets:
  - name: downtown
    model: courier-x1
    count: 5
demand_rate: 0.5
tick_seconds: 5
`

const schema = `
region: {
	name:    string
	min_lat: number
	min_lon: number
	max_lat: number
	max_lon: number
}
base: {
	lat: number
	lon: number
}
fleets: [...{
	name:  string
	model: string
	count: int & >0
}]
demand_rate: number & >=0
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	cfgPath := writeTemp(t, "simulation.yaml", validYAML)
	cuePath := writeTemp(t, "simulation.cue", schema)

	cfg, err := Load(cfgPath, cuePath)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.Fleets) != 1 || cfg.Fleets[0].Name != "downtown" {
		t.Errorf("unexpected fleet data: %+v", cfg.Fleets)
	}
	if cfg.Fleets[0].Count != 5 {
		t.Errorf("count = %d, want 5", cfg.Fleets[0].Count)
	}
	if cfg.DemandRate != 0.5 {
		t.Errorf("demand_rate = %f, want 0.5", cfg.DemandRate)
	}
	if !cfg.Region.Bounds().Contains(cfg.BasePosition()) {
		t.Error("base should be inside the configured region")
	}
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	bad := `
region:
  name: sf-bay
  min_lat: 37.75
  min_lon: -122.43
  max_lat: 37.80
  max_lon: -122.39
base:
  lat: 37.7749
  lon: -122.4194
fleets:
  - name: downtown
    model: courier-x1
    count: 0
demand_rate: 0.5
`
	cfgPath := writeTemp(t, "simulation.yaml", bad)
	cuePath := writeTemp(t, "simulation.cue", schema)

	if _, err := Load(cfgPath, cuePath); err == nil {
		t.Fatal("expected schema validation to reject count: 0")
	}
}

func TestLoadConfig_BaseOutsideRegion(t *testing.T) {
	bad := `
region:
  name: sf-bay
  min_lat: 37.75
  min_lon: -122.43
  max_lat: 37.80
  max_lon: -122.39
base:
  lat: 40.0
  lon: -122.4194
fleets:
  - name: downtown
    model: courier-x1
    count: 5
demand_rate: 0.5
`
	cfgPath := writeTemp(t, "simulation.yaml", bad)
	cuePath := writeTemp(t, "simulation.cue", schema)

	if _, err := Load(cfgPath, cuePath); err == nil {
		t.Fatal("expected Load to reject a base outside the region")
	}
}

func TestDefaults(t *testing.T) {
	var cfg SimulationConfig
	if cfg.TickInterval().Seconds() != 5 {
		t.Errorf("default tick = %v, want 5s", cfg.TickInterval())
	}
	if cfg.WeatherStep().Minutes() != 5 {
		t.Errorf("default weather step = %v, want 5m", cfg.WeatherStep())
	}
}
