package main

import (
	"path/filepath"
	"testing"

	"dronefleet-sim/internal/config"
	"dronefleet-sim/internal/sim"
)

func TestNewWriters_PrintOnly(t *testing.T) {
	cfg := &config.SimulationConfig{}
	w, ew, cleanup, err := newWriters(cfg, true, false, "")
	if err != nil {
		t.Fatalf("newWriters: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Errorf("telemetry writer is %T, want JSONStdoutWriter", w)
	}
	if _, ok := ew.(*sim.JSONStdoutWriter); !ok {
		t.Errorf("event writer is %T, want JSONStdoutWriter", ew)
	}
}

func TestNewWriters_LogFileFansOut(t *testing.T) {
	cfg := &config.SimulationConfig{}
	logFile := filepath.Join(t.TempDir(), "telemetry.jsonl")
	w, _, cleanup, err := newWriters(cfg, true, false, logFile)
	if err != nil {
		t.Fatalf("newWriters: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Errorf("telemetry writer is %T, want MultiWriter", w)
	}
}
