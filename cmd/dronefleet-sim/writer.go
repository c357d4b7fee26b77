package main

import (
	"os"

	"golang.org/x/term"

	"dronefleet-sim/internal/config"
	"dronefleet-sim/internal/sim"
)

// newWriters sets up telemetry and delivery-event writers based on flags and
// env vars. It returns the writers and a cleanup function to close any
// resources.
func newWriters(cfg *config.SimulationConfig, printOnly, tui bool, logFile string) (sim.TelemetryWriter, sim.DeliveryEventWriter, func(), error) {
	cleanup := func() {}

	var (
		writer      sim.TelemetryWriter
		eventWriter sim.DeliveryEventWriter
	)
	switch {
	case tui && term.IsTerminal(int(os.Stdout.Fd())):
		tw := sim.NewTUIWriter(cfg)
		writer, eventWriter = tw, tw
		cleanup = func() { tw.Close() }
	case printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "":
		jw := sim.NewJSONStdoutWriter()
		writer, eventWriter = jw, jw
	default:
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		gw, err := sim.NewGreptimeDBWriter(os.Getenv("GREPTIMEDB_ENDPOINT"), database)
		if err != nil {
			return nil, nil, nil, err
		}
		writer, eventWriter = gw, gw
	}

	if logFile == "" {
		return writer, eventWriter, cleanup, nil
	}

	fw, err := sim.NewFileWriter(logFile, logFile+".events")
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	mw := sim.NewMultiWriter(
		[]sim.TelemetryWriter{writer, fw},
		[]sim.DeliveryEventWriter{eventWriter, fw},
	)
	prev := cleanup
	cleanup = func() {
		fw.Close()
		prev()
	}
	return mw, mw, cleanup, nil
}

// newTelemetryWriter creates a telemetry writer without event handling,
// used by replay.
func newTelemetryWriter(printOnly bool) (sim.TelemetryWriter, error) {
	if printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "" {
		return sim.NewJSONStdoutWriter(), nil
	}
	database := os.Getenv("GREPTIMEDB_DATABASE")
	if database == "" {
		database = "public"
	}
	return sim.NewGreptimeDBWriter(os.Getenv("GREPTIMEDB_ENDPOINT"), database)
}
