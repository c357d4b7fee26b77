package sim

import (
	"testing"

	"dronefleet-sim/internal/telemetry"
)

// plainWriter has no batch support, forcing the per-row path.
type plainWriter struct {
	rows []telemetry.TelemetryRow
}

func (p *plainWriter) Write(row telemetry.TelemetryRow) error {
	p.rows = append(p.rows, row)
	return nil
}

func TestMultiWriter_FanOut(t *testing.T) {
	batch := &mockWriter{}
	plain := &plainWriter{}
	mw := NewMultiWriter([]TelemetryWriter{batch, plain}, nil)

	rows := []telemetry.TelemetryRow{{DroneID: "d1"}, {DroneID: "d2"}}
	if err := mw.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if batch.batches != 1 || len(batch.rows) != 2 {
		t.Errorf("batch writer got %d batches / %d rows, want 1 / 2", batch.batches, len(batch.rows))
	}
	if len(plain.rows) != 2 {
		t.Errorf("plain writer got %d rows, want 2", len(plain.rows))
	}
}

func TestMultiWriter_Events(t *testing.T) {
	ew1 := &mockEventWriter{}
	ew2 := &mockEventWriter{}
	mw := NewMultiWriter(nil, []DeliveryEventWriter{ew1, ew2})

	events := []telemetry.DeliveryEventRow{{Event: "assigned"}, {Event: "completed"}}
	if err := mw.WriteEvents(events); err != nil {
		t.Fatalf("WriteEvents: %v", err)
	}
	if len(ew1.events) != 2 || len(ew2.events) != 2 {
		t.Errorf("event fan-out got %d / %d, want 2 / 2", len(ew1.events), len(ew2.events))
	}
}
