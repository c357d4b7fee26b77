package sim

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"dronefleet-sim/internal/telemetry"
)

func TestReplayLog(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	base := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_ = enc.Encode(telemetry.TelemetryRow{
			DroneID:   "d1",
			Battery:   float64(100 - i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	w := &mockWriter{}
	if err := ReplayLog(&buf, w, 0); err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if len(w.rows) != 3 {
		t.Fatalf("replayed %d rows, want 3", len(w.rows))
	}
	for i, r := range w.rows {
		if r.Battery != float64(100-i) {
			t.Errorf("row %d out of order: battery %f", i, r.Battery)
		}
	}
}

func TestReplayLog_BadInput(t *testing.T) {
	buf := bytes.NewBufferString("{not json")
	if err := ReplayLog(buf, &mockWriter{}, 0); err == nil {
		t.Error("expected a decode error")
	}
}
