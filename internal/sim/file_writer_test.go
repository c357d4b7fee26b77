package sim

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dronefleet-sim/internal/telemetry"
)

func TestFileWriter_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	telePath := filepath.Join(dir, "telemetry.jsonl")
	eventPath := filepath.Join(dir, "events.jsonl")

	fw, err := NewFileWriter(telePath, eventPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}

	rows := []telemetry.TelemetryRow{
		{ClusterID: "c1", DroneID: "d1", Battery: 90, Timestamp: time.Now().UTC()},
		{ClusterID: "c1", DroneID: "d2", Battery: 80, Timestamp: time.Now().UTC()},
	}
	if err := fw.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if err := fw.WriteEvent(telemetry.DeliveryEventRow{DroneID: "d1", Event: "assigned"}); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := countLines(t, telePath); got != 2 {
		t.Errorf("telemetry lines = %d, want 2", got)
	}
	if got := countLines(t, eventPath); got != 1 {
		t.Errorf("event lines = %d, want 1", got)
	}
}

func TestFileWriter_EventsOptional(t *testing.T) {
	telePath := filepath.Join(t.TempDir(), "telemetry.jsonl")
	fw, err := NewFileWriter(telePath, "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()

	if err := fw.WriteEvent(telemetry.DeliveryEventRow{Event: "completed"}); err != nil {
		t.Errorf("disabled event log should be a no-op, got %v", err)
	}
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}
