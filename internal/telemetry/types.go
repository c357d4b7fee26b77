// Telemetry row types with greptime tags.
package telemetry

import (
	"os"
	"time"
)

// TelemetryRow represents one drone state record for GreptimeDB.
type TelemetryRow struct {
	ClusterID   string    `json:"cluster_id"`  // TAG
	DroneID     string    `json:"drone_id"`    // TAG
	Model       string    `json:"model"`       // FIELD
	Lat         float64   `json:"lat"`         // FIELD
	Lon         float64   `json:"lon"`         // FIELD
	Alt         float64   `json:"alt"`         // FIELD
	Battery     float64   `json:"battery"`     // FIELD
	Maintenance float64   `json:"maintenance"` // FIELD
	Status      string    `json:"status"`      // FIELD
	Timestamp   time.Time `json:"ts"`          // TIME INDEX
}

// TelemetryTableName holds the table name used when writing to GreptimeDB.
// It defaults to "drone_telemetry" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TelemetryTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "drone_telemetry"
}()

func (TelemetryRow) TableName() string {
	return TelemetryTableName
}

// DeliveryEventRow records one delivery lifecycle event.
type DeliveryEventRow struct {
	ClusterID  string    `json:"cluster_id"` // TAG
	DroneID    string    `json:"drone_id"`   // TAG
	DeliveryID string    `json:"delivery_id"`
	Event      string    `json:"event"` // assigned, completed, aborted, emergency, ...
	Lat        float64   `json:"lat"`   // destination
	Lon        float64   `json:"lon"`
	PayloadKg  float64   `json:"payload_kg"`
	Timestamp  time.Time `json:"ts"` // TIME INDEX
}

// DeliveryEventTableName defaults to "delivery_events" and can be
// overridden via the DELIVERY_EVENT_TABLE environment variable.
var DeliveryEventTableName = func() string {
	if env := os.Getenv("DELIVERY_EVENT_TABLE"); env != "" {
		return env
	}
	return "delivery_events"
}()

func (DeliveryEventRow) TableName() string {
	return DeliveryEventTableName
}
