package sim

import (
	"context"
	"log/slog"
	"net"
	"strconv"

	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"dronefleet-sim/internal/telemetry"
)

// GreptimeDBWriter writes telemetry and delivery events to GreptimeDB via
// the ingester client. Tables are auto-created on first write.
type GreptimeDBWriter struct {
	client *greptime.Client
	log    *slog.Logger
}

// NewGreptimeDBWriter connects to a GreptimeDB endpoint ("host:4001") and
// database.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		host, portStr = endpoint, "4001"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = 4001
	}

	cfg := greptime.NewConfig(host).
		WithPort(port).
		WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{client: client, log: slog.Default()}, nil
}

// Write inserts a single telemetry row.
func (w *GreptimeDBWriter) Write(row telemetry.TelemetryRow) error {
	return w.WriteBatch([]telemetry.TelemetryRow{row})
}

// WriteBatch inserts multiple telemetry rows.
func (w *GreptimeDBWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(telemetry.TelemetryTableName)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("cluster_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("drone_id", types.STRING); err != nil {
		return err
	}
	tbl.AddFieldColumn("model", types.STRING)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lon", types.FLOAT64)
	tbl.AddFieldColumn("alt", types.FLOAT64)
	tbl.AddFieldColumn("battery", types.FLOAT64)
	tbl.AddFieldColumn("maintenance", types.FLOAT64)
	tbl.AddFieldColumn("status", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.ClusterID, r.DroneID, r.Model, r.Lat, r.Lon, r.Alt, r.Battery, r.Maintenance, r.Status, r.Timestamp); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.log.Error("telemetry insert failed", "rows", len(rows), "error", err)
		return err
	}
	return nil
}

// WriteEvent inserts a single delivery event.
func (w *GreptimeDBWriter) WriteEvent(e telemetry.DeliveryEventRow) error {
	return w.WriteEvents([]telemetry.DeliveryEventRow{e})
}

// WriteEvents inserts multiple delivery events.
func (w *GreptimeDBWriter) WriteEvents(rows []telemetry.DeliveryEventRow) error {
	if len(rows) == 0 {
		return nil
	}

	tbl, err := table.New(telemetry.DeliveryEventTableName)
	if err != nil {
		return err
	}
	if err := tbl.AddTagColumn("cluster_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("drone_id", types.STRING); err != nil {
		return err
	}
	tbl.AddFieldColumn("delivery_id", types.STRING)
	tbl.AddFieldColumn("event", types.STRING)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lon", types.FLOAT64)
	tbl.AddFieldColumn("payload_kg", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.ClusterID, r.DroneID, r.DeliveryID, r.Event, r.Lat, r.Lon, r.PayloadKg, r.Timestamp); err != nil {
			return err
		}
	}

	if _, err := w.client.Write(context.Background(), tbl); err != nil {
		w.log.Error("event insert failed", "rows", len(rows), "error", err)
		return err
	}
	return nil
}
