// Package admin exposes the operator HTTP surface: fleet status, drone and
// route queries, weather lookups, and manual dispatch.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"dronefleet-sim/internal/fleet"
	"dronefleet-sim/internal/geo"
	"dronefleet-sim/internal/logging"
	"dronefleet-sim/internal/sim"
)

type Server struct {
	Sim *sim.Simulator
	tpl *template.Template
}

//go:embed templates/index.html
var content embed.FS

func NewServer(simulator *sim.Simulator) *Server {
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	return &Server{Sim: simulator, tpl: tpl}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /fleet", s.handleFleet)
	mux.HandleFunc("GET /telemetry", s.handleTelemetry)
	mux.HandleFunc("GET /drones/{id}", s.handleDrone)
	mux.HandleFunc("GET /routes/{id}", s.handleRoute)
	mux.HandleFunc("GET /weather", s.handleWeather)
	mux.HandleFunc("POST /assign", s.handleAssign)
	mux.HandleFunc("POST /emergency-return/{id}", s.handleEmergencyReturn)
	return mux
}

// Start serves the admin API until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	logging.FromContext(ctx).Info("admin server listening", "addr", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

type indexData struct {
	Status fleet.Status
	Stats  sim.DeliveryStats
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Status: s.Sim.FleetStatus(),
		Stats:  s.Sim.DeliveryStats(),
	}
	s.tpl.Execute(w, data)
}

func (s *Server) handleFleet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":     s.Sim.FleetStatus(),
		"deliveries": s.Sim.DeliveryStats(),
	})
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.TelemetrySnapshot())
}

func (s *Server) handleDrone(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sim.DroneSnapshot(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, fleet.ErrDroneNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	rt, ok := s.Sim.RouteFor(r.PathValue("id"))
	if !ok {
		http.Error(w, "no route for drone", http.StatusNotFound)
		return
	}
	writeJSON(w, rt)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		http.Error(w, "lat and lon query parameters required", http.StatusBadRequest)
		return
	}
	var at time.Time
	if v := r.URL.Query().Get("at"); v != "" {
		at, err1 = time.Parse(time.RFC3339, v)
		if err1 != nil {
			http.Error(w, "at must be RFC3339", http.StatusBadRequest)
			return
		}
	}
	risk, err := s.Sim.WeatherAt(geo.Position{Lat: lat, Lon: lon}, at)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, risk)
}

type assignRequest struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	PayloadKg float64 `json:"payload_kg"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dest := geo.Position{Lat: req.Lat, Lon: req.Lon}
	if !dest.Valid() {
		http.Error(w, "invalid destination", http.StatusBadRequest)
		return
	}
	id, ok := s.Sim.AssignDelivery(dest, req.PayloadKg)
	if !ok {
		http.Error(w, "no drone available", http.StatusConflict)
		return
	}
	writeJSON(w, map[string]string{"drone_id": id})
}

func (s *Server) handleEmergencyReturn(w http.ResponseWriter, r *http.Request) {
	if !s.Sim.EmergencyReturn(r.PathValue("id")) {
		http.Error(w, "drone not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
