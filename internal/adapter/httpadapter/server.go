package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/grid-risk-dashboard/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxStormBody bounds the POST /api/storm request body.
const maxStormBody = 1 << 10

// Dashboard is the state the server renders and the toggle it drives.
type Dashboard interface {
	sharedobs.ReadinessChecker
	Snapshot() domain.Snapshot
	SetStormMode(on bool)
	ToggleStormMode() bool
}

// StormRequest sets storm mode explicitly. An empty body toggles instead.
type StormRequest struct {
	Enabled *bool `json:"enabled"`
}

// StormResponse reports the storm mode after a change.
type StormResponse struct {
	StormMode   bool   `json:"storm_mode"`
	StormAction string `json:"storm_action"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes the dashboard API, live view, health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	dashboard  Dashboard
	logger     *slog.Logger
}

// NewServer creates an HTTP server. live serves the WebSocket endpoint.
func NewServer(addr string, dashboard Dashboard, live http.Handler, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dashboard: dashboard,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(dashboard))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/markers.geojson", s.handleGeoJSON)
	mux.HandleFunc("GET /api/feeders/{id}/coordinate", s.handleCoordinate)
	mux.HandleFunc("POST /api/storm", s.handleStorm)
	if live != nil {
		mux.Handle("GET /ws", live)
	}
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.BuildDashboard(s.dashboard.Snapshot()))
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	view := domain.BuildDashboard(s.dashboard.Snapshot())
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(domain.MarkersToGeoJSON(view.Markers)) //nolint:errcheck // client went away
}

func (s *Server) handleCoordinate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	coord, err := domain.SynthesizeCoordinate(id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidFeederID) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		FeederID string `json:"feeder_id"`
		domain.Coordinate
	}{FeederID: id, Coordinate: coord})
}

func (s *Server) handleStorm(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxStormBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "read body: " + err.Error()})
		return
	}

	var on bool
	if len(body) == 0 {
		on = s.dashboard.ToggleStormMode()
	} else {
		var req StormRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode storm request: %v", err)})
			return
		}
		if req.Enabled == nil {
			on = s.dashboard.ToggleStormMode()
		} else {
			on = *req.Enabled
			s.dashboard.SetStormMode(on)
		}
	}

	writeJSON(w, http.StatusOK, StormResponse{StormMode: on, StormAction: domain.StormAction(on)})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	page, err := renderDashboard(domain.BuildDashboard(s.dashboard.Snapshot()))
	if err != nil {
		s.logger.Error("render dashboard page", "error", err)
		http.Error(w, "render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page) //nolint:errcheck // client went away
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
