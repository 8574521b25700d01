package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Map defaults for the dashboard view.
const (
	DefaultMapZoom = 11

	// NoDataMessage is shown in the feeder list when no predictions are held.
	NoDataMessage = "No data available."
)

// Placeholders for optional prediction fields.
const (
	placeholderDash = "-"
	placeholderNA   = "N/A"
)

// Snapshot is a point-in-time copy of the dashboard state held by the poller.
type Snapshot struct {
	Predictions  []Prediction
	Status       string
	Loading      bool
	StormMode    bool
	ModelVersion string
	LastError    string
	UpdatedAt    time.Time
}

// Online reports whether the snapshot's status renders as online.
func (s Snapshot) Online() bool {
	return HealthStatus{Status: s.Status}.Online()
}

// DashboardView is everything a client needs to draw the header, sidebar,
// and map for one snapshot.
type DashboardView struct {
	Status       string       `json:"status"`
	Online       bool         `json:"online"`
	StatusLabel  string       `json:"status_label"`
	StormMode    bool         `json:"storm_mode"`
	StormAction  string       `json:"storm_action"`
	Loading      bool         `json:"loading"`
	ModelVersion string       `json:"model_version,omitempty"`
	LastError    string       `json:"last_error,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at,omitzero"`
	GeneratedAt  time.Time    `json:"generated_at"`
	Summary      RiskSummary  `json:"summary"`
	Feeders      []FeederCard `json:"feeders"`
	EmptyMessage string       `json:"empty_message,omitempty"`
	Map          MapView      `json:"map"`
	Markers      []Marker     `json:"markers"`
	Unplaced     []string     `json:"unplaced,omitempty"`
}

// RiskSummary holds the sidebar counters.
type RiskSummary struct {
	TotalFeeders int               `json:"total_feeders"`
	HighRisk     int               `json:"high_risk"` // outage probability > 0.5
	Critical     int               `json:"critical"`  // server severity == "critical"
	Bands        map[RiskColor]int `json:"bands"`
}

// FeederCard is one entry of the sidebar feeder list. The badge follows the
// server severity, not the local color band.
type FeederCard struct {
	FeederID     string    `json:"feeder_id"`
	Severity     string    `json:"severity"`
	SeverityTone RiskColor `json:"severity_tone"`
	Probability  string    `json:"probability"`
	Restoration  string    `json:"restoration"`
}

// MapView is the initial map viewport.
type MapView struct {
	Center Coordinate `json:"center"`
	Zoom   int        `json:"zoom"`
}

// Marker is one feeder's circle on the map.
type Marker struct {
	FeederID    string     `json:"feeder_id"`
	Coordinate  Coordinate `json:"coordinate"`
	Color       RiskColor  `json:"color"`
	Probability float64    `json:"outage_probability"`
	Popup       Popup      `json:"popup"`
}

// Popup is the text shown when a marker is clicked.
type Popup struct {
	Title       string `json:"title"`
	RiskScore   string `json:"risk_score"`
	Wind        string `json:"wind"`
	Status      string `json:"status"`
	Restoration string `json:"restoration"`
}

// BuildDashboard renders a snapshot into a view. Coordinates and colors are
// recomputed on every call. Feeders whose IDs cannot be placed are listed in
// Unplaced and still appear in the sidebar.
func BuildDashboard(s Snapshot) DashboardView {
	online := s.Online()
	v := DashboardView{
		Status:       s.Status,
		Online:       online,
		StatusLabel:  StatusLabel(online),
		StormMode:    s.StormMode,
		StormAction:  StormAction(s.StormMode),
		Loading:      s.Loading,
		ModelVersion: s.ModelVersion,
		LastError:    s.LastError,
		UpdatedAt:    s.UpdatedAt,
		GeneratedAt:  clock.Now().UTC(),
		Summary:      Summarize(s.Predictions),
		Feeders:      make([]FeederCard, 0, len(s.Predictions)),
		Map:          MapView{Center: Coordinate{Lat: CenterLat, Lng: CenterLng}, Zoom: DefaultMapZoom},
		Markers:      make([]Marker, 0, len(s.Predictions)),
	}
	if len(s.Predictions) == 0 {
		v.EmptyMessage = NoDataMessage
	}

	for _, p := range s.Predictions {
		v.Feeders = append(v.Feeders, NewFeederCard(p))

		m, err := NewMarker(p)
		if err != nil {
			v.Unplaced = append(v.Unplaced, p.FeederID)
			continue
		}
		v.Markers = append(v.Markers, m)
	}
	return v
}

// Summarize counts feeders for the risk summary widget.
func Summarize(preds []Prediction) RiskSummary {
	s := RiskSummary{
		TotalFeeders: len(preds),
		Bands:        make(map[RiskColor]int, len(RiskColors)),
	}
	for _, c := range RiskColors {
		s.Bands[c] = 0
	}
	for _, p := range preds {
		if p.OutageProbability > 0.5 {
			s.HighRisk++
		}
		if p.Severity == SeverityCritical {
			s.Critical++
		}
		s.Bands[ClassifyRisk(p.OutageProbability)]++
	}
	return s
}

// NewFeederCard renders a prediction for the sidebar list.
func NewFeederCard(p Prediction) FeederCard {
	return FeederCard{
		FeederID:     p.FeederID,
		Severity:     p.Severity,
		SeverityTone: SeverityTone(p.Severity),
		Probability:  FormatProbability(p.OutageProbability),
		Restoration:  FormatETR(p.ETRMinutes, placeholderDash),
	}
}

// NewMarker places and colors a prediction for the map.
func NewMarker(p Prediction) (Marker, error) {
	coord, err := SynthesizeCoordinate(p.FeederID)
	if err != nil {
		return Marker{}, err
	}
	return Marker{
		FeederID:    p.FeederID,
		Coordinate:  coord,
		Color:       ClassifyRisk(p.OutageProbability),
		Probability: p.OutageProbability,
		Popup: Popup{
			Title:       p.FeederID,
			RiskScore:   FormatProbability(p.OutageProbability),
			Wind:        FormatWind(p.WindSpeed),
			Status:      strings.ToUpper(p.Severity),
			Restoration: FormatETR(p.ETRMinutes, placeholderNA),
		},
	}, nil
}

// FormatProbability renders a probability as a percentage with one decimal,
// e.g. 0.823 -> "82.3%". Exact ties round away from zero (0.1225 -> "12.3%"),
// as the browser's toFixed does.
func FormatProbability(p float64) string {
	x := p * 100
	if t := x * 10; math.Abs(t-math.Trunc(t)) == 0.5 {
		x = math.Round(t) / 10
	}
	return strconv.FormatFloat(x, 'f', 1, 64) + "%"
}

// FormatWind renders wind speed in mph, or "-" when absent.
func FormatWind(w *float64) string {
	if w == nil {
		return placeholderDash
	}
	return fmt.Sprintf("%.1f mph", *w)
}

// FormatETR renders restoration minutes rounded to a whole minute. A missing
// or non-positive estimate renders as placeholder; the prediction service
// reports 0 for feeders it does not expect to fail.
func FormatETR(etr *float64, placeholder string) string {
	if etr == nil || *etr <= 0 {
		return placeholder
	}
	return fmt.Sprintf("%d min", int64(math.Round(*etr)))
}

// StatusLabel is the header text for the backend status.
func StatusLabel(online bool) string {
	if online {
		return "System Online"
	}
	return "System Offline"
}

// StormAction is the storm button text: the action a click would take.
func StormAction(stormMode bool) string {
	if stormMode {
		return "STOP SIMULATION"
	}
	return "SIMULATE STORM"
}
