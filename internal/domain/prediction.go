package domain

// Severity labels assigned by the prediction service.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityModerate = "moderate"
	SeverityLow      = "low"
)

// Health status values. Anything other than StatusHealthy renders offline.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusError     = "error"
	StatusChecking  = "checking"
)

// ContributingFactor is one feature's importance in a prediction.
type ContributingFactor struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Prediction is one feeder's outage forecast as returned by the prediction
// service. Optional numeric fields are nil when the service omits them.
// Timestamp is the service's naive ISO-8601 string, kept verbatim.
type Prediction struct {
	FeederID          string               `json:"feeder_id"`
	Timestamp         string               `json:"timestamp,omitempty"`
	OutageProbability float64              `json:"outage_probability"`
	ETRMinutes        *float64             `json:"etr_minutes"`
	Severity          string               `json:"severity"`
	WindSpeed         *float64             `json:"wind_speed"`
	Factors           []ContributingFactor `json:"top_contributing_factors,omitempty"`
}

// WeatherOverride replaces live weather inputs for every feeder in a request.
type WeatherOverride struct {
	WindSpeed   float64 `json:"wind_speed"`
	Temperature float64 `json:"temperature"`
}

// DefaultStormOverride is the simulated storm: 80 mph wind at 105°F.
var DefaultStormOverride = WeatherOverride{WindSpeed: 80, Temperature: 105}

// PredictRequest is the body of POST /api/v1/predict.
type PredictRequest struct {
	FeederIDs       []string         `json:"feeder_ids"`
	WeatherOverride *WeatherOverride `json:"weather_override,omitempty"`
}

// PredictResponse is the prediction service's reply.
type PredictResponse struct {
	Predictions  []Prediction `json:"predictions"`
	ModelVersion string       `json:"model_version,omitempty"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status string `json:"status"`
}

// Online reports whether the status should render as "System Online".
func (h HealthStatus) Online() bool {
	return h.Status == StatusHealthy
}
