package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grid_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Polling.
	PollsTotal    *prometheus.CounterVec // labels: outcome={success,error,superseded}
	PollDuration  prometheus.Histogram
	PollerRunning prometheus.Gauge

	// Current dashboard state.
	PredictionsCurrent prometheus.Gauge
	RiskBand           *prometheus.GaugeVec // labels: color={red,orange,yellow,green}
	BackendHealthy     prometheus.Gauge
	StormMode          prometheus.Gauge

	// Prediction service client.
	APIRequestDuration *prometheus.HistogramVec // labels: endpoint={health,predict}

	// Outbound feeds.
	MarkersPublished prometheus.Counter
	PublishErrors    *prometheus.CounterVec // labels: sink
	WebSocketClients prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.PollsTotal,
		m.PollDuration,
		m.PollerRunning,
		m.PredictionsCurrent,
		m.RiskBand,
		m.BackendHealthy,
		m.StormMode,
		m.APIRequestDuration,
		m.MarkersPublished,
		m.PublishErrors,
		m.WebSocketClients,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Prediction polls by outcome.",
		}, []string{"outcome"}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a health check plus prediction fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poller_running",
			Help:      "1 when the poller is active, 0 when shut down.",
		}),
		PredictionsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "predictions_current",
			Help:      "Number of predictions in the displayed set.",
		}),
		RiskBand: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feeders_by_color",
			Help:      "Feeders in the displayed set per marker color band.",
		}, []string{"color"}),
		BackendHealthy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_healthy",
			Help:      "1 when the prediction service last reported healthy.",
		}),
		StormMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "storm_mode",
			Help:      "1 while storm simulation is enabled.",
		}),
		APIRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Prediction service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		MarkersPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_published_total",
			Help:      "Feeder risk markers written to the marker feed.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Snapshot publish failures by sink.",
		}, []string{"sink"}),
		WebSocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected live dashboard clients.",
		}),
	}
}
