package predictapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/grid-risk-dashboard/internal/domain"
	"github.com/couchcryptid/grid-risk-dashboard/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Health_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	status := testClient(srv.URL).Health(context.Background())
	assert.Equal(t, domain.StatusHealthy, status.Status)
	assert.True(t, status.Online())
}

func TestClient_Health_PassesThroughOtherStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer srv.Close()

	status := testClient(srv.URL).Health(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, status.Online())
}

func TestClient_Health_DegradesOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			status := testClient(srv.URL).Health(context.Background())
			assert.Equal(t, domain.StatusUnhealthy, status.Status)
		})
	}
}

func TestClient_Health_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	status := testClient(url).Health(context.Background())
	assert.Equal(t, domain.StatusUnhealthy, status.Status)
}

func TestClient_Predict_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/predict", r.URL.Path)
		assert.Equal(t, contentTypeJSON, r.Header.Get(headerContentType))

		var req domain.PredictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"F-1000", "F-1001"}, req.FeederIDs)
		assert.Nil(t, req.WeatherOverride)

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{
			"predictions": [
				{"feeder_id":"F-1000","timestamp":"2026-01-15T08:30:00","outage_probability":0.82,"etr_minutes":null,"severity":"critical","wind_speed":null,"top_contributing_factors":[{"feature":"wind_speed","importance":0.61}]},
				{"feeder_id":"F-1001","outage_probability":0.12,"etr_minutes":0,"severity":"low","wind_speed":7.5}
			],
			"model_version":"v2.0.0-rf"
		}`))
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Predict(context.Background(), domain.PredictRequest{
		FeederIDs: []string{"F-1000", "F-1001"},
	})
	require.NoError(t, err)

	assert.Equal(t, "v2.0.0-rf", resp.ModelVersion)
	require.Len(t, resp.Predictions, 2)

	p0 := resp.Predictions[0]
	assert.Equal(t, "F-1000", p0.FeederID)
	assert.Equal(t, 0.82, p0.OutageProbability)
	assert.Equal(t, domain.SeverityCritical, p0.Severity)
	assert.Nil(t, p0.WindSpeed)
	assert.Nil(t, p0.ETRMinutes)
	require.Len(t, p0.Factors, 1)
	assert.Equal(t, "wind_speed", p0.Factors[0].Feature)

	p1 := resp.Predictions[1]
	require.NotNil(t, p1.WindSpeed)
	assert.Equal(t, 7.5, *p1.WindSpeed)
	require.NotNil(t, p1.ETRMinutes)
	assert.Equal(t, 0.0, *p1.ETRMinutes)
}

func TestClient_Predict_SendsWeatherOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.JSONEq(t, `{"wind_speed":80,"temperature":105}`, string(raw["weather_override"]))
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	override := domain.DefaultStormOverride
	resp, err := testClient(srv.URL).Predict(context.Background(), domain.PredictRequest{
		FeederIDs:       []string{"F-1000"},
		WeatherOverride: &override,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Predictions)
}

func TestClient_Predict_NullPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Predict(context.Background(), domain.PredictRequest{})
	require.NoError(t, err)
	assert.NotNil(t, resp.Predictions)
	assert.Empty(t, resp.Predictions)
}

func TestClient_Predict_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"feeder_ids required"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Predict(context.Background(), domain.PredictRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "feeder_ids required")
}

func TestClient_Predict_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := c.Predict(context.Background(), domain.PredictRequest{FeederIDs: []string{"F-1000"}})
	require.Error(t, err)
}

func TestClient_Predict_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Predict(ctx, domain.PredictRequest{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_AcceptsAny2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"predictions":[{"feeder_id":"F-1000","outage_probability":0.4,"severity":"moderate"}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	assert.Equal(t, domain.StatusHealthy, c.Health(context.Background()).Status)

	resp, err := c.Predict(context.Background(), domain.PredictRequest{FeederIDs: []string{"F-1000"}})
	require.NoError(t, err)
	require.Len(t, resp.Predictions, 1)
	assert.Equal(t, "F-1000", resp.Predictions[0].FeederID)
}

func TestClient_Predict_RedirectStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Predict(context.Background(), domain.PredictRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "304")
}

func TestClient_Health_CancelledIsNotLoggedAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	c := NewClient(srv.URL, 5*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(&logs, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status := c.Health(ctx)
	assert.Equal(t, domain.StatusUnhealthy, status.Status)
	assert.NotContains(t, logs.String(), "health check failed")

	// A real failure is still reported.
	down := NewClient("http://127.0.0.1:1", time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(&logs, nil)))
	assert.Equal(t, domain.StatusUnhealthy, down.Health(context.Background()).Status)
	assert.Contains(t, logs.String(), "health check failed")
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := testClient("http://predictor:8081/")
	assert.Equal(t, "http://predictor:8081", c.baseURL)
}
