package predictapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/grid-risk-dashboard/internal/domain"
	"github.com/couchcryptid/grid-risk-dashboard/internal/observability"
)

const (
	healthPath  = "/health"
	predictPath = "/api/v1/predict"

	// maxErrorBody caps how much of a failed response is quoted in errors.
	maxErrorBody = 512
)

// Client talks to the outage prediction service over HTTP.
// It implements poller.Predictor.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a prediction service client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Health queries GET /health. Any failure degrades to status "unhealthy"
// instead of returning an error; cancellation is not logged as a failure.
func (c *Client) Health(ctx context.Context) domain.HealthStatus {
	var status domain.HealthStatus
	if err := c.do(ctx, http.MethodGet, healthPath, "health", nil, &status); err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("health check failed", "error", err)
		}
		return domain.HealthStatus{Status: domain.StatusUnhealthy}
	}
	return status
}

// Predict posts the feeder roster and optional weather override to
// POST /api/v1/predict. Failures are returned to the caller.
func (c *Client) Predict(ctx context.Context, req domain.PredictRequest) (domain.PredictResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.PredictResponse{}, fmt.Errorf("encode predict request: %w", err)
	}

	var resp domain.PredictResponse
	if err := c.do(ctx, http.MethodPost, predictPath, "predict", body, &resp); err != nil {
		return domain.PredictResponse{}, err
	}
	if resp.Predictions == nil {
		resp.Predictions = []domain.Prediction{}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("prediction API error: %s: status %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
