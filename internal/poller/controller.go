package poller

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/grid-risk-dashboard/internal/domain"
	"github.com/couchcryptid/grid-risk-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Predictor fetches health and predictions from the prediction service.
type Predictor interface {
	// Health never fails; transport errors degrade to "unhealthy".
	Health(ctx context.Context) domain.HealthStatus

	Predict(ctx context.Context, req domain.PredictRequest) (domain.PredictResponse, error)
}

// Publisher receives every snapshot the controller applies.
type Publisher interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// Options configures a Controller.
type Options struct {
	FeederIDs     []string
	Interval      time.Duration
	StormOverride domain.WeatherOverride
	StormMode     bool

	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

type namedPublisher struct {
	name string
	pub  Publisher
}

// Controller polls the prediction service on an interval and holds the
// current dashboard state. Each successful poll replaces the prediction set
// as a whole; a failed poll keeps the previous set and flags the error.
type Controller struct {
	predictor Predictor
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration
	feederIDs []string
	storm     domain.WeatherOverride

	mu    sync.RWMutex
	state domain.Snapshot

	pubMu      sync.RWMutex
	publishers []namedPublisher

	// sendMu serializes delivery; lastSent is the newest generation delivered.
	sendMu   sync.Mutex
	lastSent uint64

	generation atomic.Uint64
	inflight   atomic.Uint64
	ready      atomic.Bool
	refresh    chan struct{}
}

// New creates a Controller. The initial state is loading with status "checking".
func New(predictor Predictor, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	clk := opts.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Controller{
		predictor: predictor,
		logger:    logger,
		metrics:   metrics,
		clock:     clk,
		interval:  opts.Interval,
		feederIDs: slices.Clone(opts.FeederIDs),
		storm:     opts.StormOverride,
		state: domain.Snapshot{
			Predictions: []domain.Prediction{},
			Status:      domain.StatusChecking,
			Loading:     true,
			StormMode:   opts.StormMode,
		},
		refresh: make(chan struct{}, 1),
	}
}

// Subscribe registers a publisher that receives each applied snapshot.
// The name labels publish error metrics.
func (c *Controller) Subscribe(name string, p Publisher) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	c.publishers = append(c.publishers, namedPublisher{name: name, pub: p})
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.Predictions = slices.Clone(c.state.Predictions)
	return s
}

// StormMode reports whether storm simulation is enabled.
func (c *Controller) StormMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.StormMode
}

// SetStormMode enables or disables storm simulation. A change triggers an
// immediate refetch and restarts the poll interval.
func (c *Controller) SetStormMode(on bool) {
	c.mu.Lock()
	changed := c.state.StormMode != on
	c.state.StormMode = on
	c.mu.Unlock()

	if changed {
		c.stormChanged(on)
	}
}

// ToggleStormMode flips storm simulation and returns the new value.
func (c *Controller) ToggleStormMode() bool {
	c.mu.Lock()
	on := !c.state.StormMode
	c.state.StormMode = on
	c.mu.Unlock()

	c.stormChanged(on)
	return on
}

func (c *Controller) stormChanged(on bool) {
	c.logger.Info("storm simulation toggled", "storm_mode", on)
	c.metrics.StormMode.Set(boolGauge(on))
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// CheckReadiness returns nil once a poll has succeeded.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.ready.Load() {
		return errors.New("no successful prediction poll yet")
	}
	return nil
}

// Run polls immediately, then on every interval tick and storm toggle, until
// ctx is cancelled. A toggle cancels the in-flight poll; a tick that arrives
// while a poll is in flight is skipped. On return the ticker is stopped and
// no poll is left running.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("poller started", "interval", c.interval, "feeders", len(c.feederIDs))
	c.metrics.PollerRunning.Set(1)
	defer c.metrics.PollerRunning.Set(0)
	c.metrics.StormMode.Set(boolGauge(c.StormMode()))

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	var (
		wg     sync.WaitGroup
		cancel context.CancelFunc = func() {}
	)
	launch := func() {
		cancel()
		gen := c.generation.Add(1)
		c.inflight.Store(gen)
		pollCtx, pollCancel := context.WithCancel(ctx)
		cancel = pollCancel

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer pollCancel()
			c.poll(ctx, pollCtx, gen)
		}()
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	launch()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if c.inflight.Load() != 0 {
				c.logger.Debug("previous poll still in flight, skipping tick")
				continue
			}
			launch()
		case <-c.refresh:
			ticker.Reset(c.interval)
			launch()
		}
	}
}

// poll runs one health check plus prediction fetch under pollCtx and applies
// the result if no newer poll has started. Subscribers are notified under
// the longer-lived ctx so a following poll does not cut delivery short.
func (c *Controller) poll(ctx, pollCtx context.Context, gen uint64) {
	defer c.inflight.CompareAndSwap(gen, 0)
	start := c.clock.Now()

	req := domain.PredictRequest{FeederIDs: c.feederIDs}
	storm := c.StormMode()
	if storm {
		override := c.storm
		req.WeatherOverride = &override
	}

	health := c.predictor.Health(pollCtx)
	resp, err := c.predictor.Predict(pollCtx, req)
	if pollCtx.Err() != nil {
		c.metrics.PollsTotal.WithLabelValues("superseded").Inc()
		return
	}

	var snap domain.Snapshot
	var applied bool
	if err != nil {
		snap, applied = c.apply(gen, func(s *domain.Snapshot) {
			s.Status = domain.StatusError
			s.LastError = err.Error()
			s.Loading = false
		})
		if applied {
			c.logger.Error("prediction fetch failed", "error", err, "storm_mode", storm)
			c.metrics.PollsTotal.WithLabelValues("error").Inc()
		}
	} else {
		snap, applied = c.apply(gen, func(s *domain.Snapshot) {
			s.Predictions = resp.Predictions
			s.ModelVersion = resp.ModelVersion
			s.Status = health.Status
			s.LastError = ""
			s.Loading = false
			s.UpdatedAt = c.clock.Now().UTC()
		})
		if applied {
			c.metrics.PollsTotal.WithLabelValues("success").Inc()
			c.ready.Store(true)
			c.logger.Debug("predictions updated",
				"count", len(resp.Predictions),
				"status", health.Status,
				"storm_mode", storm,
			)
		}
	}
	if !applied {
		c.metrics.PollsTotal.WithLabelValues("superseded").Inc()
		return
	}

	c.metrics.PollDuration.Observe(c.clock.Since(start).Seconds())
	c.observe(snap)
	c.inflight.CompareAndSwap(gen, 0)
	c.publish(ctx, gen, snap)
}

// apply mutates the state under lock when gen is still current and returns
// a copy of the result.
func (c *Controller) apply(gen uint64, fn func(*domain.Snapshot)) (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation.Load() {
		return domain.Snapshot{}, false
	}
	fn(&c.state)
	s := c.state
	s.Predictions = slices.Clone(c.state.Predictions)
	return s, true
}

func (c *Controller) observe(snap domain.Snapshot) {
	c.metrics.PredictionsCurrent.Set(float64(len(snap.Predictions)))
	c.metrics.BackendHealthy.Set(boolGauge(snap.Online()))
	summary := domain.Summarize(snap.Predictions)
	for color, n := range summary.Bands {
		c.metrics.RiskBand.WithLabelValues(string(color)).Set(float64(n))
	}
}

// publish delivers snap to every subscriber in generation order. A snapshot
// older than one already delivered is dropped.
func (c *Controller) publish(ctx context.Context, gen uint64, snap domain.Snapshot) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if gen <= c.lastSent {
		c.logger.Debug("dropping superseded snapshot", "generation", gen, "last_sent", c.lastSent)
		return
	}
	c.lastSent = gen

	c.pubMu.RLock()
	pubs := slices.Clone(c.publishers)
	c.pubMu.RUnlock()

	for _, p := range pubs {
		if err := p.pub.Publish(ctx, snap); err != nil {
			c.logger.Warn("publish snapshot failed", "sink", p.name, "error", err)
			c.metrics.PublishErrors.WithLabelValues(p.name).Inc()
		}
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
