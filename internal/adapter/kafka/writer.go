package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/grid-risk-dashboard/internal/config"
	"github.com/couchcryptid/grid-risk-dashboard/internal/domain"
	"github.com/couchcryptid/grid-risk-dashboard/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// MarkerRecord is the message value published for each placed feeder.
type MarkerRecord struct {
	FeederID          string           `json:"feeder_id"`
	Lat               float64          `json:"lat"`
	Lng               float64          `json:"lng"`
	Color             domain.RiskColor `json:"color"`
	OutageProbability float64          `json:"outage_probability"`
	Severity          string           `json:"severity"`
	WindSpeed         *float64         `json:"wind_speed"`
	ETRMinutes        *float64         `json:"etr_minutes"`
	ModelVersion      string           `json:"model_version,omitempty"`
	StormMode         bool             `json:"storm_mode"`
	PolledAt          time.Time        `json:"polled_at"`
}

// Writer publishes risk markers to a Kafka topic, one message per feeder.
// It implements poller.Publisher.
type Writer struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured marker topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newWriter(w, logger, metrics)
}

func newWriter(w messageWriter, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// Publish writes every prediction in the snapshot in a single WriteMessages
// call. Predictions whose feeder ID cannot be placed are skipped.
func (w *Writer) Publish(ctx context.Context, snap domain.Snapshot) error {
	if len(snap.Predictions) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(snap.Predictions))
	for _, p := range snap.Predictions {
		rec, err := newMarkerRecord(p, snap)
		if err != nil {
			w.logger.Warn("skipping unplaceable feeder", "feeder_id", p.FeederID, "error", err)
			continue
		}
		msg, err := serializeToMessage(rec)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write risk markers: %w", err)
	}
	w.metrics.MarkersPublished.Add(float64(len(msgs)))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

func newMarkerRecord(p domain.Prediction, snap domain.Snapshot) (MarkerRecord, error) {
	coord, err := domain.SynthesizeCoordinate(p.FeederID)
	if err != nil {
		return MarkerRecord{}, err
	}
	return MarkerRecord{
		FeederID:          p.FeederID,
		Lat:               coord.Lat,
		Lng:               coord.Lng,
		Color:             domain.ClassifyRisk(p.OutageProbability),
		OutageProbability: p.OutageProbability,
		Severity:          p.Severity,
		WindSpeed:         p.WindSpeed,
		ETRMinutes:        p.ETRMinutes,
		ModelVersion:      snap.ModelVersion,
		StormMode:         snap.StormMode,
		PolledAt:          snap.UpdatedAt,
	}, nil
}

// serializeToMessage marshals a MarkerRecord into a Kafka message keyed by
// feeder ID.
func serializeToMessage(rec MarkerRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize risk marker: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.FeederID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "color", Value: []byte(rec.Color)},
			{Key: "polled_at", Value: []byte(rec.PolledAt.Format(time.RFC3339))},
		},
	}, nil
}
