package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/grid-risk-dashboard/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/grid-risk-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/grid-risk-dashboard/internal/adapter/predictapi"
	"github.com/couchcryptid/grid-risk-dashboard/internal/adapter/ws"
	"github.com/couchcryptid/grid-risk-dashboard/internal/config"
	"github.com/couchcryptid/grid-risk-dashboard/internal/domain"
	"github.com/couchcryptid/grid-risk-dashboard/internal/observability"
	"github.com/couchcryptid/grid-risk-dashboard/internal/poller"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := predictapi.NewClient(cfg.PredictAPIURL, cfg.PredictTimeout, metrics, logger)
	controller := poller.New(client, poller.Options{
		FeederIDs: domain.FeederIDs(cfg.FeederStart, cfg.FeederCount),
		Interval:  cfg.PollInterval,
		StormOverride: domain.WeatherOverride{
			WindSpeed:   cfg.StormWindSpeed,
			Temperature: cfg.StormTemperature,
		},
		StormMode: cfg.StormMode,
	}, logger, metrics)

	hub := ws.New(controller, logger, metrics)
	controller.Subscribe("websocket", hub)

	// Risk-marker feed (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		controller.Subscribe("kafka", writer)
		logger.Info("kafka marker feed enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka marker feed disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, controller, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	go hub.Run(ctx)

	// Start polling.
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		if err := controller.Run(ctx); err != nil {
			logger.Error("poller error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-pollerDone:
	case <-shutdownCtx.Done():
		logger.Warn("poller did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
