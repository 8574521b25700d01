package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Prediction service.
	PredictAPIURL  string
	PredictTimeout time.Duration
	PollInterval   time.Duration
	FeederStart    int
	FeederCount    int

	// Storm simulation.
	StormMode        bool
	StormWindSpeed   float64
	StormTemperature float64

	// Risk-marker feed.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	predictTimeout, err := parsePositiveDuration("PREDICT_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "10s")
	if err != nil {
		return nil, err
	}

	feederStart, err := parseInt("FEEDER_START", 1000)
	if err != nil {
		return nil, err
	}
	feederCount, err := parseInt("FEEDER_COUNT", 200)
	if err != nil {
		return nil, err
	}

	stormWind, err := parseFloat("STORM_WIND_SPEED", 80)
	if err != nil {
		return nil, err
	}
	stormTemp, err := parseFloat("STORM_TEMPERATURE", 105)
	if err != nil {
		return nil, err
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := brokers != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}
	var kafkaBrokers []string
	if brokers != "" {
		kafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PredictAPIURL:  sharedcfg.EnvOrDefault("PREDICT_API_URL", "http://localhost:8081"),
		PredictTimeout: predictTimeout,
		PollInterval:   pollInterval,
		FeederStart:    feederStart,
		FeederCount:    feederCount,

		StormMode:        os.Getenv("STORM_MODE") == "true",
		StormWindSpeed:   stormWind,
		StormTemperature: stormTemp,

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "feeder-risk-markers"),
	}

	if u, err := url.Parse(cfg.PredictAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid PREDICT_API_URL")
	}
	if cfg.FeederStart < 0 {
		return nil, errors.New("FEEDER_START must not be negative")
	}
	if cfg.FeederCount <= 0 {
		return nil, errors.New("FEEDER_COUNT must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
