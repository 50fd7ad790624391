package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingQueueURL       = errors.New("queue.url is required")
	ErrMissingSubject        = errors.New("queue.subject is required")
	ErrInvalidTimeout        = errors.New("timeout must be at least 1 second")
	ErrInvalidRate           = errors.New("dispatch.rate_per_second must be non-negative")
	ErrInvalidRejectedAction = errors.New("dispatch.rejected_action must be one of: log, retry, spool")
	ErrMissingSpoolDir       = errors.New("dispatch.spool_dir is required for the spool action")
	ErrMissingCron           = errors.New("schedule.cron is required")
	ErrInvalidLogLevel       = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidMetricsPort    = errors.New("metrics.port must be a port number")
)

// What to do with entries the transport rejected after its own retrying.
const (
	RejectedActionLog   = "log"
	RejectedActionRetry = "retry"
	RejectedActionSpool = "spool"
)

type Config struct {
	Service  string         `yaml:"service"`
	Source   SourceConfig   `yaml:"source"`
	Queue    QueueConfig    `yaml:"queue"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type SourceConfig struct {
	// Endpoint and UserAgent fall back to the portal defaults when empty.
	Endpoint    string `yaml:"endpoint"`
	UserAgent   string `yaml:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

type QueueConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	// Stream, when set, is provisioned at startup if missing.
	Stream             string `yaml:"stream"`
	PublishTimeoutSecs int    `yaml:"publish_timeout_secs"`
}

func (q QueueConfig) PublishTimeout() time.Duration {
	return time.Duration(q.PublishTimeoutSecs) * time.Second
}

type DispatchConfig struct {
	RatePerSecond  float64 `yaml:"rate_per_second"`
	RejectedAction string  `yaml:"rejected_action"`
	SpoolDir       string  `yaml:"spool_dir"`
}

type ScheduleConfig struct {
	Cron     string `yaml:"cron"`
	Timezone string `yaml:"timezone"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Port string `yaml:"port"`
}

func Defaults() Config {
	return Config{
		Service: "tender-ingest",
		Source: SourceConfig{
			TimeoutSecs: 30,
		},
		Queue: QueueConfig{
			URL:                "nats://localhost:4222",
			Subject:            "tenders.transnet",
			PublishTimeoutSecs: 10,
		},
		Dispatch: DispatchConfig{
			RejectedAction: RejectedActionLog,
			SpoolDir:       "./data/rejected",
		},
		Schedule: ScheduleConfig{
			Cron:     "0 6 * * *",
			Timezone: "UTC",
		},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Port: "9090"},
	}
}

// Load layers the optional YAML file over the defaults, applies environment
// overrides and validates the result. An empty path means defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := os.Getenv("TENDER_INGEST_NATS_URL"); v != "" {
		cfg.Queue.URL = v
	}
	if v := os.Getenv("TENDER_INGEST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Queue.URL == "" {
		return ErrMissingQueueURL
	}
	if c.Queue.Subject == "" {
		return ErrMissingSubject
	}
	if c.Source.TimeoutSecs < 1 {
		return fmt.Errorf("%w: source.timeout_secs", ErrInvalidTimeout)
	}
	if c.Queue.PublishTimeoutSecs < 1 {
		return fmt.Errorf("%w: queue.publish_timeout_secs", ErrInvalidTimeout)
	}
	if c.Dispatch.RatePerSecond < 0 {
		return ErrInvalidRate
	}
	switch c.Dispatch.RejectedAction {
	case RejectedActionLog, RejectedActionRetry, RejectedActionSpool:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRejectedAction, c.Dispatch.RejectedAction)
	}
	if c.Dispatch.RejectedAction == RejectedActionSpool && c.Dispatch.SpoolDir == "" {
		return ErrMissingSpoolDir
	}
	if c.Schedule.Cron == "" {
		return ErrMissingCron
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	if n, err := strconv.Atoi(c.Metrics.Port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidMetricsPort, c.Metrics.Port)
	}
	return nil
}
