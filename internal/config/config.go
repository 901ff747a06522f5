package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ----------------------------
	// SMTP
	// ----------------------------
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser     string `envconfig:"SMTP_USER" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@mailloop.dev"`

	// ----------------------------
	// Queue
	// ----------------------------
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
	BatchSize    int           `envconfig:"BATCH_SIZE" default:"25"`
	MaxAttempts  int           `envconfig:"MAX_ATTEMPTS" default:"5"`
	BaseDelay    time.Duration `envconfig:"BASE_DELAY" default:"1m"`
	MaxDelay     time.Duration `envconfig:"MAX_DELAY" default:"6h"`
	RateLimit    int           `envconfig:"RATE_LIMIT" default:"10"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort string `envconfig:"API_PORT" default:"8080"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Database
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
