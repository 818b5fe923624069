// Package config loads runtime settings from SHOBER_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"shobergarden/internal/blob"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Metrics backends.
const (
	MetricsNone       = "none"
	MetricsExpvar     = "expvar"
	MetricsPrometheus = "prometheus"
)

// Config is the process configuration.
type Config struct {
	StorageDriver  string        `env:"SHOBER_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath     string        `env:"SHOBER_SQLITE_PATH" envDefault:"shobergarden.db"`
	PostgresDSN    string        `env:"SHOBER_POSTGRES_DSN" envDefault:"postgres://localhost/shobergarden?sslmode=disable"`
	Blob           BlobConfig    `envPrefix:"SHOBER_BLOB_"`
	Metrics        string        `env:"SHOBER_METRICS" envDefault:"none"`
	LogLevel       slog.Level    `env:"SHOBER_LOG_LEVEL" envDefault:"INFO"`
	StarterCoins   int           `env:"SHOBER_STARTER_COINS" envDefault:"500"`
	StudRequestTTL time.Duration `env:"SHOBER_STUD_REQUEST_TTL" envDefault:"48h"`
	OTelEndpoint   string        `env:"SHOBER_OTEL_ENDPOINT"`
	OTelEnabled    bool          `env:"SHOBER_OTEL_ENABLED" envDefault:"true"`
}

// BlobConfig selects where pedigree exports are written.
type BlobConfig struct {
	Driver         string `env:"DRIVER" envDefault:"fs"`
	FSRoot         string `env:"FS_ROOT" envDefault:"./blobdata"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3PathStyle    bool   `env:"S3_PATH_STYLE" envDefault:"false"`
	S3AccessKeyID  string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"S3_SECRET_ACCESS_KEY"`
	S3SessionToken string `env:"S3_SESSION_TOKEN"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown drivers and out-of-range values.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3Bucket == "" {
			return fmt.Errorf("SHOBER_BLOB_S3_BUCKET required for s3 blob driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	switch c.Metrics {
	case MetricsNone, MetricsExpvar, MetricsPrometheus:
	default:
		return fmt.Errorf("unknown metrics backend %q", c.Metrics)
	}
	if c.StarterCoins < 0 {
		return fmt.Errorf("starter coins must not be negative")
	}
	if c.StudRequestTTL <= 0 {
		return fmt.Errorf("stud request ttl must be positive")
	}
	return nil
}

// BlobStore converts the blob settings for blob.Open.
func (c Config) BlobStore() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Bucket:          c.Blob.S3Bucket,
			Region:          c.Blob.S3Region,
			Endpoint:        c.Blob.S3Endpoint,
			PathStyle:       c.Blob.S3PathStyle,
			AccessKeyID:     c.Blob.S3AccessKeyID,
			SecretAccessKey: c.Blob.S3SecretKey,
			SessionToken:    c.Blob.S3SessionToken,
		},
	}
}
