package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	SourcePath           string `env:"SOURCE_PATH"`
	DestinationContainer string `env:"DESTINATION_CONTAINER,default=shipments"`
	StorageRoot          string `env:"STORAGE_ROOT,default=./data"`
	StoragePrefix        string `env:"STORAGE_PREFIX,default=shipments"`
	OutputFormat         string `env:"OUTPUT_FORMAT,default=csv"`
	SchemaPath           string `env:"SCHEMA_PATH"`
	WebhookURL           string `env:"WEBHOOK_URL"`
	DatabaseDSN          string `env:"DATABASE_DSN"`
	RedisURL             string `env:"REDIS_URL"`
	MetricsAddr          string `env:"METRICS_ADDR"`
	LogLevel             string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
