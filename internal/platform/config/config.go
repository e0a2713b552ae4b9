// Package config loads all runtime configuration from the environment so
// main stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server needs at startup. Empty PostgresDSN
// or RedisURL select the in-memory fallbacks, which is the single-process
// development mode.
type Config struct {
	Addr          string        `env:"CRANEGUARD_ADDR" envDefault:":8080"`
	LogLevel      string        `env:"CRANEGUARD_LOG_LEVEL" envDefault:"info"`
	PostgresDSN   string        `env:"CRANEGUARD_POSTGRES_DSN"`
	RedisURL      string        `env:"CRANEGUARD_REDIS_URL"`
	JWTSigningKey string        `env:"CRANEGUARD_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	ComponentID   string        `env:"CRANEGUARD_COMPONENT_ID" envDefault:"CRANE-01"`
	SimInterval   time.Duration `env:"CRANEGUARD_SIM_INTERVAL" envDefault:"2s"`
	// AdapterTimeout bounds each scoring/prescription adapter call.
	AdapterTimeout  time.Duration `env:"CRANEGUARD_ADAPTER_TIMEOUT" envDefault:"5s"`
	HistoryCapacity int           `env:"CRANEGUARD_HISTORY_CAPACITY" envDefault:"50"`
	ShutdownTimeout time.Duration `env:"CRANEGUARD_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
