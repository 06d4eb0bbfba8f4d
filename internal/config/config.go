// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	HTTP     HTTPServer `envPrefix:"HTTP_"`
	Mongo    Mongo      `envPrefix:"MONGO_"`
	Redis    Redis      `envPrefix:"REDIS_"`
	Postgres Postgres   `envPrefix:"POSTGRES_"`
	Kafka    Kafka      `envPrefix:"KAFKA_"`
}

type HTTPServer struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Mongo struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"rurident"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Postgres struct {
	Host          string `env:"HOST" envDefault:"localhost"`
	Port          int    `env:"PORT" envDefault:"5432"`
	User          string `env:"USER" envDefault:"postgres"`
	Password      string `env:"PASSWORD" envDefault:"postgres"`
	DBName        string `env:"DB" envDefault:"orders"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"internal/orders/migrations"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envDefault:"localhost:9092"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}
