package main

import (
	"log/slog"
	"time"

	"github.com/fastprodman/coinmarket/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"API_PORT"         envDefault:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL"    envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Postgres    config.PostgresConfig
	Auth        config.AuthConfig
	Redis       config.RedisConfig
	NATS        config.NATSConfig
	Idempotency config.IdempotencyConfig
}
