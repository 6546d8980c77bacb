package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS"     envDefault:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS"     envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME"  envDefault:"30m"`
}

// AuthConfig is injected into the token issuer; nothing reads it globally.
type AuthConfig struct {
	Secret    string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER"    envDefault:"coinmarket"`
	Algorithm string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	Expiry    time.Duration `env:"JWT_EXPIRY"    envDefault:"24h"`
}

// RedisConfig is optional; an empty Addr disables idempotent replays.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     envDefault:""`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// NATSConfig is optional; an empty URL makes event publishing a no-op.
type NATSConfig struct {
	URL           string `env:"NATS_URL"            envDefault:""`
	SubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"marketplace"`
}

func (c NATSConfig) Enabled() bool { return c.URL != "" }

type IdempotencyConfig struct {
	TTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}
