package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs at startup. Values come from the
// environment so main stays lean; parsing happens once in Load.
type Config struct {
	Addr          string `env:"VOUCH_ADDR" envDefault:":8080"`
	JWTSigningKey string `env:"VOUCH_JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string `env:"VOUCH_JWT_ISSUER" envDefault:"vouch"`
	JWTAudience   string `env:"VOUCH_JWT_AUDIENCE" envDefault:"vouch-api"`

	// AdminAddress is the single administrator principal allowed to change
	// attestor wiring at runtime.
	AdminAddress string `env:"VOUCH_ADMIN_ADDRESS" envDefault:"0xadmin"`

	Attestor AttestorConfig `envPrefix:"VOUCH_ATTESTOR_"`
	Postgres PostgresConfig `envPrefix:"VOUCH_POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"VOUCH_REDIS_"`
	Kafka    KafkaConfig    `envPrefix:"VOUCH_KAFKA_"`
}

// AttestorConfig wires the external attestation signer.
type AttestorConfig struct {
	URL      string        `env:"URL"`
	SchemaID string        `env:"SCHEMA_ID" envDefault:"experience.v1"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// PostgresConfig selects the durable store. Empty DSN keeps the in-memory
// arena, which is the default for local runs and tests.
type PostgresConfig struct {
	DSN string `env:"DSN"`
}

// RedisConfig enables the read-side experience cache when URL is set.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// KafkaConfig enables the domain-event sink when brokers are configured.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"vouch.events"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
