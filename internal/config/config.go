// Package config defines service configuration and its loading.
//
// Conventions:
// - New() returns defaults; Load layers file and environment on top.
// - Optional backends are disabled by leaving their address empty.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// TopLimit is how many records each analytics endpoint returns.
	TopLimit int `koanf:"top_limit"`

	// PostgresDSN selects the Postgres store; empty means in-memory storage.
	PostgresDSN             string        `koanf:"postgres_dsn"`
	PostgresMaxOpenConns    int           `koanf:"postgres_max_open_conns"`
	PostgresMaxIdleConns    int           `koanf:"postgres_max_idle_conns"`
	PostgresConnMaxLifetime time.Duration `koanf:"postgres_conn_max_lifetime"`

	// RedisAddr selects the Redis session store; empty means no sessions,
	// so every analytics request is denied.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// SessionCookie names the cookie carrying the session token.
	SessionCookie string `koanf:"session_cookie"`
	// SessionKeyPrefix is prepended to the token to form the Redis key.
	SessionKeyPrefix string `koanf:"session_key_prefix"`

	// KafkaBrokers enables view ingestion from Kafka when non-empty.
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
	KafkaGroupID string   `koanf:"kafka_group_id"`

	// QueueSize bounds the in-memory view queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of view workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many view event IDs are remembered.
	DedupeSize int `koanf:"dedupe_size"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		ShutdownTimeout:         30 * time.Second,
		TopLimit:                5,
		PostgresMaxOpenConns:    10,
		PostgresMaxIdleConns:    5,
		PostgresConnMaxLifetime: 30 * time.Minute,
		SessionCookie:           "session_token",
		SessionKeyPrefix:        "session:",
		KafkaTopic:              "content.viewed",
		KafkaGroupID:            "bulletin-analytics",
		QueueSize:               10_000,
		WorkerCount:             runtime.NumCPU(),
		DedupeSize:              100_000,
	}
}

// Validate checks values that cannot be defaulted away.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.TopLimit < 1:
		return invalid("top_limit must be positive")
	case c.QueueSize < 1:
		return invalid("queue_size must be positive")
	case c.WorkerCount < 1:
		return invalid("worker_count must be positive")
	case len(c.KafkaBrokers) > 0 && c.KafkaTopic == "":
		return invalid("kafka_topic must be set when kafka_brokers is")
	case c.SessionCookie == "":
		return invalid("session_cookie must not be empty")
	}
	return nil
}
