// Package config loads the AI engine's runtime settings from the
// environment, after reading an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const ServiceName = "ai-engine"

type Config struct {
	Host            string
	Port            int
	Env             string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventsMaxLen  int64

	// ScreenTransactions enables the transaction.events consumer. It has no
	// effect without RedisAddr.
	ScreenTransactions bool
	ConsumerName       string
}

// Load returns an error for values that are present but malformed.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Host:          getEnv("HOST", "0.0.0.0"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		ConsumerName:  getEnv("CONSUMER_NAME", defaultConsumerName()),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getEnv("PORT", "3005")); err != nil || cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil || cfg.RedisDB < 0 {
		return nil, fmt.Errorf("invalid REDIS_DB %q", os.Getenv("REDIS_DB"))
	}
	if cfg.EventsMaxLen, err = strconv.ParseInt(getEnv("EVENTS_MAX_LEN", "10000"), 10, 64); err != nil || cfg.EventsMaxLen < 0 {
		return nil, fmt.Errorf("invalid EVENTS_MAX_LEN %q", os.Getenv("EVENTS_MAX_LEN"))
	}
	if cfg.ScreenTransactions, err = strconv.ParseBool(getEnv("SCREEN_TRANSACTIONS", "false")); err != nil {
		return nil, fmt.Errorf("invalid SCREEN_TRANSACTIONS %q: %w", os.Getenv("SCREEN_TRANSACTIONS"), err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")); err != nil || cfg.ShutdownTimeout <= 0 {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", os.Getenv("SHUTDOWN_TIMEOUT"))
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) EventsEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func defaultConsumerName() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return ServiceName + "-" + host
	}
	return ServiceName + "-consumer-1"
}
