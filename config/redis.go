package config

import (
	"os"
	"strconv"
)

// RedisConfig holds connection settings for the Redis pub/sub bridge.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Addr     string `yaml:"addr" json:"addr"`         // default "localhost:6379"
	Password string `yaml:"password" json:"password"` // default ""
	DB       int    `yaml:"db" json:"db"`             // default 0
	Prefix   string `yaml:"prefix" json:"prefix"`     // default "fakesub:ws:"
}

// DefaultRedisConfig returns a disabled RedisConfig with sensible defaults.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "fakesub:ws:",
	}
}

// RedisConfigFromEnv loads Redis configuration from environment variables.
// Falls back to defaults for any missing values.
func RedisConfigFromEnv() *RedisConfig {
	cfg := DefaultRedisConfig()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields from REDIS_* variables. Setting REDIS_ADDR
// enables the bridge.
func (r *RedisConfig) ApplyEnv() {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		r.Addr = addr
		r.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		r.Password = pw
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
	if prefix := os.Getenv("REDIS_WS_PREFIX"); prefix != "" {
		r.Prefix = prefix
	}
}
