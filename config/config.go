package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the mock EventSub server configuration.
type Config struct {
	Host             string      `yaml:"host" json:"host"`
	Port             int         `yaml:"port" json:"port"`
	CatalogFile      string      `yaml:"catalog_file" json:"catalog_file"`
	KeepaliveTimeout int         `yaml:"keepalive_timeout_seconds" json:"keepalive_timeout_seconds"`
	SendKeepalives   bool        `yaml:"send_keepalives" json:"send_keepalives"`
	WriteTimeout     int         `yaml:"write_timeout_seconds" json:"write_timeout_seconds"`
	ReadBufferSize   int         `yaml:"read_buffer_size" json:"read_buffer_size"`
	WriteBufferSize  int         `yaml:"write_buffer_size" json:"write_buffer_size"`
	LogLevel         string      `yaml:"log_level" json:"log_level"`
	LogFormat        string      `yaml:"log_format" json:"log_format"`
	Redis            RedisConfig `yaml:"redis" json:"redis"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:             "localhost",
		Port:             8080,
		CatalogFile:      "fake_twitch_messages.json",
		KeepaliveTimeout: 30,
		WriteTimeout:     10,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		LogLevel:         "info",
		LogFormat:        "console",
		Redis:            *DefaultRedisConfig(),
	}
}

// Load builds a config from defaults, the optional YAML file at path and
// then the environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FAKESUB_* and REDIS_* variables.
// Unparseable numeric values are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("FAKESUB_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("FAKESUB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("FAKESUB_CATALOG"); v != "" {
		c.CatalogFile = v
	}
	if v := os.Getenv("FAKESUB_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("FAKESUB_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("FAKESUB_SEND_KEEPALIVES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SendKeepalives = b
		}
	}
	c.Redis.ApplyEnv()
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.CatalogFile == "" {
		return errors.New("catalog_file is required")
	}
	if c.KeepaliveTimeout < 10 || c.KeepaliveTimeout > 600 {
		return fmt.Errorf("keepalive_timeout_seconds must be between 10 and 600, got %d", c.KeepaliveTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("invalid write_timeout_seconds %d", c.WriteTimeout)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}

// Addr returns host:port for the listener.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// WriteTimeoutDuration returns the per-frame write deadline; zero disables it.
func (c *Config) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

// KeepaliveInterval is how often session_keepalive messages are sent when
// enabled: half the advertised timeout.
func (c *Config) KeepaliveInterval() time.Duration {
	return time.Duration(c.KeepaliveTimeout) * time.Second / 2
}
