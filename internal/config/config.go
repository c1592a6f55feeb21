// Package config loads percently settings from defaults, an optional YAML
// file and PERCENTLY_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all percently configuration.
type Config struct {
	// HTTP listen address of cmd/api.
	Addr string `yaml:"addr"`

	// BCP 47 locale results are formatted in.
	Locale string `yaml:"locale"`

	// Page URL permalinks are built on.
	PermalinkBase string `yaml:"permalink_base"`

	History   HistoryConfig   `yaml:"history"`
	Session   SessionConfig   `yaml:"session"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// HistoryConfig configures the durable history log.
type HistoryConfig struct {
	Capacity int    `yaml:"capacity"`
	Driver   string `yaml:"driver"` // memory, sqlite
	Path     string `yaml:"path"`   // sqlite database file
}

// SessionConfig configures per-session form state.
type SessionConfig struct {
	Driver    string        `yaml:"driver"` // memory, redis
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// TelemetryConfig toggles OTLP export. Endpoints come from the standard
// OTEL_EXPORTER_OTLP_* variables.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	Traces      bool   `yaml:"traces"`
	Metrics     bool   `yaml:"metrics"`
	Logs        bool   `yaml:"logs"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:          ":8080",
		Locale:        "en",
		PermalinkBase: "http://localhost:8080/",
		History: HistoryConfig{
			Capacity: 30,
			Driver:   "sqlite",
			Path:     "percently.db",
		},
		Session: SessionConfig{
			Driver:    "memory",
			RedisAddr: "localhost:6379",
			TTL:       30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "percently",
			Traces:      true,
			Metrics:     true,
		},
	}
}

// Load returns Default overlaid with the YAML file at path (skipped when
// path is empty or missing) and then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.History.Capacity <= 0 {
		return fmt.Errorf("history.capacity must be positive, got %d", c.History.Capacity)
	}
	switch c.History.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("history.driver %q is not one of memory, sqlite", c.History.Driver)
	}
	switch c.Session.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.driver %q is not one of memory, redis", c.Session.Driver)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative, got %s", c.Session.TTL)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("PERCENTLY_ADDR", &cfg.Addr)
	str("PERCENTLY_LOCALE", &cfg.Locale)
	str("PERCENTLY_PERMALINK_BASE", &cfg.PermalinkBase)
	str("PERCENTLY_HISTORY_DRIVER", &cfg.History.Driver)
	str("PERCENTLY_HISTORY_PATH", &cfg.History.Path)
	str("PERCENTLY_SESSION_DRIVER", &cfg.Session.Driver)
	str("PERCENTLY_REDIS_ADDR", &cfg.Session.RedisAddr)
	str("PERCENTLY_LOG_LEVEL", &cfg.Logging.Level)
	str("OTEL_SERVICE_NAME", &cfg.Telemetry.ServiceName)

	if v, ok := lookup("PERCENTLY_HISTORY_CAPACITY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PERCENTLY_HISTORY_CAPACITY: %w", err)
		}
		cfg.History.Capacity = n
	}
	if v, ok := lookup("PERCENTLY_SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PERCENTLY_SESSION_TTL: %w", err)
		}
		cfg.Session.TTL = d
	}

	for key, dst := range map[string]*bool{
		"PERCENTLY_LOG_DEVELOPMENT": &cfg.Logging.Development,
		"PERCENTLY_OTEL_TRACES":     &cfg.Telemetry.Traces,
		"PERCENTLY_OTEL_METRICS":    &cfg.Telemetry.Metrics,
		"PERCENTLY_OTEL_LOGS":       &cfg.Telemetry.Logs,
	} {
		if err := boolean(key, dst); err != nil {
			return err
		}
	}
	return nil
}
