// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

// Package config loads service configuration from an optional YAML
// file overlaid with command-line flags.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Hasher selection values.
const (
	HasherLegacy   = "legacy"
	HasherArgon2id = "argon2id"
)

// Token source selection values.
const (
	TokenSourceDeterministic = "deterministic"
	TokenSourceRandom        = "random"
)

// Config is the root service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Auth     AuthConfig     `koanf:"auth"`
	Debug    DebugConfig    `koanf:"debug"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr       string        `koanf:"addr"`
	BaseURL    string        `koanf:"base_url"`
	SessionTTL time.Duration `koanf:"session_ttl"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// MetricsConfig configures the observability server. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// AuthConfig selects the hashing and token strategies. The legacy
// defaults reproduce the original system's behavior; the hardened
// substitutes sit behind the same interfaces.
type AuthConfig struct {
	Hasher      string `koanf:"hasher"`
	TokenSource string `koanf:"token_source"`
}

// DebugConfig gates the debug API, which dumps raw user records
// including password hashes. Off by default.
type DebugConfig struct {
	Enabled bool `koanf:"enabled"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			BaseURL:    "http://localhost:8080",
			SessionTTL: 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9100",
		},
		Auth: AuthConfig{
			Hasher:      HasherLegacy,
			TokenSource: TokenSourceDeterministic,
		},
		Debug: DebugConfig{
			Enabled: false,
		},
		Log: LogConfig{
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at
// path (if non-empty), then the given flag set (if non-nil). Flag
// names use dotted keys (e.g. "server.addr") so they map directly
// onto the configuration tree.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("operation", "load flags").
				Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if c.Auth.Hasher != HasherLegacy && c.Auth.Hasher != HasherArgon2id {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.hasher must be %q or %q, got %q", HasherLegacy, HasherArgon2id, c.Auth.Hasher)
	}
	if c.Auth.TokenSource != TokenSourceDeterministic && c.Auth.TokenSource != TokenSourceRandom {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.token_source must be %q or %q, got %q", TokenSourceDeterministic, TokenSourceRandom, c.Auth.TokenSource)
	}
	if c.Server.SessionTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("server.session_ttl must be positive")
	}
	return nil
}
