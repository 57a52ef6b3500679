// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

// Package config loads service configuration from files, flags, and
// the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default listen addresses and formats.
const (
	DefaultHTTPAddr    = ":8080"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
)

// Default token lifetimes, overridable via environment (milliseconds).
const (
	DefaultAccessTTLMillis  = 3600000    // 1 hour
	DefaultRefreshTTLMillis = 1209600000 // 14 days
)

// Config is the resolved service configuration.
type Config struct {
	// HTTPAddr is the auth API listen address.
	HTTPAddr string `koanf:"http_addr"`

	// MetricsAddr is the metrics/health listen address (empty = disabled).
	MetricsAddr string `koanf:"metrics_addr"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log_format"`

	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string

	// JWTSecret signs session tokens. Rotating it invalidates every
	// outstanding token.
	JWTSecret string

	// AccessTokenTTL is the access token lifetime.
	AccessTokenTTL time.Duration

	// RefreshTokenTTL is the refresh token lifetime; must exceed
	// AccessTokenTTL.
	RefreshTokenTTL time.Duration
}

// secretsEnv holds raw environment values before validation. TTLs are
// integer milliseconds to match the deployment convention.
type secretsEnv struct {
	JWTSecret        string `env:"SHEARBOOK_JWT_SECRET"`
	AccessTTLMillis  int64  `env:"SHEARBOOK_ACCESS_TOKEN_TTL_MS"`
	RefreshTTLMillis int64  `env:"SHEARBOOK_REFRESH_TOKEN_TTL_MS"`
	DatabaseURL      string `env:"DATABASE_URL"`
}

// Load resolves configuration by layering, lowest precedence first:
// flag defaults, an optional YAML config file, explicitly set flags,
// and environment variables for secrets and connection strings.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// Flag names use dashes; config keys use underscores.
	flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
	})

	// Flag defaults form the base layer.
	if err := k.Load(flagProvider, nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "load flag defaults").Wrap(err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("operation", "load config file").
				With("path", configFile).
				Wrap(err)
		}
		// Explicitly set flags win over the file.
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("operation", "reload flags").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal config").Wrap(err)
	}

	var secrets secretsEnv
	if err := env.Parse(&secrets); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "parse environment").Wrap(err)
	}
	if secrets.AccessTTLMillis == 0 {
		secrets.AccessTTLMillis = DefaultAccessTTLMillis
	}
	if secrets.RefreshTTLMillis == 0 {
		secrets.RefreshTTLMillis = DefaultRefreshTTLMillis
	}

	cfg.JWTSecret = secrets.JWTSecret
	cfg.DatabaseURL = secrets.DatabaseURL
	cfg.AccessTokenTTL = time.Duration(secrets.AccessTTLMillis) * time.Millisecond
	cfg.RefreshTokenTTL = time.Duration(secrets.RefreshTTLMillis) * time.Millisecond

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants the rest of the service relies on.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("SHEARBOOK_JWT_SECRET environment variable is required")
	}
	if c.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	if c.AccessTokenTTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("access token TTL must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return oops.Code("CONFIG_INVALID").
			With("access_ttl", c.AccessTokenTTL.String()).
			With("refresh_ttl", c.RefreshTokenTTL.String()).
			Errorf("refresh token TTL must exceed access token TTL")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log format must be json or text")
	}
	return nil
}

// LookupDatabaseURL reads DATABASE_URL directly, for subcommands that
// need only the database (migrate).
func LookupDatabaseURL() (string, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	return url, nil
}
