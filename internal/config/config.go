// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the server configuration.
//
// Precedence, lowest to highest: defaults, config file (YAML or TOML),
// VIDSERVE_* environment variables, command-line overrides.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults.
const (
	DefaultPort        = 8888
	DefaultRootDirName = "videos"
	DefaultLogLevel    = "info"
)

// TracingConfig selects the OpenTelemetry exporter.
type TracingConfig struct {
	Exporter   string  `yaml:"exporter,omitempty" toml:"exporter"`
	Endpoint   string  `yaml:"endpoint,omitempty" toml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate,omitempty" toml:"sample_rate"`
}

// Config is the effective server configuration. It is immutable once loaded.
type Config struct {
	// Port is the TCP port the server listens on.
	Port int `yaml:"port" toml:"port"`

	// RootDir is the absolute directory media is served from. It is only
	// checked when a request reads it.
	RootDir string `yaml:"root" toml:"root"`

	// BaseURL prefixes the playable URLs in listings.
	BaseURL string `yaml:"base_url" toml:"base_url"`

	LogLevel string `yaml:"log_level" toml:"log_level"`

	// ListingCacheTTL enables the in-memory listing cache when positive.
	ListingCacheTTL time.Duration `yaml:"listing_cache_ttl,omitempty" toml:"listing_cache_ttl"`

	// RateLimitRPM caps requests per minute per client IP when positive.
	RateLimitRPM int `yaml:"rate_limit_rpm,omitempty" toml:"rate_limit_rpm"`

	Tracing TracingConfig `yaml:"tracing,omitempty" toml:"tracing"`
}

// Address returns the listen address.
func (c Config) Address() string {
	return ":" + strconv.Itoa(c.Port)
}

// ListURL returns the URL of the listing endpoint.
func (c Config) ListURL() string {
	return c.BaseURL + "/list"
}

// Overrides carries values given on the command line. Zero values are ignored.
type Overrides struct {
	RootDir string
	Port    int
}

// DefaultBaseURL is the base URL used when none is configured.
func DefaultBaseURL(port int) string {
	return "http://localhost:" + strconv.Itoa(port)
}

// DefaultRootDir returns the "videos" directory next to the running
// executable, or below the working directory if that cannot be determined.
func DefaultRootDir() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultRootDirName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultRootDirName)
}

func defaults() Config {
	return Config{
		Port:     DefaultPort,
		RootDir:  DefaultRootDir(),
		LogLevel: DefaultLogLevel,
	}
}
