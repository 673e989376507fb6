// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvRoot            = "VIDSERVE_ROOT"
	EnvPort            = "VIDSERVE_PORT"
	EnvBaseURL         = "VIDSERVE_BASE_URL"
	EnvLogLevel        = "VIDSERVE_LOG_LEVEL"
	EnvListingCacheTTL = "VIDSERVE_LISTING_CACHE_TTL"
	EnvRateLimitRPM    = "VIDSERVE_RATE_LIMIT_RPM"
	EnvTracingExporter = "VIDSERVE_TRACING_EXPORTER"
	EnvTracingEndpoint = "VIDSERVE_TRACING_ENDPOINT"
)

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath string
	logger     zerolog.Logger
}

// NewLoader creates a loader. configPath may be empty.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: strings.TrimSpace(configPath),
		logger:     xglog.WithComponent("config"),
	}
}

// Load builds and validates the effective configuration.
func (l *Loader) Load(o Overrides) (Config, error) {
	cfg := defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
		// Relative roots in a file are relative to the file, not the cwd.
		if fileCfg.RootDir != "" && !filepath.IsAbs(fileCfg.RootDir) {
			fileCfg.RootDir = filepath.Join(filepath.Dir(l.configPath), fileCfg.RootDir)
		}
		merge(&cfg, fileCfg)
	}

	l.mergeEnv(&cfg)
	merge(&cfg, Config{RootDir: o.RootDir, Port: o.Port})

	if err := finalize(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFile parses a YAML (.yaml/.yml) or TOML (.toml) file strictly: unknown
// keys are rejected.
func (l *Loader) loadFile(path string) (Config, error) {
	path = filepath.Clean(path)

	// #nosec G304 -- configuration file paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".toml":
		return parseTOML(data)
	default:
		return Config{}, fmt.Errorf("%w: %s (supported: .yaml, .yml, .toml)", ErrUnsupportedFormat, ext)
	}
}

func parseYAML(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return Config{}, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return Config{}, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return cfg, nil
}

func parseTOML(data []byte) (Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("strict config parse error: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownConfigField, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func (l *Loader) mergeEnv(cfg *Config) {
	cfg.RootDir = parseStringWithLogger(l.logger, EnvRoot, cfg.RootDir)
	cfg.Port = parseIntWithLogger(l.logger, EnvPort, cfg.Port)
	cfg.BaseURL = parseStringWithLogger(l.logger, EnvBaseURL, cfg.BaseURL)
	cfg.LogLevel = parseStringWithLogger(l.logger, EnvLogLevel, cfg.LogLevel)
	cfg.ListingCacheTTL = parseDurationWithLogger(l.logger, EnvListingCacheTTL, cfg.ListingCacheTTL)
	cfg.RateLimitRPM = parseIntWithLogger(l.logger, EnvRateLimitRPM, cfg.RateLimitRPM)
	cfg.Tracing.Exporter = parseStringWithLogger(l.logger, EnvTracingExporter, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = parseStringWithLogger(l.logger, EnvTracingEndpoint, cfg.Tracing.Endpoint)
}

// merge copies the non-zero fields of src over dst.
func merge(dst *Config, src Config) {
	if src.Port != 0 {
		dst.Port = src.Port
	}
	if src.RootDir != "" {
		dst.RootDir = src.RootDir
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.ListingCacheTTL != 0 {
		dst.ListingCacheTTL = src.ListingCacheTTL
	}
	if src.RateLimitRPM != 0 {
		dst.RateLimitRPM = src.RateLimitRPM
	}
	if src.Tracing.Exporter != "" {
		dst.Tracing.Exporter = src.Tracing.Exporter
	}
	if src.Tracing.Endpoint != "" {
		dst.Tracing.Endpoint = src.Tracing.Endpoint
	}
	if src.Tracing.SampleRate != 0 {
		dst.Tracing.SampleRate = src.Tracing.SampleRate
	}
}

// finalize derives dependent values: an absolute root and the base URL.
func finalize(cfg *Config) error {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return fmt.Errorf("resolve root directory %q: %w", cfg.RootDir, err)
	}
	cfg.RootDir = root

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL(cfg.Port)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Tracing.Exporter = strings.ToLower(strings.TrimSpace(cfg.Tracing.Exporter))
	if cfg.Tracing.Exporter != "" && cfg.Tracing.SampleRate == 0 {
		cfg.Tracing.SampleRate = 1
	}
	return nil
}
