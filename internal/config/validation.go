// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"github.com/ManuGH/vidserve/internal/validate"
)

// Validate checks a loaded configuration. The root directory is not
// required to exist: it is read lazily on each request.
func Validate(cfg Config) error {
	v := validate.New()

	v.Port("Port", cfg.Port)
	v.NotEmpty("RootDir", cfg.RootDir)
	v.URL("BaseURL", cfg.BaseURL, []string{"http", "https"})
	v.OneOf("LogLevel", cfg.LogLevel, validate.LogLevels)
	v.NonNegative("ListingCacheTTL", int64(cfg.ListingCacheTTL))
	v.NonNegative("RateLimitRPM", int64(cfg.RateLimitRPM))

	v.OneOf("Tracing.Exporter", cfg.Tracing.Exporter, []string{"", "grpc", "http"})
	if cfg.Tracing.Exporter != "" {
		v.NotEmpty("Tracing.Endpoint", cfg.Tracing.Endpoint)
	}
	v.Fraction("Tracing.SampleRate", cfg.Tracing.SampleRate)

	return v.Err()
}
