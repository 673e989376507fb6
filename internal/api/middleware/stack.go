// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// StackConfig configures the ingress middleware stack.
type StackConfig struct {
	// TracingService names the otelhttp server spans; empty disables tracing.
	TracingService string

	EnableMetrics bool
	EnableLogging bool

	// RateLimitRPM enables per-IP rate limiting when positive.
	RateLimitRPM int
}

// NewRouter constructs a chi router with the middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. CORS: headers on every response, preflight short-circuits
	r.Use(CORS)
	// 2. Recoverer
	r.Use(Recoverer)
	// 3. RequestID (correlation early)
	r.Use(RequestID)
	// 4. Tracing
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService))
	}
	// 5. Metrics
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 6. Logging (wraps handlers, captures full latency)
	if cfg.EnableLogging {
		r.Use(xglog.Middleware())
	}
	// 7. Rate limit
	if cfg.RateLimitRPM > 0 {
		r.Use(PerMinute(cfg.RateLimitRPM))
	}
	// 8. Strict path decoding, then HEAD served by GET routes
	r.Use(DecodePath)
	r.Use(chimw.GetHead)
}
