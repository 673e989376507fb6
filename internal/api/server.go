// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api routes HTTP requests to the media accessor.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/vidserve/internal/api/middleware"
	"github.com/ManuGH/vidserve/internal/config"
	"github.com/ManuGH/vidserve/internal/health"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/media"
	"github.com/ManuGH/vidserve/internal/version"
)

// ServiceName names the server in traces and health responses.
const ServiceName = "vidserve"

// Response bodies of the plain-text error statuses.
const (
	bodyFileNotFound = "File not found"
	bodyNotFound     = "Not found"
)

// Deps are the collaborators of a Server. Lister and Health are optional.
type Deps struct {
	Accessor *media.Accessor
	// Lister answers listing requests; defaults to Accessor.
	Lister media.Lister
	// Health defaults to a manager that checks the root directory.
	Health *health.Manager
}

// Server is the HTTP front of the media accessor.
type Server struct {
	cfg      config.Config
	accessor *media.Accessor
	lister   media.Lister
	health   *health.Manager
	logger   zerolog.Logger
	router   chi.Router
}

// NewServer builds the router for cfg.
func NewServer(cfg config.Config, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		accessor: deps.Accessor,
		lister:   deps.Lister,
		health:   deps.Health,
		logger:   xglog.WithComponent("api"),
	}
	if s.accessor == nil {
		s.accessor = media.NewAccessor(cfg.RootDir, cfg.BaseURL)
	}
	if s.lister == nil {
		s.lister = s.accessor
	}
	if s.health == nil {
		s.health = health.NewManager(version.Version)
		s.health.RegisterChecker(health.NewDirChecker("root_dir", s.accessor.Root()))
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) stackConfig() middleware.StackConfig {
	cfg := middleware.StackConfig{
		EnableMetrics: true,
		EnableLogging: true,
		RateLimitRPM:  s.cfg.RateLimitRPM,
	}
	if s.cfg.Tracing.Exporter != "" {
		cfg.TracingService = ServiceName
	}
	return cfg
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(s.stackConfig())

	// Dispatch depends on the path alone; every method is answered.
	r.HandleFunc("/", s.handleList)
	r.HandleFunc("/list", s.handleList)
	r.HandleFunc("/video/*", s.handleVideo)
	r.HandleFunc("/manifest/*", s.handleManifest)

	r.HandleFunc("/healthz", s.health.ServeHealth)
	r.HandleFunc("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WritePlain(w, http.StatusNotFound, bodyNotFound)
	})
	return r
}
