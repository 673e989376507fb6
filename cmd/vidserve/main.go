// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command vidserve serves HLS and MP4 test media from a local directory.
//
// Usage:
//
//	vidserve [-config file] [-root dir] [-port n] [root]
//	vidserve config dump [-config file] [-o file]
//	vidserve -version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/vidserve/internal/api"
	"github.com/ManuGH/vidserve/internal/config"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/ManuGH/vidserve/internal/media"
	"github.com/ManuGH/vidserve/internal/telemetry"
	"github.com/ManuGH/vidserve/internal/version"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cliOptions are the parsed command-line arguments of the server command.
type cliOptions struct {
	ConfigPath  string
	Overrides   config.Overrides
	ShowVersion bool
}

func parseArgs(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions

	fs := flag.NewFlagSet("vidserve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.ShowVersion, "version", false, "print version and exit")
	fs.StringVar(&opts.ConfigPath, "config", "", "path to config file (.yaml, .yml or .toml)")
	fs.StringVar(&opts.Overrides.RootDir, "root", "", "directory to serve media from")
	fs.IntVar(&opts.Overrides.Port, "port", 0, fmt.Sprintf("port to listen on (default %d)", config.DefaultPort))

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		opts.Overrides.RootDir = fs.Arg(0)
	default:
		return cliOptions{}, fmt.Errorf("expected at most one root directory, got %d arguments", fs.NArg())
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "config" {
		return runConfigCLI(args[1:], stdout, stderr)
	}

	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	if opts.ShowVersion {
		fmt.Fprintln(stdout, version.String())
		return 0
	}

	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{Level: config.DefaultLogLevel, Output: stderr, Version: version.Version})
	logger := xglog.WithComponent("main")

	cfg, err := config.NewLoader(opts.ConfigPath).Load(opts.Overrides)
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", opts.ConfigPath).
			Msg("failed to load configuration")
		return 1
	}
	xglog.Configure(xglog.Config{Level: cfg.LogLevel, Output: stderr, Version: version.Version})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Address())
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "server.listen_failed").
			Str("addr", cfg.Address()).
			Msg("failed to bind listen address")
		return 1
	}
	printBanner(stdout, cfg)

	if err := serve(ctx, cfg, ln); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "server.failed").Msg("server stopped with error")
		return 1
	}
	return 0
}

// serve runs the HTTP server on ln until ctx is cancelled, then shuts it down
// gracefully. ln is closed on return.
func serve(ctx context.Context, cfg config.Config, ln net.Listener) error {
	logger := xglog.WithComponent("main")

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Exporter:       cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		ServiceName:    api.ServiceName,
		ServiceVersion: version.Version,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "telemetry.shutdown_failed").Msg("tracer shutdown failed")
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	accessor := media.NewAccessor(cfg.RootDir, cfg.BaseURL)
	deps := api.Deps{Accessor: accessor}
	if cfg.ListingCacheTTL > 0 {
		cached := media.NewCachedLister(accessor, cfg.ListingCacheTTL)
		deps.Lister = cached
		g.Go(func() error { return cached.Watch(gctx) })
	}

	srv := &http.Server{
		Handler:           api.NewServer(cfg, deps),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g.Go(func() error {
		logger.Info().
			Str(xglog.FieldEvent, "server.started").
			Str("addr", ln.Addr().String()).
			Str(xglog.FieldRootDir, cfg.RootDir).
			Str(xglog.FieldBaseURL, cfg.BaseURL).
			Msg("media server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Str(xglog.FieldEvent, "server.stopping").Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
