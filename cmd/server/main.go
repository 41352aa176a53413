// ScamShield - Scam and fraud protection backend
package main

import (
	"context"
	"os"

	"github.com/tmnguyen/scamshield/internal/config"
	"github.com/tmnguyen/scamshield/internal/logging"
	"github.com/tmnguyen/scamshield/internal/server"
	"github.com/tmnguyen/scamshield/internal/traces"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Create logger
	logger := logging.New("info", "text")

	logger.Info("starting scamshield",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"default_region", cfg.DefaultRegion,
		"model_enabled", cfg.ModelEnabled(),
	)

	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := traces.Init(ctx, cfg.OTLPEndpoint, logger)
		if err != nil {
			logger.Error("failed to init tracing", "error", err)
			os.Exit(1)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	// Create and run server
	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
