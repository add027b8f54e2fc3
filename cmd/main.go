package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Honestpuck/jss-tools/internal/config"
	"github.com/Honestpuck/jss-tools/internal/metrics"
	"github.com/Honestpuck/jss-tools/pkg/cache"
	"github.com/Honestpuck/jss-tools/pkg/jss"
	"github.com/Honestpuck/jss-tools/pkg/report"
	"github.com/Honestpuck/jss-tools/pkg/server"
	"github.com/Honestpuck/jss-tools/pkg/service"
	"github.com/kumarabd/gokit/logger"
)

const shutdownTimeout = 15 * time.Second

// main is the entry point of the application
func main() {
	// Initialize a new logger with the application name and syslog format
	log, err := logger.New(config.ApplicationName, logger.Options{
		Format: logger.SyslogLogFormat,
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// Initialize a new configuration handler
	configHandler, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, log, configHandler)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("")
		os.Exit(1)
	}
}

// run wires the service and serves until a server exits or ctx is done.
// Everything it opens is closed before it returns.
func run(ctx context.Context, log *logger.Handler, configHandler *config.Config) error {
	// Initialize a new metrics handler with the application name
	metricsHandler, err := metrics.New(config.ApplicationName)
	if err != nil {
		return fmt.Errorf("metrics initialization failed: %w", err)
	}

	client, err := jss.NewClient(configHandler.JSS, log, metricsHandler)
	if err != nil {
		return fmt.Errorf("jss client initialization failed: %w", err)
	}
	log.Info().Str("url", configHandler.JSS.URL).Msg("jss client initialized")

	cacheHandler, err := cache.New(configHandler.Cache, metricsHandler)
	if err != nil {
		return fmt.Errorf("cache initialization failed: %w", err)
	}

	// The history is optional; an empty path disables it.
	var reports service.Reporter
	if configHandler.Report != nil && configHandler.Report.Path != "" {
		store, err := report.Open(context.Background(), configHandler.Report.Path)
		if err != nil {
			return fmt.Errorf("report store initialization failed: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("report store close failed")
			}
		}()
		reports = store
		log.Info().Str("path", configHandler.Report.Path).Msg("report store initialized")
	}

	serviceHandler, err := service.New(log, metricsHandler, client, cacheHandler, reports, configHandler.Service)
	if err != nil {
		return fmt.Errorf("service initialization failed: %w", err)
	}

	// Create server instance
	srv, err := server.New(log, metricsHandler, configHandler.Server, serviceHandler)
	if err != nil {
		return fmt.Errorf("server initialization failed: %w", err)
	}
	log.Info().Msg("server initialized")

	ch := make(chan struct{}, 1)
	srv.Start(ch)

	select {
	case <-ch:
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(stopCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}
	log.Info().Msg("server stopped")
	return nil
}
