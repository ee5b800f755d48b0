package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentboard/dashboard-service/internal/api"
	"github.com/agentboard/dashboard-service/internal/config"
	"github.com/agentboard/dashboard-service/internal/logging"
	"github.com/agentboard/dashboard-service/internal/observability"
	"github.com/agentboard/dashboard-service/internal/service/dashboard"
	"github.com/agentboard/dashboard-service/internal/upstream"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize logging
	logger := logging.Setup(logging.Config{
		Level:  cfg.EffectiveLogLevel(),
		Format: cfg.Logging.Format,
	})

	logger.Info("starting dashboard service",
		slog.String("app", cfg.App.Name),
		slog.String("version", version),
		slog.String("addr", cfg.Server.Address()),
		slog.String("gateway_url", cfg.Upstream.GatewayURL),
		slog.String("billing_url", cfg.Upstream.BillingURL))

	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, logger, observability.TracingConfig{
		ServiceName: api.DefaultServiceName,
		Version:     version,
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// One upstream client for the lifetime of the process
	client := upstream.NewClient(
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithCallerService(cfg.Upstream.CallerService),
		upstream.WithRateLimit(cfg.Upstream.RateLimit, cfg.Upstream.RateBurst),
		upstream.WithLogger(logger))

	dashboardService := dashboard.New(client, cfg.Upstream.GatewayURL, cfg.Upstream.BillingURL,
		dashboard.WithLogger(logger))

	server := api.New(dashboardService,
		api.WithLogger(logger),
		api.WithHost(cfg.Server.Host),
		api.WithPort(cfg.Server.Port),
		api.WithStaticDir(cfg.Server.StaticDir),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
		api.WithDebug(cfg.App.Debug))

	// Mark server as ready
	server.SetReady(true)

	// Handle shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		// Mark server as not ready to stop accepting new requests
		server.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Upstream.Timeout+10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.String("error", err.Error()))
		}

		client.CloseIdleConnections()

		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	// Start server
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	<-done
	logger.Info("dashboard service stopped")
}
