package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/backend"
	"salesdash/internal/cli"
	"salesdash/internal/config"
	apphttp "salesdash/internal/http"
	"salesdash/internal/log"
	"salesdash/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	// Data is loaded once; any problem with the input is fatal.
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 2*time.Minute)
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(loadCtx, backendCfg)
	if err != nil {
		cancelLoad()
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	dash, err := services.BuildDashboard(loadCtx, result.Reader)
	cancelLoad()
	if result.Cleanup != nil {
		if cerr := result.Cleanup(); cerr != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, cerr)
		}
	}
	if err != nil {
		logger.Error("Failed to load sales data", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Interaction events are optional: without a broker the server runs alone.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("Publishing filter events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, dash, apphttp.Options{
		PageSize:           cfg.PageSize,
		DisplayMonths:      cfg.DisplayMonths,
		SessionTTL:         cfg.SessionTTL,
		SessionMax:         cfg.SessionMax,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Events:             services.NewEventService(publisher),
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting salesdash server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"rows", len(dash.Table.Rows),
		"months", len(dash.Table.Months))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
