package main

import (
	"context"
	"time"

	"webinarwins/internal/analytics"
	"webinarwins/internal/config"
	"webinarwins/internal/database"
	"webinarwins/internal/email"
	"webinarwins/internal/emailgen"
	"webinarwins/internal/metrics"
	"webinarwins/internal/openai"
	"webinarwins/internal/pipeline"
	"webinarwins/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	logger.Info().Str("driver", database.DriverFor(cfg.DatabaseURL)).Msg("Database connection established successfully")

	writeClient := database.NewWriteClientFromDB(db)
	store, err := database.NewWebinarStore(writeClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create webinar store")
	}
	analyticsService, err := analytics.NewService(writeClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create analytics service")
	}

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := store.CreateTables(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create webinar tables")
		}
		if err := analyticsService.CreateTables(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create analytics tables")
		}
		cancel()
		logger.Info().Msg("Database schema is up to date")
	}

	// Metrics registry served on /metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// Text generator
	aiClient, err := openai.NewClient(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create OpenAI client")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := aiClient.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Str("provider", aiClient.GetProviderName()).Msg("OpenAI connection test failed")
	}
	cancel()

	generator := emailgen.NewGenerator(aiClient, emailgen.OptionsFromConfig(cfg), logger).WithMetrics(appMetrics)

	svc := pipeline.New(store, generator, pipeline.OptionsFromConfig(cfg), logger).
		WithMetrics(appMetrics).
		WithTracker(analyticsService)

	sender := email.NewFollowUpSender(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	if sender.Configured() {
		svc.WithMailer(sender)
	} else {
		logger.Warn().Msg("SENDGRID_API_KEY not set, email delivery disabled")
	}

	// Create and initialize server
	srv := server.New(cfg, db, svc, analyticsService, registry, logger)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
