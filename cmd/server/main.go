package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/sector-cycles/internal/config"
	"github.com/aristath/sector-cycles/internal/database"
	"github.com/aristath/sector-cycles/internal/modules/indices"
	"github.com/aristath/sector-cycles/internal/modules/indices/jobs"
	"github.com/aristath/sector-cycles/internal/modules/prices"
	"github.com/aristath/sector-cycles/internal/modules/strength"
	"github.com/aristath/sector-cycles/internal/modules/universe"
	"github.com/aristath/sector-cycles/internal/scheduler"
	"github.com/aristath/sector-cycles/internal/server"
	"github.com/aristath/sector-cycles/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Sector Cycles")

	// Analytics thresholds (moving average window, deadbands, cutoffs)
	analytics, err := config.LoadAnalytics(cfg.AnalyticsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load analytics configuration")
	}

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	universeRepo := universe.NewRepository(db.Conn(), log)
	pricesRepo := prices.NewRepository(db.Conn(), log)
	indexRepo := indices.NewRepository(db.Conn(), log)

	// Index engine
	builder := indices.NewBuilder(indices.BuilderOptions{
		Membership:      indices.MembershipMode(analytics.Index.Membership),
		MinConstituents: analytics.Index.MinConstituents,
	}, log)
	indexService := indices.NewService(universeRepo, pricesRepo, indexRepo, builder, cfg.Workers, log)
	queryService := indices.NewQueryService(indexRepo, analytics.Trend, log)
	scorer := strength.NewScorer(universeRepo, pricesRepo, indexRepo, analytics.Trend.MomentumWindow, log)

	// Handlers
	indexHandler := indices.NewHandler(queryService, indexService, log)
	strengthHandler := strength.NewHandler(scorer, log)
	universeHandler := universe.NewHandler(universeRepo, log)

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Register the nightly regeneration job
	generateJob := jobs.NewGenerateJob(indexService, log)
	if err := sched.AddJob(cfg.GenerateSchedule, generateJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register generation job")
	}

	if cfg.GenerateOnBoot {
		go func() {
			if err := sched.RunNow(generateJob); err != nil {
				log.Error().Err(err).Msg("Boot-time generation failed")
			}
		}()
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:            cfg.Port,
		Log:             log,
		DevMode:         cfg.DevMode,
		IndexHandler:    indexHandler,
		StrengthHandler: strengthHandler,
		UniverseHandler: universeHandler,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
