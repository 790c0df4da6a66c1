package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cmorgenfeld/Intellivest/internal/analysis"
	"github.com/cmorgenfeld/Intellivest/internal/api"
	"github.com/cmorgenfeld/Intellivest/internal/config"
	"github.com/cmorgenfeld/Intellivest/internal/database"
	"github.com/cmorgenfeld/Intellivest/internal/kafka"
	"github.com/cmorgenfeld/Intellivest/internal/metrics"
	"github.com/cmorgenfeld/Intellivest/internal/pipeline"
	"github.com/cmorgenfeld/Intellivest/internal/prices"
	"github.com/cmorgenfeld/Intellivest/internal/redis"
	"github.com/cmorgenfeld/Intellivest/internal/scheduler"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := runMigrations(cfg.Database.ConnectionString()); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	defer db.Close()
	log.Println("Connected to PostgreSQL database")

	// Connect to Redis
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v (continuing without cache)", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Connected to Redis cache")
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	mtr := metrics.New(registry)

	// Create Kafka producer for ranking events
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.RankingsTopic)
	defer producer.Close()
	log.Printf("Kafka producer initialized (brokers: %v)", cfg.Kafka.Brokers)

	// Build the analysis pipeline
	ranker, err := analysis.NewRanker(cfg.Analysis)
	if err != nil {
		log.Fatalf("Invalid analysis configuration: %v", err)
	}
	engine := analysis.NewEngine(cfg.Backtest)

	var cache pipeline.Cache
	if redisClient != nil {
		cache = redisClient
	}
	runner := pipeline.NewRunner(db, producer, cache, ranker,
		time.Duration(cfg.Scheduler.WindowHours)*time.Hour, mtr)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create and start Kafka consumer for scored posts
	consumer := kafka.NewObservationsConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.ObservationsTopic,
		cfg.Kafka.ConsumerGroup,
		db,
		mtr,
	)
	go func() {
		log.Printf("Starting Kafka observations consumer for topic: %s (group: %s)",
			cfg.Kafka.ObservationsTopic, cfg.Kafka.ConsumerGroup)
		if err := consumer.Start(ctx); err != nil {
			log.Printf("Kafka observations consumer error: %v", err)
		}
	}()

	// Start the daily analysis scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(runner, cfg.Scheduler)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("Failed to start analysis scheduler: %v", err)
		}
	}

	// Price series come from the Redis close cache, which the external
	// price collectors keep filled. Without Redis the backtest endpoint
	// reports unavailable.
	var provider prices.Provider
	if redisClient != nil {
		provider = prices.NewCachedProvider(nil, redisClient, 90*24*time.Hour)
	}

	handler := api.NewHandler(db, redisClient, producer, runner, engine, provider, cfg.Backtest.Horizons)
	router := api.SetupRoutes(handler, registry)

	// Create HTTP server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancel context to stop Kafka consumer
	cancel()

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Close Kafka consumer
	if err := consumer.Close(); err != nil {
		log.Printf("Error closing Kafka observations consumer: %v", err)
	}

	log.Println("Server stopped")
}

func runMigrations(databaseUrl string) error {
	// The "file://" prefix tells the migrate library to use the file driver
	m, err := migrate.New(
		"file://./db/migrations",
		databaseUrl)
	if err != nil {
		return err
	}

	// Apply all available migrations up to the latest version
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}
