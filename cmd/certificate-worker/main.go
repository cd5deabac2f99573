package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	v1 "e-learning-system/certification-backend/api/v1"
	"e-learning-system/certification-backend/internal/config"
	"e-learning-system/certification-backend/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	if cfg.Storage.Driver == "memory" {
		logger.Fatal("The generation worker needs a shared artifact store, memory driver is not supported")
	}

	// Connect to database
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Connected to database")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	certsAPI, err := v1.SetupCertificatesAPI(ctx, db, cfg, prometheus.NewRegistry(), logger)
	if err != nil {
		logger.Fatal("Failed to set up certificate pipeline", zap.Error(err))
	}

	w := worker.NewGenerationWorker(certsAPI.Service, worker.Config{
		Schedule:      cfg.Worker.Schedule,
		BatchSize:     cfg.Worker.BatchSize,
		MaxConcurrent: cfg.Worker.MaxConcurrent,
		JobTimeout:    cfg.Worker.JobTimeout,
	}, logger)

	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start generation worker", zap.Error(err))
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")

	w.Stop()
	logger.Info("Certificate worker stopped")
}
