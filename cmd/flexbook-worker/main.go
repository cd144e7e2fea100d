package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/smartyoni/inaeFlexbook/internal/amqp"
	"github.com/smartyoni/inaeFlexbook/internal/cloud"
	"github.com/smartyoni/inaeFlexbook/internal/config"
	"github.com/smartyoni/inaeFlexbook/internal/log"
	"github.com/smartyoni/inaeFlexbook/internal/storage"
	"github.com/smartyoni/inaeFlexbook/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting flexbook-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.MongoURI == "" {
		logger.Error("MONGO_URI is required for the mirror worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mongoClient, err := cloud.Connect(ctx, cfg.MongoURI)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Disconnect(context.Background())
	mirror := cloud.NewMongoMirror(cloud.NewMongoProvider(mongoClient, cfg.MongoDatabase))
	logger.Info("MongoDB mirror initialized", "database", cfg.MongoDatabase)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewMirrorWorker(repo, mirror, worker.Config{
		BatchSize:    cfg.SyncBatchSize,
		ScanInterval: cfg.SyncInterval,
	})

	logger.Info("Mirror worker configured",
		"batch_size", cfg.SyncBatchSize,
		"scan_interval", cfg.SyncInterval,
		"queue", cfg.AMQPQueue)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeMirror(gctx, w.HandleMessage)
	})
	g.Go(func() error {
		return w.RunBacklogScanner(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
