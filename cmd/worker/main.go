package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/khoahotran/academic-records/adapters/event"
	"github.com/khoahotran/academic-records/adapters/media_storage"
	assetUC "github.com/khoahotran/academic-records/internal/application/usecase/asset"
	"github.com/khoahotran/academic-records/internal/config"
	"github.com/khoahotran/academic-records/pkg/logger"
	"github.com/khoahotran/academic-records/pkg/tracing"
)

func main() {
	fmt.Println("Starting Academic Records Worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: cannot load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, "academic-worker")
	if err != nil {
		appLogger.Fatal("Cannot init tracing", err)
	}
	defer shutdownTracing(context.Background())

	// Cloudinary Uploader
	uploader, err := media_storage.NewCloudinaryAdapter(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize uploader", err)
	}

	// Worker Use Case
	cleanupAssetUC := assetUC.NewCleanupAssetUseCase(uploader, media_storage.PublicIDFromURL, appLogger)

	// Kafka Consumer
	consumer, err := event.NewKafkaConsumer(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot init Kafka consumer", err)
	}
	defer consumer.Close()

	if err := consumer.Run(ctx, cleanupAssetUC.Execute); err != nil {
		appLogger.Error("Worker stopped with error", err)
	}
	appLogger.Info("Worker exited")
}
