// The dlqworker binary drains the dead-letter topic and archives each
// message as an individual JSON object in blob storage.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"expense-api/internal/blob"
	"expense-api/internal/config"
	"expense-api/internal/deadletter"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	reader := deadletter.NewReader(cfg.KafkaBrokers, cfg.DLQTopic, "dlq-archiver")
	defer reader.Close()

	store := blob.NewStore(cfg.StorageURL, cfg.StorageKey, cfg.ArchiveBucket)
	archiver := deadletter.NewArchiver(reader, store, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("dead-letter archiver started",
		zap.String("topic", cfg.DLQTopic),
		zap.String("bucket", cfg.ArchiveBucket))

	if err := archiver.Run(ctx); err != nil {
		logger.Fatal("archiver stopped", zap.Error(err))
	}
}
