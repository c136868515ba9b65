package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/prashantsingh432/prospect-pulse-searcher/cmd/mainconfig"
	appconfig "github.com/prashantsingh432/prospect-pulse-searcher/internal/config"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/lusha"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/rtne"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := rtne.NewSQSQueue(sqs.NewFromConfig(awsConfig), cfg.EnrichmentQueueURL)
	jobStore := rtne.NewJobStore(pool)
	store := rtne.NewStore(pool)

	enricher := lusha.NewClient(logger,
		lusha.WithBaseURL(cfg.LushaBaseURL),
		lusha.WithAPIKey(cfg.LushaAPIKey),
	)

	worker := rtne.NewWorker(queue, jobStore, store, enricher, logger,
		rtne.WithWorkerCount(cfg.WorkerCount),
	)
	worker.Start(ctx)
	logger.Info("enrichment worker started", "workers", cfg.WorkerCount)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down enrichment worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("enrichment worker stopped")
	case <-doneCtx.Done():
		logger.Error("enrichment worker shutdown timed out", "error", doneCtx.Err())
	}
}
