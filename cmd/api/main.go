package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/prashantsingh432/prospect-pulse-searcher/cmd/mainconfig"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/api/router"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	appconfig "github.com/prashantsingh432/prospect-pulse-searcher/internal/config"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/dispositions"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/extension"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/lusha"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/observability/metrics"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/prospects"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/realtime"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/rtne"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/users"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting prospect-pulse API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The prospects repository runs on database/sql for pq array support.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	metricsHandler, m := setupMetrics()
	realtimeMetrics := m.realtime
	dispositionMetrics := m.dispositions
	enrichmentMetrics := m.enrichment

	issuer := auth.NewTokenIssuer(cfg.ExtensionJWTSecret, cfg.ExtensionTokenTTL)
	credentials := auth.NewCredentialStore(pool)

	usersRepo := users.NewPostgresRepository(pool)
	profileSyncer := users.NewSyncer(usersRepo)
	usersHandler := users.NewHandler(usersRepo, logger)

	prospectsRepo := prospects.NewPostgresRepository(db)
	prospectsHandler := prospects.NewHandler(prospectsRepo, logger)

	changePublisher := realtime.NewPublisher(redisClient)
	stream := realtime.NewStreamHandler(logger)
	dispositionHook := realtime.NewHook(realtime.HookConfig{
		Table:          "dispositions",
		Enabled:        cfg.RealtimeEnabled,
		ReconnectDelay: cfg.RealtimeReconnectDelay,
		OnInsert:       stream.Broadcast,
		OnUpdate:       stream.Broadcast,
		OnDelete:       stream.Broadcast,
		Logger:         logger,
		Metrics:        realtimeMetrics,
	}, realtime.NewRedisSubscriber(redisClient))
	defer dispositionHook.Close()

	revealTracker := rtne.NewRevealTracker(redisClient, cfg.RevealPendingTTL)

	dispositionRepo := dispositions.NewPostgresRepository(pool)
	dispositionService := dispositions.NewService(dispositionRepo, usersRepo, profileSyncer, logger).
		WithRevealClearer(revealTracker).
		WithPublisher(changePublisher).
		WithMetrics(dispositionMetrics)
	historyService := dispositions.NewHistoryService(dispositionRepo, usersRepo)
	dispositionsHandler := dispositions.NewHandler(dispositionService, historyService, logger)

	rtneStore := rtne.NewStore(pool)
	jobStore := rtne.NewJobStore(pool)

	enrichmentQueue, err := setupEnrichmentQueue(ctx, cfg)
	if err != nil {
		logger.Error("failed to set up enrichment queue", "error", err)
		os.Exit(1)
	}
	enrichmentPublisher := rtne.NewPublisher(enrichmentQueue, jobStore)

	rtneService := rtne.NewService(rtneStore, revealTracker, usersRepo, logger).
		WithPublisher(enrichmentPublisher).
		WithMetrics(enrichmentMetrics)
	rtneHandler := rtne.NewHandler(rtneService, jobStore, logger)

	lushaClient := lusha.NewClient(logger,
		lusha.WithBaseURL(cfg.LushaBaseURL),
		lusha.WithAPIKey(cfg.LushaAPIKey),
	)
	lushaHandler := lusha.NewHandler(lushaClient, logger)

	// With the in-memory queue there is no separate worker binary, so drain
	// enrichment jobs in-process.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	var enrichmentWorker *rtne.Worker
	if cfg.UseMemoryQueue {
		enrichmentWorker = rtne.NewWorker(enrichmentQueue, jobStore, rtneStore, lushaClient, logger,
			rtne.WithWorkerCount(cfg.WorkerCount),
			rtne.WithEnrichmentMetrics(enrichmentMetrics),
		)
		enrichmentWorker.Start(workerCtx)
	}

	extensionHandler := extension.NewHandler(credentials, issuer, prospectsRepo, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		TokenIssuer:         issuer,
		ProspectsHandler:    prospectsHandler,
		DispositionsHandler: dispositionsHandler,
		UsersHandler:        usersHandler,
		RTNEHandler:         rtneHandler,
		LushaHandler:        lushaHandler,
		ExtensionHandler:    extensionHandler,
		RealtimeStream:      stream,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		FunctionRateLimit:   10,
		FunctionRateBurst:   20,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	stopWorker()
	if enrichmentWorker != nil {
		enrichmentWorker.Wait()
	}

	logger.Info("server stopped")
}

type appMetrics struct {
	realtime     *metrics.RealtimeMetrics
	dispositions *metrics.DispositionMetrics
	enrichment   *metrics.EnrichmentMetrics
}

// setupMetrics builds the registry and the /metrics handler together so the
// exported families always match what the app records.
func setupMetrics() (http.Handler, *appMetrics) {
	registry := prometheus.NewRegistry()
	m := &appMetrics{
		realtime:     metrics.NewRealtimeMetrics(registry),
		dispositions: metrics.NewDispositionMetrics(registry),
		enrichment:   metrics.NewEnrichmentMetrics(registry),
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), m
}

// setupEnrichmentQueue picks the in-memory queue for local development or an
// SQS-backed queue otherwise.
func setupEnrichmentQueue(ctx context.Context, cfg *appconfig.Config) (rtne.Queue, error) {
	if cfg.UseMemoryQueue {
		return rtne.NewMemoryQueue(0), nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return rtne.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.EnrichmentQueueURL), nil
}
