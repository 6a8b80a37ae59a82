package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"reel/internal/metrics"
	"reel/internal/pkg/env"
	"reel/internal/pkg/logger"
	"reel/internal/pkg/shutdown"
	"reel/internal/renderer"
	"reel/internal/repositories"
	"reel/internal/storage"
	"reel/internal/worker"
	"reel/internal/worker/queue"
)

func main() {
	cfg := logger.DefaultConfig()
	cfg.ServiceName = "reel-worker"
	log := logger.New(cfg)

	dbURL := mustEnv(log, "DATABASE_URL")
	redisAddr := mustEnv(log, "REDIS_ADDR")
	storageRoot := env.Env("WORKER_STORAGE_ROOT", "/data")
	queueName := env.Env("RENDER_QUEUE_NAME", queue.DefaultName)
	metricsAddr := env.Env("METRICS_ADDR", ":9090")

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)
	repo := repositories.NewRenderRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.LogFatal("failed to apply schema", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})

	sp, err := storage.NewProvider(ctx, storage.ConfigFromEnv())
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}

	orch, err := renderer.New(renderer.OptionsFromEnv(), log, nil)
	if err != nil {
		log.LogFatal("failed to configure renderer", err)
	}
	log.Info("renderer configured", "mode", string(orch.Mode()))

	m := metrics.New()
	metricsSrv := &http.Server{
		Addr:              metricsAddr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("metrics server listening", "addr", metricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err.Error())
		}
	}()
	shutdownMgr.Register("metrics-server", metricsSrv.Shutdown)

	// The worker stops first: its context is canceled when shutdown starts
	// and the hook waits for the in-flight job to be marked FAILED.
	runCtx := shutdownMgr.Context()
	stopped := make(chan struct{})
	shutdownMgr.Register("worker", func(ctx context.Context) error {
		select {
		case <-stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	go func() {
		defer close(stopped)
		err := worker.Run(runCtx, worker.Deps{
			Queue:        queue.NewRedisQueue(rdb, queueName),
			Store:        repo,
			Renderer:     orch,
			SP:           sp,
			StorageRoot:  storageRoot,
			CleanupLocal: env.BoolEnv("WORKER_CLEANUP_LOCAL", true),
			Concurrency:  env.IntEnv("WORKER_CONCURRENCY", 1),
			Metrics:      m,
			Log:          log,
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("worker stopped", "error", err.Error())
		}
	}()

	shutdownMgr.Wait(context.Background())
}

func mustEnv(log *logger.Logger, key string) string {
	v := env.Env(key, "")
	if v == "" {
		log.LogFatal("missing required environment variable", nil, "key", key)
	}
	return v
}
