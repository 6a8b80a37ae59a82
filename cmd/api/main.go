package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"reel/internal/httpapi"
	"reel/internal/metrics"
	"reel/internal/pkg/env"
	"reel/internal/pkg/logger"
	"reel/internal/pkg/shutdown"
	"reel/internal/repositories"
	"reel/internal/storage"
	"reel/internal/worker/queue"
)

const version = "0.1.0"

func main() {
	cfg := logger.DefaultConfig()
	cfg.ServiceName = "reel-api"
	log := logger.New(cfg)

	log.Info("starting reel API", "version", version)

	httpPort := env.Env("HTTP_PORT", "8080")
	dbURL := mustEnv(log, "DATABASE_URL")
	redisAddr := mustEnv(log, "REDIS_ADDR")
	queueName := env.Env("RENDER_QUEUE_NAME", queue.DefaultName)

	ctx := context.Background()
	shutdownMgr := shutdown.NewManager(log, 30*time.Second)

	log.Info("connecting to PostgreSQL")
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.LogFatal("failed to connect to PostgreSQL", err)
	}
	shutdownMgr.RegisterSimple("postgres", pool.Close)

	if err := pool.Ping(ctx); err != nil {
		log.LogFatal("failed to ping PostgreSQL", err)
	}
	repo := repositories.NewRenderRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.LogFatal("failed to apply schema", err)
	}
	log.Info("PostgreSQL connected")

	log.Info("connecting to Redis")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	shutdownMgr.Register("redis", func(ctx context.Context) error {
		return rdb.Close()
	})
	q := queue.NewRedisQueue(rdb, queueName)
	if err := q.Ping(ctx); err != nil {
		log.LogFatal("failed to ping Redis", err)
	}
	log.Info("Redis connected", "queue", q.Name())

	sp, err := storage.NewProvider(ctx, storage.ConfigFromEnv())
	if err != nil {
		log.LogFatal("failed to initialize storage provider", err)
	}
	log.Info("storage provider initialized", "provider", sp.Provider())

	router := httpapi.NewRouter(httpapi.Deps{
		Store:   repo,
		Queue:   q,
		SP:      sp,
		Metrics: metrics.New(),
		Log:     log,
		Version: version,
	})

	server := &http.Server{
		Addr:              "0.0.0.0:" + httpPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownMgr.Register("http-server", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	go func() {
		log.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogFatal("HTTP server failed", err)
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
