package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/quizfiesta/funnel-api/internal/api"
	"github.com/quizfiesta/funnel-api/internal/audiocache"
	"github.com/quizfiesta/funnel-api/internal/config"
	"github.com/quizfiesta/funnel-api/internal/pkg/logger"
	"github.com/quizfiesta/funnel-api/internal/ratelimit"
	"github.com/quizfiesta/funnel-api/internal/repository/postgres"
	"github.com/quizfiesta/funnel-api/internal/service/funnel"
	"github.com/quizfiesta/funnel-api/internal/service/order"
)

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database.url (or DATABASE_URL) is required")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("ping database: %v", err)
	}
	cancel()
	logger.Info("connected to database")

	// Redis is optional: without it the rate limiter is process-local.
	var redisClient *redis.Client
	var limiter ratelimit.Limiter = ratelimit.NewMemory(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	if cfg.Redis.Enabled && cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("parse redis url: %v", err)
		}
		redisClient = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, using in-memory rate limiter", "error", err)
			redisClient.Close()
			redisClient = nil
		} else {
			limiter = ratelimit.NewRedis(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
			logger.Info("using redis rate limiter")
		}
		cancel()
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// The audio cache is optional; without it the reading-audio endpoints
	// answer 503 and the client talks to the speech provider directly.
	var audioCache audiocache.Cache
	if cfg.AudioCache.Enabled && cfg.AudioCache.S3Bucket != "" {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s3Cache, err := audiocache.New(cacheCtx, cfg.AudioCache.S3Bucket, cfg.AudioCache.S3Region)
		cancel()
		if err != nil {
			logger.Warn("audio cache unavailable", "error", err)
		} else {
			audioCache = s3Cache
			logger.Info("audio cache enabled", "bucket", cfg.AudioCache.S3Bucket)
		}
	}

	funnelSvc := funnel.NewService(postgres.NewFunnelRepo(db))
	orderSvc := order.NewService(postgres.NewOrderRepo(db))

	server := api.NewServer(cfg, funnelSvc, orderSvc, limiter, audioCache, db, redisClient)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	go func() {
		logger.Info("funnel api listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
