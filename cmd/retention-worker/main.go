package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/juju/clock"
	"github.com/princekumarofficial/album-notify/internal/cache"
	"github.com/princekumarofficial/album-notify/internal/config"
	"github.com/princekumarofficial/album-notify/internal/retention"
	"github.com/princekumarofficial/album-notify/internal/storage"
	"github.com/princekumarofficial/album-notify/internal/storage/postgres"
	"github.com/princekumarofficial/album-notify/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	var store storage.Storage
	switch cfg.Storage.Driver {
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			log.Fatal("Failed to open sqlite database:", err)
		}
		defer s.Close()
		store = s
	default:
		p, err := postgres.NewPostgres(cfg)
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		defer p.Db.Close()
		store = p
	}
	logger.Info("Connected to notification store", slog.String("driver", cfg.Storage.Driver))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	// Purges go through the cache so live feeds drop the deleted records
	purger := cache.NewCacheService(store, redisClient, cfg.Notifications.IdentityCacheTTL)
	worker := retention.NewWorker(purger, cfg.Retention.ReadTTL, cfg.Retention.Interval, clock.WallClock, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	worker.Start(ctx)

	logger.Info("Retention worker stopped")
}
