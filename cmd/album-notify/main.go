package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/princekumarofficial/album-notify/docs"
	"github.com/princekumarofficial/album-notify/internal/cache"
	"github.com/princekumarofficial/album-notify/internal/config"
	"github.com/princekumarofficial/album-notify/internal/events"
	mediaHandlers "github.com/princekumarofficial/album-notify/internal/http/handlers/media"
	"github.com/princekumarofficial/album-notify/internal/http/handlers/notifications"
	wsHandler "github.com/princekumarofficial/album-notify/internal/http/handlers/websocket"
	"github.com/princekumarofficial/album-notify/internal/http/middleware"
	"github.com/princekumarofficial/album-notify/internal/notify"
	mediaService "github.com/princekumarofficial/album-notify/internal/services/media"
	"github.com/princekumarofficial/album-notify/internal/storage"
	"github.com/princekumarofficial/album-notify/internal/storage/postgres"
	"github.com/princekumarofficial/album-notify/internal/storage/sqlite"
	"github.com/princekumarofficial/album-notify/internal/websocket"
)

// @title Album Notify API
// @version 1.0
// @description Batched notifications for shared photo albums
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.MustLoad()

	level := slog.LevelInfo
	if cfg.Env == "local" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	store, closeStore, err := openStorage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	defer closeStore()
	slog.Info("Connected to notification store", slog.String("driver", cfg.Storage.Driver))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis", slog.String("addr", cfg.Redis.Addr))

	cacheService := cache.NewCacheService(store, redisClient, cfg.Notifications.IdentityCacheTTL)

	metrics := notify.NewMetricsCollector()
	prometheus.MustRegister(metrics)

	engine := notify.NewEngine(notify.NewLedger(), cacheService, cacheService, notify.Config{
		Window:        cfg.Notifications.DebounceWindow,
		SweepInterval: cfg.Notifications.SweepInterval,
		Clock:         clock.WallClock,
		Logger:        logger.With(slog.String("component", "notify")),
		Metrics:       metrics,
	})

	media, err := mediaService.NewService(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}

	hub := websocket.NewHub()
	publisher := events.NewEventPublisher(hub)

	runCtx, stopRunning := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	engineDone := make(chan struct{})
	go func() {
		hub.Run(runCtx)
		close(hubDone)
	}()
	go func() {
		engine.Run(runCtx)
		close(engineDone)
	}()

	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	limits := middleware.NewRateLimitConfig(redisClient, cfg.RateLimit.UploadsPerMinute)
	admin := func(h http.Handler) http.Handler { return auth(middleware.AdminOnly(cfg.Admin.UserIDs)(h)) }
	mh := mediaHandlers.NewMediaHandlers(media, engine, cacheService, cfg.Media.ConfirmedKeyTTL)

	router := http.NewServeMux()
	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.Handle("POST /albums/{albumID}/media/upload-url", auth(mh.GenerateUploadURL()))
	router.Handle("POST /albums/{albumID}/media/confirm", auth(limits.RateLimitedHandler(middleware.ActionUploads, mh.ConfirmUpload())))
	router.Handle("GET /notifications", auth(notifications.List(cacheService)))
	router.Handle("POST /notifications/read-all", auth(notifications.MarkAllRead(cacheService)))
	router.Handle("POST /notifications/{id}/read", auth(notifications.MarkRead(cacheService)))
	router.Handle("DELETE /notifications/{id}", auth(notifications.Delete(cacheService)))
	router.HandleFunc("GET /ws", wsHandler.WebSocketHandler(wsHandler.Session{
		Hub:        hub,
		Subscriber: cacheService,
		Batches:    engine,
		Publisher:  publisher,
		JWTSecret:  cfg.JWTSecret,
	}))
	router.Handle("GET /admin/cache/stats", admin(cache.GetCacheStats(redisClient)))
	router.Handle("POST /admin/cache/clear", admin(cache.ClearCache(redisClient)))
	router.Handle("GET /metrics", promhttp.Handler())
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	slog.Info("Server started", slog.String("address", cfg.HTTPServer.Address))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
	}

	stopRunning()
	<-engineDone
	<-hubDone

	if cfg.Notifications.FlushOnShutdown {
		n := engine.FlushAll(ctx)
		slog.Info("Flushed pending notification batches", slog.Int("batches", n))
	} else {
		n := engine.DiscardAll()
		slog.Info("Discarded pending notification batches", slog.Int("batches", n))
	}

	slog.Info("Server stopped")
}

func openStorage(cfg *config.Config) (storage.Storage, func(), error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		p, err := postgres.NewPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Db.Close() }, nil
	}
}
