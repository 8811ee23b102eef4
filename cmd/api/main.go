package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/facilitymap/internal/cache"
	"github.com/xelth-com/facilitymap/internal/config"
	"github.com/xelth-com/facilitymap/internal/database"
	"github.com/xelth-com/facilitymap/internal/handlers"
	"github.com/xelth-com/facilitymap/internal/layout"
	"github.com/xelth-com/facilitymap/internal/logger"
	"github.com/xelth-com/facilitymap/internal/store"
	"github.com/xelth-com/facilitymap/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format, "facilitymap")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	// 2. Open the store (embedded vs external postgres is detected automatically)
	var st store.Store
	switch cfg.Store {
	case "memory":
		zl.Warn("using in-memory store, data is lost on restart")
		st = store.NewMemoryStore()
	default:
		db, err := database.Connect(cfg.Database, zl)
		if err != nil {
			zl.Fatal("failed to connect to database", zap.Error(err))
		}
		zl.Info("synchronizing database schema")
		if err := db.Migrate(); err != nil {
			zl.Fatal("schema migration failed", zap.Error(err))
		}
		st = store.NewGormStore(db)
	}

	opts := []layout.Option{layout.WithTimeout(cfg.TxTimeout)}

	// 3. Snapshot cache
	var redisKV *cache.RedisKV
	if cfg.Redis.Addr != "" {
		redisKV = cache.NewRedisKV(cache.NewRedisClient(cfg.Redis))
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisKV.Ping(pingCtx); err != nil {
			zl.Warn("redis unavailable, snapshot cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			redisKV.Close()
			redisKV = nil
		} else {
			opts = append(opts, layout.WithCache(cache.NewSnapshots(redisKV, cfg.Redis.TTL, zl)))
			zl.Info("snapshot cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
		}
		cancel()
	}

	// 4. Change feed
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub(zl)
	go hub.Run(hubCtx)
	opts = append(opts, layout.WithNotifier(hub))

	svc := layout.NewService(st, zl, opts...)

	if err := handlers.EnsureAdmin(context.Background(), st, cfg.Admin.Email, cfg.Admin.Password, zl); err != nil {
		zl.Error("bootstrap administrator failed", zap.Error(err))
	}

	// 5. Set up HTTP router
	router := handlers.NewRouter(handlers.Deps{
		Service:       svc,
		Store:         st,
		Hub:           hub,
		JWTSecret:     cfg.JWTSecret,
		PublicBaseURL: cfg.PublicBaseURL,
		Log:           zl,
	})

	// 6. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		zl.Info("server starting", zap.String("port", cfg.Port), zap.String("store", cfg.Store), zap.String("env", cfg.NodeEnv))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	sig := <-shutdown
	zl.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zl.Error("HTTP server shutdown error", zap.Error(err))
	}
	stopHub()

	if redisKV != nil {
		redisKV.Close()
	}

	// Close the store (this also stops embedded PostgreSQL)
	if err := st.Close(); err != nil {
		zl.Error("store close error", zap.Error(err))
	}
	zl.Info("shutdown complete")
}
