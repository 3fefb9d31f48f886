package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/glucorisk/backend/internal/api"
	"github.com/glucorisk/backend/internal/cache/redis"
	"github.com/glucorisk/backend/internal/classifier"
	"github.com/glucorisk/backend/internal/feed"
	"github.com/glucorisk/backend/internal/inference"
	"github.com/glucorisk/backend/internal/metrics"
	"github.com/glucorisk/backend/internal/middleware/ratelimit"
	"github.com/glucorisk/backend/internal/prediction"
	"github.com/glucorisk/backend/internal/statistics"
	"github.com/glucorisk/backend/internal/storage/sqlite"
	"github.com/glucorisk/backend/pkg/circuitbreaker"
	"github.com/glucorisk/backend/pkg/config"
	appLogger "github.com/glucorisk/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting diabetes risk prediction server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.NewClient(context.Background(), redis.Options{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			InferenceTTL: time.Duration(cfg.Redis.InferenceTTLSec) * time.Second,
			StatsTTL:     time.Duration(cfg.Redis.StatsTTLSec) * time.Second,
		})
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
			cache = nil
		}
	}
	defer cache.Close()

	models := classifier.LoadAll(classifier.Paths{
		GradientBoosting: cfg.Models.Path(cfg.Models.GradientBoostingFile),
		CatBoost:         cfg.Models.Path(cfg.Models.CatBoostFile),
		KNN:              cfg.Models.Path(cfg.Models.KNNFile),
	})

	engineCfg := prediction.Config{Store: sqliteClient}
	deps := api.Deps{Store: sqliteClient}
	var statsCache statistics.Cache
	if cache != nil {
		engineCfg.Cache = cache
		deps.Cache = cache
		statsCache = cache
	}

	activeModel := ""
	if model := models.Select(); model != nil {
		activeModel = model.Name()
		engineCfg.Inferrer = inference.NewAdapter(model, inference.Config{
			FailureThreshold: uint32(cfg.Inference.FailureThreshold),
			OpenTimeout:      time.Duration(cfg.Inference.OpenTimeoutSec) * time.Second,
			OnStateChange: func(name string, _, to circuitbreaker.State) {
				metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			},
		})
		metrics.ActiveModelInfo.WithLabelValues(activeModel).Set(1)
		appLogger.Info("Active model selected", zap.String("model", activeModel))
	} else {
		metrics.ActiveModelInfo.WithLabelValues(prediction.ModelFallback).Set(1)
		appLogger.Warn("No model loaded, using fallback rules only")
	}

	hub := feed.NewHub(0)
	defer hub.Close()
	engineCfg.Feed = hub

	engine := prediction.NewEngine(engineCfg)

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	deps.Engine = engine
	deps.ActiveModel = activeModel
	deps.LoadedModels = models.Names()
	deps.Stats = statistics.NewService(sqliteClient, statsCache)
	deps.Hub = hub
	deps.RateLimiter = limiter

	app := api.NewApp(api.Options{
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:      cfg.Server.BodyLimit,
		StaticDir:      cfg.Server.StaticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Development:    cfg.Server.Development,
		AccessLog:      cfg.Server.AccessLog,
		HistoryLimit:   cfg.History.Limit,
	}, deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	hub.Close()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Warn("Server shutdown incomplete", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
