// Package api assembles the HTTP surface: the questionnaire routes kept
// from the original web app, their JSON mirrors and the operational routes.
package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/glucorisk/backend/internal/api/handlers"
	"github.com/glucorisk/backend/internal/feed"
	"github.com/glucorisk/backend/internal/metrics"
	"github.com/glucorisk/backend/internal/middleware/ratelimit"
	"github.com/glucorisk/backend/internal/middleware/security"
	"github.com/glucorisk/backend/internal/middleware/validation"
	"github.com/glucorisk/backend/pkg/logger"
)

type Store interface {
	handlers.HistoryStore
	handlers.Pinger
}

type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	BodyLimit      int
	StaticDir      string
	AllowedOrigins []string
	Development    bool
	AccessLog      bool
	HistoryLimit   int
}

type Deps struct {
	Engine       handlers.Predictor
	ActiveModel  string
	LoadedModels []string
	Store        Store
	// Cache may be nil.
	Cache       handlers.StatsInvalidator
	Stats       handlers.SummaryProvider
	Hub         *feed.Hub
	RateLimiter *ratelimit.RateLimiter
}

func NewApp(opts Options, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "glucorisk",
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(fiberlogger.New())
	}
	origins := "*"
	if len(opts.AllowedOrigins) > 0 {
		origins = strings.Join(opts.AllowedOrigins, ", ")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: opts.AllowedOrigins,
		IsDevelopment:  opts.Development,
	}))

	predictionHandler := handlers.NewPredictionHandler(deps.Engine)
	historyHandler := handlers.NewHistoryHandler(deps.Store, deps.Cache, opts.HistoryLimit)
	statisticsHandler := handlers.NewStatisticsHandler(deps.Stats)
	infoHandler := handlers.NewInfoHandler(deps.ActiveModel, deps.LoadedModels, deps.Store)

	predict := []fiber.Handler{}
	if deps.RateLimiter != nil {
		predict = append(predict, deps.RateLimiter.Middleware())
	}
	predict = append(predict,
		validation.Answers(validation.Config{Logger: logger.GetLogger()}),
		predictionHandler.HandlePredict,
	)

	app.Post("/prediksi", predict...)
	app.Post("/predict", predict...)
	app.Get("/riwayat", historyHandler.Page)
	app.Delete("/hapus/:id", historyHandler.Delete)
	app.Get("/statistik", statisticsHandler.Page)
	app.Get("/backend", infoHandler.Backend)

	api := app.Group("/api/v1")

	api.Post("/predictions", predict...)
	api.Get("/predictions", historyHandler.List)
	api.Delete("/predictions/:id", historyHandler.Delete)
	api.Get("/statistics", statisticsHandler.Get)
	api.Get("/health", infoHandler.Health)
	api.Get("/ready", infoHandler.Ready)

	app.Get("/metrics", metrics.MetricsHandler())

	if deps.Hub != nil {
		wsHandler := handlers.NewWebSocketHandler(deps.Hub)
		app.Get("/ws/predictions", wsHandler.Upgrade, websocket.New(wsHandler.HandleConnection))
	}

	if opts.StaticDir != "" {
		app.Static("/static", opts.StaticDir)
		app.Static("/", opts.StaticDir, fiber.Static{Index: "index.html"})
	}

	return app
}
