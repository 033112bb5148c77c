package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/api/handlers"
	"github.com/javari-ai/brain/internal/cache/redis"
	"github.com/javari-ai/brain/internal/classifier"
	"github.com/javari-ai/brain/internal/healing"
	"github.com/javari-ai/brain/internal/health"
	"github.com/javari-ai/brain/internal/knowledge"
	"github.com/javari-ai/brain/internal/metrics"
	"github.com/javari-ai/brain/internal/middleware/ratelimit"
	"github.com/javari-ai/brain/internal/middleware/security"
	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/report"
	"github.com/javari-ai/brain/internal/scraper"
	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/config"
	appLogger "github.com/javari-ai/brain/pkg/logger"
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

	appLogger.Info("Starting learning pipeline API server")

	db, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cache *redis.Client
	if cfg.Redis.Enabled {
		cache, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, running without search cache", zap.Error(err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	metrics.Init()

	queueService := queue.NewService(db, cfg.Queue.LeaseTTL())
	processor := classifier.NewProcessor(db, queueService, cfg.Queue.BatchSize)
	knowledgeService := knowledge.NewService(db)

	aggregator := health.NewAggregator(db, health.Config{
		StoreLatencyDegradedMS: cfg.Health.StoreLatencyDegradedMS,
		BacklogDegraded:        cfg.Health.BacklogDegraded,
		BacklogUnhealthy:       cfg.Health.BacklogUnhealthy,
		IssueWindow:            time.Duration(cfg.Health.IssueWindowHours) * time.Hour,
	})
	dispatcher := healing.NewDispatcher(db, queueService, cfg.Queue.RetentionAge())

	scrapeClient := scraper.NewClient(cfg.Scraper.UserAgent, time.Duration(cfg.Scraper.PauseMS)*time.Millisecond)
	runner := scraper.NewRunner(db, queueService, scrapeClient, scraper.Caps{
		MDN:     cfg.Scraper.MDNSectionCap,
		DevDocs: cfg.Scraper.DevDocsCap,
		News:    cfg.Scraper.NewsCap,
	})

	generator := report.NewGenerator(db, cfg.Report.DiscordWebhookURL)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(limiter.Middleware())

	learningHandler := handlers.NewLearningHandler(db, queueService, processor, knowledgeService, cache)
	decisionsHandler := handlers.NewDecisionsHandler(db)
	healthHandler := handlers.NewHealthHandler(aggregator, dispatcher)
	reportHandler := handlers.NewReportHandler(generator)
	scrapeHandler := handlers.NewScrapeHandler(runner, cfg.Scheduler.Secret)

	api := app.Group("/api")

	api.Post("/learning/ingest", learningHandler.HandleIngest)
	api.Get("/learning/process-queue", learningHandler.HandleProcessQueue)
	api.Post("/learning/process-queue", learningHandler.HandleProcessQueue)
	api.Get("/learning/search", learningHandler.HandleSearch)

	api.Post("/decisions/log", decisionsHandler.HandleLogDecision)
	api.Get("/decisions/log", decisionsHandler.HandleListDecisions)

	api.Get("/health/check", healthHandler.HandleCheck)
	api.Post("/health/check", healthHandler.HandleCheck)
	api.Get("/health/self-heal", healthHandler.HandleSelfHeal)
	api.Post("/health/self-heal", healthHandler.HandleSelfHeal)

	api.Get("/reports/daily", reportHandler.HandleDaily)
	api.Post("/reports/daily", reportHandler.HandleDaily)

	api.Get("/scrape/:source", scrapeHandler.HandleScrape)
	api.Post("/scrape/:source", scrapeHandler.HandleScrape)

	app.Get("/metrics", metrics.Handler())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

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
	app.Shutdown()
	appLogger.Info("Server stopped")
}
