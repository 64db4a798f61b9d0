package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"

	httpapi "github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/api/http"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/config"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/discovery"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/location"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/poi"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/scheduler"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/store"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/travel"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/weather"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/weather/providers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.UpstreamTimeout,
	}

	// POI store: PostGIS when a database is configured, seeded demo set
	// otherwise.
	var (
		poiStore poi.Store
		pinger   httpapi.Pinger
	)
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect POI store: %v", err)
		}
		defer pgStore.Close()
		poiStore = pgStore
		pinger = pgStore
		log.Printf("INFO: using PostGIS POI store")
	} else {
		memStore := store.NewMemoryStore()
		memStore.SeedMinnesota()
		poiStore = memStore
		log.Printf("INFO: no DATABASE_URL set; using in-memory POI store with %d seeded locations", memStore.Count())
	}

	// Upstream provider: keyed OpenWeatherMap when configured, keyless
	// Open-Meteo otherwise.
	var provider weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		provider = providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)
	} else {
		provider = providers.NewOpenMeteoProvider(httpClient)
	}
	log.Printf("INFO: weather provider: %s", provider.Name())

	speedModel, err := travel.NewSpeedModel(cfg.SpeedKmPerHour)
	if err != nil {
		log.Fatalf("invalid speed model: %v", err)
	}

	cache := weather.NewCache(cfg.CacheTTL, cfg.MaxStalenessMultiplier, cfg.CacheMaxEntries)
	budget := weather.NewRateBudget(cfg.DailyCallLimit)
	fetcher := weather.NewFetcher(cache, budget, provider, cfg.UpstreamTimeout)

	resolver := location.NewResolver(
		location.NewIPAPIClient(httpClient),
		cfg.IPLookupTimeout,
		cfg.GPSAccuracyMaxM,
		cfg.Fallback,
	)

	orch := discovery.New(
		resolver,
		poi.NewIndex(poiStore),
		travel.NewBucketer(speedModel, cfg.MaxResultCount),
		fetcher,
		speedModel,
		cfg.ViewportPadding,
	)

	// Janitor sweeping entries past the staleness window.
	janitor := scheduler.New(cache, budget, cfg.JanitorInterval)
	if err := janitor.Start(); err != nil {
		log.Fatalf("failed to start janitor: %v", err)
	}
	defer janitor.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "nearest-nice-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          20 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "nearest-nice-weather",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Orchestrator: orch,
		POIStore:     poiStore,
		Budget:       budget,
		Cache:        cache,
		DB:           pinger,
	})

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
