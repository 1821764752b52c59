package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/mechlink/mechlink/internal/adapters/http"
	natsadapter "github.com/mechlink/mechlink/internal/adapters/nats"
	"github.com/mechlink/mechlink/internal/adapters/nominatim"
	"github.com/mechlink/mechlink/internal/adapters/postgres"
	"github.com/mechlink/mechlink/internal/adapters/valkey"
	"github.com/mechlink/mechlink/internal/core/ports"
	"github.com/mechlink/mechlink/internal/core/usecases"
	"github.com/mechlink/mechlink/internal/pkg/config"
	"github.com/mechlink/mechlink/internal/pkg/logging"
	"github.com/mechlink/mechlink/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mechlink-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	loc, err := time.LoadLocation(cfg.Search.Timezone)
	if err != nil {
		log.Fatalf("search timezone %q: %v", cfg.Search.Timezone, err)
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	deps := &http.Dependencies{
		DB: db,
		Defaults: http.SearchDefaults{
			RadiusKm:   cfg.Search.DefaultRadiusKm,
			MaxResults: cfg.Search.DefaultMaxResults,
		},
	}

	// Cache and publisher stay nil interfaces when unavailable.
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.KeyPrefix); err != nil {
		slog.Warn("valkey unavailable, running without cache", "error", err)
	} else {
		defer c.Close()
		cache = c
		deps.Cache = c
	}

	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer p.Close()
		publisher = p
		deps.NATS = p.Conn()
	}

	// Use cases
	repo := postgres.NewWorkshopRepo(db)
	geocoder := nominatim.New(cfg.Geocoding.BaseURL, cfg.Geocoding.UserAgent,
		time.Duration(cfg.Geocoding.TimeoutSeconds)*time.Second)
	availability := usecases.NewAvailabilityEvaluator(loc, nil)

	deps.Geocoding = usecases.NewGeocodingService(geocoder, cache, usecases.GeocodingOptions{
		Timeout:         time.Duration(cfg.Geocoding.TimeoutSeconds) * time.Second,
		DefaultRegion:   cfg.Geocoding.DefaultRegion,
		CacheTTLSeconds: cfg.Geocoding.CacheTTLSeconds,
	})
	deps.Search = usecases.NewSearchService(repo, deps.Geocoding, availability, publisher, usecases.SearchOptions{
		MaxRadiusKm:       cfg.Search.MaxRadiusKm,
		DefaultMaxResults: cfg.Search.DefaultMaxResults,
		MaxResultsLimit:   cfg.Search.MaxResultsLimit,
		AvgSpeedKmh:       cfg.Search.AvgSpeedKmh,
	})
	deps.Distance = usecases.NewDistanceService(cfg.Search.AvgSpeedKmh)
	deps.Suggestions = usecases.NewSuggestionService(repo, cache)
	deps.Workshops = usecases.NewWorkshopService(repo, cache, availability, publisher)

	// Drop cached views whenever a workshop changes anywhere in the fleet.
	if cache != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "mechlink-api-cache")
		if err != nil {
			slog.Warn("workshop update subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			onUpdate := usecases.OnWorkshopUpdated(deps.Workshops, deps.Suggestions)
			if err := sub.SubscribeWorkshopUpdates(ctx, onUpdate); err != nil {
				slog.Warn("subscribe workshop updates", "error", err)
			}
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "MechLink API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
