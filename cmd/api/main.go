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

	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/http"
	natsadapter "github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/nats"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/osrm"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/photon"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/postgres"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/valkey"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/ports"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/core/usecases"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/config"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/logging"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("hgvdp-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("hgvdp-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx, 15*time.Second)

	// Cache (optional: the engine degrades to in-process caching only)
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS (optional: collaborators just miss live re-render hints)
	var changeNotifier ports.ChangeNotifier
	notifier, err := natsadapter.NewNotifier(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		notifier = nil
	} else {
		defer notifier.Close()
		changeNotifier = notifier
	}

	// External providers
	places := photon.New(cfg.Geocoder.BaseURL)
	router := osrm.New(cfg.Router.BaseURL)

	// Storage
	store := postgres.NewRouteStore(db)

	// Use cases
	geocoder := usecases.NewGeocodeService(places, cacheSvc, usecases.GeocodeOptions{
		CacheVersion:      cfg.Geocoder.CacheVersion,
		Throttle:          time.Duration(cfg.Geocoder.ThrottleMs) * time.Millisecond,
		MaxHintDistanceKm: cfg.Geocoder.MaxHintKm,
	})
	directions := usecases.NewDirectionsService(router, cacheSvc, usecases.DirectionsOptions{
		Throttle:   time.Duration(cfg.Router.ThrottleMs) * time.Millisecond,
		MaxEntries: cfg.Router.MaxEntries,
	})
	anchors := usecases.NewAnchorService(geocoder)
	builder := usecases.NewPathService(anchors, geocoder, directions, usecases.PathOptions{
		MaxSegmentJumpKm: cfg.Engine.MaxSegmentJumpKm,
	})
	routesSvc := usecases.NewRoutesService(store, changeNotifier)
	capture := usecases.NewCaptureService(store, directions, changeNotifier, usecases.CaptureOptions{
		PreviewDebounce: time.Duration(cfg.Engine.PreviewDebounceMs) * time.Millisecond,
	})

	deps := &http.Dependencies{
		Routes:   routesSvc,
		Builder:  builder,
		Geocoder: geocoder,
		Capture:  capture,
		Notifier: notifier,
		DB:       db,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    4 * 1024 * 1024, // route sheets with embedded geometry get big
		AppName:      "HGV Destinations API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
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

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
