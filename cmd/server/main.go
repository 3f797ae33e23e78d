package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/alerts"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/api"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/api/websocket"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/bus"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/config"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/services"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/simulator"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/storage"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/synthetics"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/tracing"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/cache"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel)
	logg.Info("Starting API monitoring dashboard", "version", version, "environment", cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing is optional; without an OTLP endpoint the provider stays no-op.
	tracerProvider, err := tracing.NewTracerProvider("api-monitoring-dashboard", version, tracingEndpoint(cfg))
	if err != nil {
		logg.Warn("Tracing disabled", "error", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logg.Warn("Tracer shutdown failed", "error", err)
		}
	}()

	cacheStore := newCacheStore(cfg, logg)
	tsStore := newTimeSeriesStore(cfg, logg)
	defer tsStore.Close()

	eventBus := bus.New(logg)

	coll := collector.New(eventBus, logg, collector.Options{
		DedupCooldown:      time.Duration(cfg.Alerting.DedupCooldownSec) * time.Second,
		Ignore404Endpoints: cfg.Alerting.Ignore404Endpoints,
		Thresholds:         cfg.Thresholds,
	})
	coll.StartResourceLoop(ctx)

	listener := storage.NewListener(tsStore, eventBus, logg)
	go listener.Run(ctx)

	engine := alerts.NewEngine(coll, time.Duration(cfg.Alerting.EvaluationIntervalSec)*time.Second, logg)
	engine.Start()
	defer engine.Stop()

	settingsService := services.NewSettingsService(cacheStore, logg)
	notifier := services.NewNotifier(logg)

	prober := synthetics.NewProber(tracing.NewProbeTracer("api-monitoring-dashboard"), logg)
	scheduler := synthetics.NewScheduler(prober, coll, notifier, settingsService, logg)
	if cfg.Synthetics.Enabled {
		scheduler.Start(ctx)
	}
	defer scheduler.Stop()

	sim := simulator.New(coll, cfg.Simulator.RPS, cfg.Simulator.DBQPS, logg)
	if cfg.Simulator.Enabled {
		sim.Start()
	}
	defer sim.Stop()

	hub := websocket.NewHub(cfg.WebSocket, logg)
	if cfg.WebSocket.Enabled {
		go hub.Run(ctx, eventBus)
	}

	// Threshold changes in the config file apply without a restart.
	if configFile := config.FindConfigFile(); configFile != "" {
		watcher := config.NewWatcher(configFile, cfg, logg)
		watcher.Register(func(updated *config.Config) {
			coll.SetThresholds(updated.Thresholds)
			logg.Info("Alert thresholds reloaded from config")
		})
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logg.Warn("Config watcher unavailable", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	apiServer := api.NewServer(cfg, api.Deps{
		Collector: coll,
		Scheduler: scheduler,
		Simulator: sim,
		Settings:  settingsService,
		Notifier:  notifier,
		Store:     tsStore,
		Cache:     cacheStore,
		Bus:       eventBus,
		Hub:       hub,
		BaseCtx:   ctx,
	}, logg)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logg.Info("Shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logg.Error("Server shutdown failed", "error", err)
		}
		cancel()
		eventBus.Close()
	}()

	if err := apiServer.Start(); err != nil {
		logg.Fatal("Server failed", "error", err)
	}
	logg.Info("Server stopped")
}

func tracingEndpoint(cfg *config.Config) string {
	if !cfg.Tracing.Enabled {
		return ""
	}
	return cfg.Tracing.OTLPEndpoint
}

// newCacheStore connects to Valkey when caching is enabled, falling back to
// the in-process store so the dashboard always starts.
func newCacheStore(cfg *config.Config, logg logger.Logger) cache.Store {
	if cfg.Cache.Enabled && cfg.Cache.Node != "" {
		store, err := cache.NewValkeySingle(cfg.Cache.Node, cfg.Cache.DB, cfg.Cache.Password,
			time.Duration(cfg.Cache.TTL)*time.Second, logg)
		if err == nil {
			logg.Info("Valkey cache connected", "node", cfg.Cache.Node)
			return store
		}
		logg.Warn("Valkey unavailable, using in-memory cache", "error", err)
	}
	return cache.NewMemoryStore(logg)
}

// newTimeSeriesStore opens the configured persistence driver, falling back to
// the bounded in-memory store when SQLite cannot be opened.
func newTimeSeriesStore(cfg *config.Config, logg logger.Logger) storage.TimeSeriesStore {
	if cfg.Storage.Driver == "sqlite" {
		store, err := storage.NewSQLiteStore(cfg.Storage.Path, logg)
		if err == nil {
			logg.Info("SQLite store opened", "path", cfg.Storage.Path)
			return store
		}
		logg.Warn("SQLite unavailable, using in-memory store", "error", err)
	}
	return storage.NewMemoryTimeSeriesStore(logg)
}
