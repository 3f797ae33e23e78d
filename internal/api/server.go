// Package api wires the HTTP surface of the monitoring dashboard: REST
// endpoints, the SSE stream, the WebSocket feed and the Prometheus scrape
// endpoint.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/api/handlers"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/api/middleware"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/api/websocket"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/bus"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/collector"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/config"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/monitoring"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/services"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/simulator"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/storage"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/synthetics"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/cache"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

// Deps carries everything the HTTP layer serves or controls.
type Deps struct {
	Collector *collector.Collector
	Scheduler *synthetics.Scheduler
	Simulator *simulator.Simulator
	Settings  *services.SettingsService
	Notifier  *services.Notifier
	Store     storage.TimeSeriesStore
	Cache     cache.Store
	Bus       *bus.Bus
	Hub       *websocket.Hub
	BaseCtx   context.Context
}

// Server is the HTTP front of the dashboard.
type Server struct {
	config     *config.Config
	logger     logger.Logger
	router     *gin.Engine
	httpServer *http.Server
	deps       Deps
}

func NewServer(cfg *config.Config, deps Deps, log logger.Logger) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config: cfg,
		logger: log,
		router: gin.New(),
		deps:   deps,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))
	s.router.Use(middleware.RequestLogger(s.logger))
	if s.config.Monitoring.Enabled {
		s.router.Use(monitoring.HTTPMetricsMiddleware())
	}
	s.router.Use(middleware.Instrument(s.deps.Collector))
}

func (s *Server) setupRoutes() {
	dashboard := handlers.NewDashboardHandler(s.deps.Collector, s.deps.Cache)
	alerts := handlers.NewAlertsHandler(s.deps.Collector, s.deps.Notifier, s.deps.Settings, s.logger)
	settings := handlers.NewSettingsHandler(s.deps.Settings, s.deps.Scheduler, s.deps.BaseCtx, s.logger)
	synth := handlers.NewSyntheticsHandler(s.deps.Scheduler, s.deps.BaseCtx, s.logger)
	sim := handlers.NewSimulatorHandler(s.deps.Simulator)
	series := handlers.NewSeriesHandler(s.deps.Store, s.logger)
	stream := handlers.NewStreamHandler(s.deps.Bus, s.logger)

	s.router.GET("/health", dashboard.HealthCheck)
	if s.config.Monitoring.Enabled {
		monitoring.SetupPrometheusMetrics(s.router)
	}

	api := s.router.Group("/api")
	{
		api.GET("/dashboard-data", dashboard.GetDashboardData)

		api.GET("/alerts", alerts.ListAlerts)
		api.POST("/alerts/:id/acknowledge", alerts.AcknowledgeAlert)
		api.POST("/alerts/:id/resolve", alerts.ResolveAlert)
		api.POST("/alerts/test-notification", alerts.TestNotifications)
		api.GET("/alert-thresholds", alerts.GetThresholds)
		api.POST("/alert-thresholds", alerts.SetThresholds)

		api.GET("/settings", settings.GetSettings)
		api.POST("/settings", settings.SaveSettings)

		api.GET("/synthetics/status", synth.GetStatus)
		api.POST("/synthetics/start", synth.Start)
		api.POST("/synthetics/stop", synth.Stop)
		api.POST("/synthetics/run-all", synth.RunAll)
		api.POST("/synthetics/run", synth.RunSingle)
		api.POST("/synthetics/test", synth.Test)

		api.GET("/simulator/status", sim.GetStatus)
		api.POST("/simulator/start", sim.Start)
		api.POST("/simulator/stop", sim.Stop)

		api.GET("/series/latency", series.GetLatencySeries)
		api.GET("/series/error-rate", series.GetErrorRateSeries)
		api.GET("/series/requests", series.GetRequestSeries)
		api.GET("/slo/summary", series.GetSLOSummary)
		api.GET("/incidents", series.GetIncidents)
		api.GET("/error-snapshots", series.ListErrorSnapshots)
		api.GET("/error-snapshots/:id", series.GetErrorSnapshot)

		api.GET("/stream", stream.Stream)
	}

	if s.config.WebSocket.Enabled {
		s.router.GET("/ws", s.deps.Hub.Handle)
	}
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "port", s.config.Port, "environment", s.config.Environment)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
