// Package app provides application-level coordination and dependency injection.
// It orchestrates the initialization of all service components, manages their lifecycles,
// and provides a clean application structure following dependency inversion principles.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-history-service/internal/adapters/primary/rest"
	"github.com/sean-rowe/weather-history-service/internal/adapters/secondary/openmeteo"
	"github.com/sean-rowe/weather-history-service/internal/adapters/secondary/piped"
	"github.com/sean-rowe/weather-history-service/internal/config"
	"github.com/sean-rowe/weather-history-service/internal/core/services"
	"github.com/sean-rowe/weather-history-service/internal/infrastructure/circuitbreaker"
	"github.com/sean-rowe/weather-history-service/internal/infrastructure/database"
	"github.com/sean-rowe/weather-history-service/internal/middleware"
	"github.com/sean-rowe/weather-history-service/internal/observability"
	"github.com/sean-rowe/weather-history-service/internal/version"
)

// readinessTimeout bounds the database ping behind /health/ready.
const readinessTimeout = 2 * time.Second

// App manages the application lifecycle and dependencies.
type App struct {
	cfg       *config.Config
	server    *http.Server
	handler   http.Handler
	logger    *zap.Logger
	telemetry *observability.Telemetry
	db        *sql.DB
	repo      *DatabaseAdapter
	breakers  *circuitbreaker.Manager
}

// New creates a new application instance. Nothing is opened until Init or Start.
//
// Parameters:
//   - cfg: Loaded configuration
//   - logger: Zap logger shared by every component
//
// Returns:
//   - *App: Application instance
func New(cfg *config.Config, logger *zap.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Init opens the database, applies migrations when enabled and wires the HTTP handler.
// Telemetry failures are logged and the service continues without it.
//
// Parameters:
//   - ctx: Context for initialization
//
// Returns:
//   - error: Database, migration or wiring error
func (a *App) Init(ctx context.Context) error {
	if a.cfg.Observability.Enabled {
		if err := a.initTelemetry(ctx); err != nil {
			a.logger.Warn("failed to initialize telemetry, continuing without it", zap.Error(err))
		}
	}

	if err := a.initDatabase(); err != nil {
		return err
	}

	a.breakers = circuitbreaker.NewManager(circuitbreaker.Config{
		MaxRequests: a.cfg.CircuitBreaker.MaxRequests,
		Interval:    a.cfg.CircuitBreaker.Interval,
		Timeout:     a.cfg.CircuitBreaker.Timeout,
	}, a.logger)

	httpClient := &http.Client{
		Timeout: a.cfg.External.HTTPTimeout,
	}

	geocoder := &CircuitBreakerGeocoder{
		client:    openmeteo.NewGeocodingClient(a.cfg.External.GeocodingBaseURL, httpClient, a.logger),
		cb:        a.breakers.Get(providerGeocoding),
		telemetry: a.telemetry,
	}

	archive := &CircuitBreakerArchive{
		client:    openmeteo.NewArchiveClient(a.cfg.External.ArchiveBaseURL, httpClient, a.logger),
		cb:        a.breakers.Get(providerArchive),
		telemetry: a.telemetry,
	}

	videos := &CircuitBreakerVideoSearch{
		client:    piped.NewClient(a.cfg.External.VideoBaseURL, httpClient, a.logger),
		cb:        a.breakers.Get(providerVideo),
		telemetry: a.telemetry,
	}

	resolver := services.NewLocationResolver(geocoder, a.logger)
	requestService := services.NewRequestService(resolver, archive, a.repo, a.logger)
	enrichmentService := services.NewEnrichmentService(a.repo, videos, a.logger)

	a.handler = a.setupRouter(
		rest.NewRequestHandler(requestService, a.logger),
		rest.NewExtrasHandler(enrichmentService, a.logger),
	)

	return nil
}

// Handler returns the wired HTTP handler. It is nil before Init.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Start initializes all components and starts serving HTTP in the background.
//
// Parameters:
//   - ctx: Context for initialization
//
// Returns:
//   - error: Initialization error
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.cfg.Server.Port),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	go func() {
		a.logger.Info("starting HTTP server",
			zap.String("port", a.cfg.Server.Port),
			zap.String("environment", a.cfg.Server.Environment),
			zap.String("version", version.Get().String()))

		if err := a.server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				a.logger.Fatal("failed to start server", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down all application components.
func (a *App) Stop() {
	a.logger.Info("shutting down application...")

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown server gracefully", zap.Error(err))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database connection", zap.Error(err))
		}
	}

	if a.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}

	// Sync fails on some platforms for stdout/stderr
	_ = a.logger.Sync()
}

// WaitForShutdown blocks until the process receives an interrupt or SIGTERM.
func (a *App) WaitForShutdown() {
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	a.logger.Info("shutdown signal received")
}

// initTelemetry initializes OpenTelemetry providers.
func (a *App) initTelemetry(ctx context.Context) error {
	telemetryConfig := observability.Config{
		ServiceName:    a.cfg.Observability.ServiceName,
		ServiceVersion: a.cfg.Observability.ServiceVersion,
		Environment:    a.cfg.Server.Environment,
		OTLPEndpoint:   a.cfg.Observability.OTLPEndpoint,
		SampleRate:     a.cfg.Observability.SampleRate,
	}

	var err error
	a.telemetry, err = observability.InitTelemetry(ctx, telemetryConfig, a.logger)

	return err
}

// initDatabase opens the configured store and migrates it when auto-migrate is on.
//
// Returns:
//   - error: Connection or migration error
func (a *App) initDatabase() error {
	db, err := database.Open(database.Config{
		Driver:                a.cfg.Database.Driver,
		DSN:                   a.cfg.Database.DSN,
		MaxConnections:        a.cfg.Database.MaxConnections,
		MaxIdleConnections:    a.cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: a.cfg.Database.ConnectionMaxLifetime,
	})

	if err != nil {
		return err
	}

	if a.cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db, a.cfg.Database.Driver, a.logger); err != nil {
			_ = db.Close()
			return err
		}
	}

	a.logger.Info("database ready", zap.String("driver", a.cfg.Database.Driver))

	a.db = db
	a.repo = NewDatabaseAdapter(database.NewRequestStore(db, a.cfg.Database.Driver, a.logger), a.telemetry)

	return nil
}

// setupRouter creates and configures the HTTP router with all middleware.
//
// Parameters:
//   - requests: Handler for the request lifecycle endpoints
//   - extras: Handler for the extras endpoint
//
// Returns:
//   - http.Handler: Router wrapped in CORS
func (a *App) setupRouter(requests *rest.RequestHandler, extras *rest.ExtrasHandler) http.Handler {
	router := mux.NewRouter()

	obsMiddleware := middleware.NewObservabilityMiddleware(a.telemetry, a.logger)
	router.Use(obsMiddleware.TracingMiddleware)
	router.Use(obsMiddleware.MetricsMiddleware)
	router.Use(obsMiddleware.LoggingMiddleware)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		a.writeJSON(w, http.StatusOK, rest.MessageResponse{Message: "Weather backend running"})
	}).Methods(http.MethodGet)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	router.HandleFunc("/health/ready", a.handleReady).Methods(http.MethodGet)

	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		a.writeJSON(w, http.StatusOK, version.Get())
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	rest.RegisterRoutes(router, requests, extras)

	return middleware.CORS(a.cfg.CORS.AllowedOrigins)(router)
}

// readinessResponse is the /health/ready payload.
type readinessResponse struct {
	Status          string                 `json:"status"`
	Database        string                 `json:"database"`
	CircuitBreakers []circuitbreaker.Stats `json:"circuit_breakers"`
}

// handleReady answers 200 while the store responds to a ping and 503 otherwise.
// Breaker states are reported but do not affect readiness.
func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := readinessResponse{
		Status:          "ready",
		Database:        "ok",
		CircuitBreakers: a.breakers.Stats(),
	}
	status := http.StatusOK

	if err := a.repo.Ping(ctx); err != nil {
		a.logger.Warn("readiness check failed", zap.Error(err))

		resp.Status = "unavailable"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	a.writeJSON(w, status, resp)
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode response", zap.Error(err))
	}
}
