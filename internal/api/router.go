package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rostervet/internal/api/handlers"
	mw "rostervet/internal/api/middleware"
	"rostervet/internal/buildconfig"
	"rostervet/internal/config"
	"rostervet/internal/domain"
	"rostervet/internal/service"
	"rostervet/internal/store"
	"rostervet/internal/verify"
)

// App holds the router and the background runner for lifecycle management.
type App struct {
	Router *chi.Mux
	Runner *service.RunnerService

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	// Stores
	providerStore := store.NewProviderStore(db)

	// External verifiers via provider factory
	verifierProvider := config.VerifierProvider()
	timeout := config.VerifyTimeout()

	identityVerifier, err := verify.NewIdentityVerifier(verifierProvider, config.RegistryURL(), timeout, logger)
	if err != nil {
		return nil, err
	}
	addressVerifier, err := verify.NewAddressVerifier(verifierProvider, config.GeocoderURL(), timeout, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("verifiers initialized", zap.String("provider", verifierProvider))

	// Services
	orch := service.NewOrchestrator(providerStore, identityVerifier, addressVerifier, logger)
	orch.SetPacing(config.VerifyPacing())

	runner := service.NewRunnerService(orch, logger)
	runner.SetBatchSize(config.ValidationBatchSize())
	if interval := config.ValidationInterval(); interval > 0 {
		runner.SetInterval(interval)
	}

	// Handlers
	providerHandler := handlers.NewProviderHandler(providerStore)
	validationHandler := handlers.NewValidationHandler(orch, config.ValidationBatchSize(), logger)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Runner:    runner,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health and metrics
	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/providers", func(r chi.Router) {
			r.Get("/", providerHandler.List)
			r.Get("/summary", providerHandler.Summary)
			r.Get("/{id}", providerHandler.Get)
		})
		r.Route("/validation", func(r chi.Router) {
			r.Post("/run", validationHandler.Run)
			r.Get("/report", validationHandler.Report)
		})
	})

	return app, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
			"commit":  buildconfig.Commit(),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Compile-time interface checks.
var (
	_ domain.ProviderStore    = (*store.ProviderStore)(nil)
	_ domain.IdentityVerifier = (*verify.IdentityClient)(nil)
	_ domain.IdentityVerifier = (*verify.MockIdentityVerifier)(nil)
	_ domain.AddressVerifier  = (*verify.AddressClient)(nil)
	_ domain.AddressVerifier  = (*verify.MockAddressVerifier)(nil)
)
