package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"stockstats/internal/config"
	"stockstats/internal/dataprocessing"
	apierrors "stockstats/internal/errors"
	"stockstats/internal/files"
	"stockstats/internal/infrastructure"
	customMiddleware "stockstats/internal/middleware"
	"stockstats/internal/services"
	handlers "stockstats/internal/transport/http"
	"stockstats/internal/transport/httpclient"
)

// Options carries the per-invocation settings that do not live in Config
type Options struct {
	// APIKey is sent to the provider with every request
	APIKey string
	// Addr overrides Config.Server.Addr when set
	Addr string
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Files         *files.Manager
	Client        *httpclient.Client
	StockService  *services.StockService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler
	Router        *chi.Mux
	Server        *http.Server

	serveErr  chan error
	closeOnce sync.Once
	closeErr  error
}

// NewApplication wires the services for both the CLI and the HTTP server
func NewApplication(cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Server.IncludeStack),
		serveErr:      make(chan error, 1),
	}

	app.initializeServices(opts)
	app.setupRouter()
	app.createServer(opts)

	return app, nil
}

// initializeServices builds the provider client and the services on top of it
func (a *Application) initializeServices(opts Options) {
	a.Files = files.NewManager(a.Config.TempDir(), a.Logger)

	clientOpts := []httpclient.Option{
		httpclient.WithUserAgent(a.Config.Provider.UserAgent),
		httpclient.WithMetrics(a.OTelProviders.Metrics),
	}
	if a.Config.Provider.RateLimit.Enabled {
		clientOpts = append(clientOpts, httpclient.WithRateLimit(
			a.Config.Provider.RateLimit.RPS,
			a.Config.Provider.RateLimit.Burst,
		))
	}
	if a.Config.Telemetry.TracingEnabled {
		clientOpts = append(clientOpts, httpclient.WithTracing())
	}
	a.Client = httpclient.New(a.Config.Provider.Timeout, a.Files, a.Logger, clientOpts...)

	a.StockService = services.NewStockService(a.Client, a.Files, services.StockServiceConfig{
		BaseURL: a.Config.Provider.BaseURL,
		Dataset: a.Config.Provider.Dataset,
		APIKey:  opts.APIKey,
		Analyzer: dataprocessing.AnalyzerConfig{
			LegacyFieldInversion: a.Config.Analysis.LegacyFieldInversion,
			BusyThreshold:        a.Config.Analysis.BusyThreshold,
		},
	}, a.OTelProviders.Metrics, a.Logger)

	a.HealthService = services.NewHealthService(config.AppVersion, services.ProviderInfo{
		BaseURL:    a.Config.Provider.BaseURL,
		Dataset:    a.Config.Provider.Dataset,
		KeyPresent: opts.APIKey != "",
	}, a.Logger)
}

// setupRouter configures the HTTP router with all routes.
// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → RateLimit → Timeout
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(a.ErrorHandler.Recoverer)
	r.Use(customMiddleware.SecurityHeaders)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Prometheus scrapes are not rate limited
	r.Method(http.MethodGet, config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders, a.ErrorHandler))

	r.Route(config.APIBasePath, func(r chi.Router) {
		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get(config.HealthEndpoint, healthHandler.HealthCheck)
		r.Get(config.HealthEndpoint+"/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		stockHandler := handlers.NewStockHandler(a.StockService, a.Logger, a.ErrorHandler)
		r.Mount("/", stockHandler.Routes())
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer(opts Options) {
	addr := a.Config.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	a.Server = &http.Server{
		Addr:         addr,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the HTTP server in the background. A listen failure cancels ctx.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("addr", a.Server.Addr),
		slog.String("provider", a.Config.Provider.BaseURL),
		slog.String("dataset", a.Config.Provider.Dataset))

	if status := a.HealthService.HealthCheck(ctx); status.Status != "ok" {
		a.Logger.WarnContext(ctx, "No provider API key configured, data requests will be refused upstream")
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
			cancel()
		}
	}()

	return nil
}

// Stop gracefully stops the server and releases application resources
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "Shutdown complete")
	return errors.Join(errs...)
}

// Close removes leftover downloads, writes the metrics textfile if one is
// configured and flushes telemetry. Calls after the first return the first result.
func (a *Application) Close(ctx context.Context) error {
	a.closeOnce.Do(func() { a.closeErr = a.close(ctx) })
	return a.closeErr
}

func (a *Application) close(ctx context.Context) error {
	var errs []error

	if err := a.Files.Cleanup(); err != nil {
		errs = append(errs, fmt.Errorf("temp file cleanup: %w", err))
	}

	if path := a.Config.Telemetry.MetricsTextfile; path != "" && a.Config.Telemetry.MetricsEnabled {
		if err := files.EnsureParentDir(path); err != nil {
			errs = append(errs, err)
		} else if err := a.OTelProviders.WriteMetricsTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("metrics textfile: %w", err))
		} else {
			a.Logger.DebugContext(ctx, "Metrics written", slog.String("path", path))
		}
	}

	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}

	return errors.Join(errs...)
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()

	var serveErr error
	select {
	case serveErr = <-a.serveErr:
	default:
		a.Logger.InfoContext(ctx, "Received shutdown signal")
	}

	return errors.Join(serveErr, a.Stop(ctx))
}
