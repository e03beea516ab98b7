// Package app wires configuration, infrastructure, services and transport
// into a running HTTP server.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	gorillaws "github.com/gorilla/websocket"

	"revboard/internal/config"
	"revboard/internal/dataset"
	apierrors "revboard/internal/errors"
	"revboard/internal/infrastructure"
	"revboard/internal/middleware"
	"revboard/internal/services"
	transporthttp "revboard/internal/transport/http"
	"revboard/internal/websocket"
)

// Version is stamped at build time via -ldflags.
var Version = "1.0.0"

// Application is the composed dashboard server.
type Application struct {
	cfg    *config.Config
	logger *slog.Logger
	otel   *infrastructure.OTelProviders

	loader    *dataset.Loader
	hub       *websocket.Hub
	dashboard *services.DashboardService
	health    *services.HealthService

	errorHandler *apierrors.ErrorHandler
	frontend     fs.FS

	router *chi.Mux
	server *http.Server
}

// NewApplication builds the full dependency graph. frontendFS holds the
// embedded dashboard page.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize otel: %w", err)
	}

	app := &Application{
		cfg:      cfg,
		logger:   logger,
		otel:     otelProviders,
		frontend: frontendFS,
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}
	app.setupRouter()
	app.createServer()

	return app, nil
}

func (app *Application) initializeServices() error {
	var metrics *infrastructure.Metrics
	if app.otel.Meter != nil {
		m, err := infrastructure.NewMetrics(app.otel.Meter)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		metrics = m
	}

	app.loader = dataset.NewLoader(app.logger, metrics)
	app.hub = websocket.NewHub(app.logger)

	app.dashboard = services.NewDashboardService(
		app.loader,
		app.cfg.GetDatasetFile(),
		app.hub,
		metrics,
		app.logger,
	)
	app.health = services.NewHealthService(app.dashboard, Version)

	app.errorHandler = apierrors.NewErrorHandler(app.logger, app.cfg.Logging.Development)
	return nil
}

func (app *Application) setupRouter() {
	r := chi.NewRouter()

	// Identity middlewares run first so every later layer sees the
	// request id and real client address.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.NotFound(app.errorHandler.NotFound)
	r.MethodNotAllowed(app.errorHandler.MethodNotAllowed)

	// The websocket upgrade sits outside the timeout and compression
	// stack; both break long-lived connections.
	r.Get("/ws", app.handleWebSocket)

	// Prometheus scrape endpoint, plain text.
	if app.otel.PrometheusHTTP != nil {
		r.Method(http.MethodGet, "/metrics", app.otel.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.StructuredLogger(app.logger))
		r.Use(middleware.Recoverer(app.logger))
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.Compress(5))

		if app.cfg.Security.EnableCORS {
			r.Use(middleware.CORS(middleware.CORSConfig{
				AllowedOrigins: app.cfg.Security.AllowedOrigins,
			}))
		}
		if app.cfg.Security.RateLimit.Enabled {
			limiter := middleware.NewRateLimiter(
				app.cfg.Security.RateLimit.RPS,
				app.cfg.Security.RateLimit.Burst,
				app.logger,
			)
			r.Use(limiter.Handler)
		}

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Use(middleware.Timeout(app.cfg.Server.WriteTimeout, app.logger))

			dashboardHandler := transporthttp.NewDashboardHandler(
				app.dashboard,
				app.errorHandler,
				app.logger,
				app.cfg.Server.MaxUploadBytes,
			)
			r.Mount("/", dashboardHandler.Routes())

			healthHandler := transporthttp.NewHealthHandler(app.health, app.errorHandler, app.logger)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)
		})

		if app.frontend != nil {
			r.Handle("/*", transporthttp.NewHTMLHandler(app.frontend, app.logger))
		}
	})

	app.router = r
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard page is served from this same origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (app *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	client := websocket.NewClient(app.hub, conn, app.logger)
	app.hub.Register(client)
	client.Start()
}

func (app *Application) createServer() {
	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:      app.router,
		ReadTimeout:  app.cfg.Server.ReadTimeout,
		WriteTimeout: app.cfg.Server.WriteTimeout,
		IdleTimeout:  app.cfg.Server.IdleTimeout,
	}
}

// Start runs the HTTP server until it fails or is shut down.
func (app *Application) Start() error {
	app.hub.Start()

	app.logger.Info("server starting",
		slog.Int("port", app.cfg.Server.Port),
		slog.String("version", Version),
		slog.String("dataset_file", app.cfg.GetDatasetFile()))

	if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server, hub and telemetry down.
func (app *Application) Stop(ctx context.Context) error {
	app.logger.Info("server stopping")

	shutdownCtx, cancel := context.WithTimeout(ctx, app.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		firstErr = fmt.Errorf("server shutdown: %w", err)
	}

	app.hub.Stop()

	if err := app.otel.Shutdown(shutdownCtx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("otel shutdown: %w", err)
	}
	if err := infrastructure.CloseLogFile(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close log file: %w", err)
	}
	return firstErr
}

// Run starts the application and blocks until SIGINT/SIGTERM.
func (app *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		app.logger.Info("signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()
	return app.Stop(ctx)
}

// Router exposes the composed handler for tests.
func (app *Application) Router() http.Handler {
	return app.router
}
