package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/users/internal/users/events"
	httpapi "github.com/aussiebroadwan/users/internal/users/http"
	"github.com/aussiebroadwan/users/internal/users/metrics"
	"github.com/aussiebroadwan/users/internal/users/service"
	"github.com/aussiebroadwan/users/internal/users/store/drivers/sqlite"
	"github.com/aussiebroadwan/users/pkg/slogx"
	"github.com/aussiebroadwan/users/pkg/usersdk"
)

// BuildVersion is overridden at build time with -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application wires the users service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        *sqlite.Store
	metrics   *metrics.Metrics
	keys      *Keys
	publisher events.Publisher

	userService      *service.UserService
	adminService     *service.AdminService
	tokenService     *service.TokenService
	bootstrapService *service.BootstrapService
	relay            *service.OutboxRelay

	server *http.Server
	router *httpapi.Router
}

// New builds every dependency. Resources opened before a failure are
// released before returning.
func New(cfg Config) (_ *Application, err error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "users",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}
	defer func() {
		if err != nil {
			app.closeResources()
		}
	}()

	ctx := context.Background()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if app.keys, err = InitKeys(cfg, app.logger); err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}

	if app.publisher, err = events.New(ctx, cfg.eventsConfig(), app.logger); err != nil {
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	app.logger.Info("event publisher ready", "backend", cfg.EventsBackend)

	if err := app.initServices(); err != nil {
		return nil, err
	}

	created, err := app.bootstrapService.Run(slogx.WithContext(ctx, app.logger))
	if err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		app.logger.Info("bootstrap administrator created", "email", cfg.BootstrapAdminEmail)
	}

	app.initHTTP()
	return app, nil
}

// Run starts the relay and HTTP server and blocks until a signal arrives
// or the server fails.
func (app *Application) Run() error {
	app.relay.Start()

	app.logger.Info("users service starting", "addr", app.cfg.HTTPAddr, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.relay.Stop()
		app.closeResources()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains HTTP requests, stops the relay and closes resources.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down users service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.relay.Stop()

	if err := app.closeResources(); err != nil {
		return err
	}

	app.logger.Info("users service stopped")
	return nil
}

func (app *Application) closeResources() error {
	var errs []error
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("error closing event publisher", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	hasher, err := InitHasher(app.cfg, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	policy, err := InitPolicy(app.cfg)
	if err != nil {
		return err
	}

	uniq := &service.UniquenessService{Store: app.db}

	app.userService = &service.UserService{
		Store:      app.db,
		Hasher:     hasher,
		Policy:     policy,
		Uniqueness: uniq,
		Metrics:    app.metrics,
	}
	app.adminService = &service.AdminService{
		Store:      app.db,
		Hasher:     hasher,
		Policy:     policy,
		Uniqueness: uniq,
		Metrics:    app.metrics,
	}
	app.tokenService = &service.TokenService{
		Signer:   app.keys.Signer,
		Verifier: app.keys.Verifier,
		TTL:      app.cfg.JWTTTL,
		Issuer:   app.cfg.JWTIssuer,
		Audience: app.cfg.JWTAudience,
	}
	app.bootstrapService = &service.BootstrapService{
		Store:  app.db,
		Hasher: hasher,
		Policy: policy,
		Admin: service.BootstrapAdmin{
			Email:    app.cfg.BootstrapAdminEmail,
			Name:     app.cfg.BootstrapAdminName,
			Password: app.cfg.BootstrapAdminPassword,
		},
	}

	app.relay = service.NewOutboxRelay(app.db, app.publisher, app.logger, app.metrics)
	app.relay.Interval = app.cfg.OutboxInterval
	app.relay.BatchSize = app.cfg.OutboxBatch
	app.relay.Retention = app.cfg.OutboxRetention
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(httpapi.RouterOptions{
		Verifier: app.keys.Verifier,
		JWKS:     app.keys.JWKS,
		Info: usersdk.InfoResponse{
			Service:   "users",
			Version:   BuildVersion,
			Algorithm: app.keys.Signer.Alg(),
			Issuer:    app.cfg.JWTIssuer,
		},
		Store:   app.db,
		Metrics: app.metrics,
		Logger:  app.logger,
	})

	router.UserService = app.userService
	router.AdminService = app.adminService
	router.TokenService = app.tokenService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
