package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/taskgrove/taskadmin/internal/auth/http"
	"github.com/taskgrove/taskadmin/internal/auth/service"
	"github.com/taskgrove/taskadmin/internal/auth/store"
	"github.com/taskgrove/taskadmin/internal/auth/store/drivers/sqlite"
	"github.com/taskgrove/taskadmin/pkg/cryptox"
	"github.com/taskgrove/taskadmin/pkg/jwtx"
	"github.com/taskgrove/taskadmin/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db   store.Store
	keys *jwtx.FileKeyProvider

	authService         *service.AuthService
	tokenService        *service.TokenService
	guardService        *service.BruteForceService
	bootstrapService    *service.BootstrapService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "taskadmin",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Pepper file for password and address hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keys, err := initAuthKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keys = keys

	app.initServices()
	app.initHTTP()

	if err := app.bootstrapService.EnsureAdmin(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.guardService = service.NewBruteForceService(app.db.Accounts())
	app.guardService.AccountThreshold = app.cfg.AccountFailureThreshold
	app.guardService.AddressThreshold = app.cfg.AddressFailureThreshold
	app.guardService.LockoutDuration = app.cfg.LockoutDuration
	app.guardService.AddressWindow = app.cfg.AddressFailureWindow

	app.tokenService = &service.TokenService{
		Keys:       app.keys,
		Signer:     jwtx.NewSignerRS256(app.keys),
		Verifier:   jwtx.NewVerifierRS256(app.keys, app.cfg.Issuer),
		Store:      app.db,
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.authService = &service.AuthService{
		Store:  app.db,
		Guard:  app.guardService,
		Tokens: app.tokenService,
	}

	app.bootstrapService = &service.BootstrapService{
		Store:         app.db,
		AdminUsername: app.cfg.BootstrapAdminUsername,
		AdminPassword: app.cfg.BootstrapAdminPassword,
		AdminEmail:    app.cfg.BootstrapAdminEmail,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		jwtx.NewVerifierRS256(app.keys, app.cfg.Issuer),
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.TokenService = app.tokenService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
