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

	httpapi "github.com/harborline/storefront/internal/auth/http"
	"github.com/harborline/storefront/internal/auth/mail"
	"github.com/harborline/storefront/internal/auth/service"
	"github.com/harborline/storefront/internal/auth/store"
	"github.com/harborline/storefront/internal/auth/store/drivers/sqlite"
	"github.com/harborline/storefront/pkg/cryptox"
	"github.com/harborline/storefront/pkg/jwtx"
	"github.com/harborline/storefront/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer
	mailer mail.Mailer

	sessionService      *service.SessionService
	registrationService *service.RegistrationService
	verificationService *service.VerificationService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	signer, err := jwtx.NewSigner([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.mailer = mail.NewLogMailer(app.logger)

	if err := app.initServices(); err != nil {
		return nil, err
	}
	app.initHTTP()

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

	// Give outstanding requests a deadline for completion
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

// initDatabase initializes the database and applies migrations.
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

// initServices initializes all business logic services.
func (app *Application) initServices() error {
	sessionService, err := service.NewSessionService(app.db, app.signer, app.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize session service: %w", err)
	}
	sessionService.AccessTTL = app.cfg.AccessTokenTTL
	sessionService.RefreshTTL = app.cfg.RefreshTokenTTL
	sessionService.MaxFailedLogins = app.cfg.MaxFailedLogins
	sessionService.LockDuration = app.cfg.LockoutDuration
	sessionService.RequireVerifiedEmail = app.cfg.RequireVerifiedEmail
	app.sessionService = sessionService

	app.registrationService = &service.RegistrationService{
		Store:          app.db,
		Mail:           app.mailer,
		BcryptCost:     app.cfg.BcryptCost,
		VerifyTokenTTL: app.cfg.VerifyTokenTTL,
	}

	app.verificationService = &service.VerificationService{
		Store:          app.db,
		Mail:           app.mailer,
		VerifyTokenTTL: app.cfg.VerifyTokenTTL,
		ResendCooldown: app.cfg.ResendCooldown,
	}

	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	cookies := httpapi.CookieConfig{
		Secure: app.cfg.Env == "prod",
		TTL:    app.cfg.RefreshTokenTTL,
	}

	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		app.logger,
		cookies,
	)

	router.SessionService = app.sessionService
	router.RegistrationService = app.registrationService
	router.VerificationService = app.verificationService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
