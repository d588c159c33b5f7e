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

	httpapi "github.com/4PPL8/PakGroccrry/internal/auth/http"
	"github.com/4PPL8/PakGroccrry/internal/auth/notify"
	"github.com/4PPL8/PakGroccrry/internal/auth/service"
	"github.com/4PPL8/PakGroccrry/internal/auth/store"
	redisdriver "github.com/4PPL8/PakGroccrry/internal/auth/store/drivers/redis"
	"github.com/4PPL8/PakGroccrry/internal/auth/store/drivers/sqlite"
	"github.com/4PPL8/PakGroccrry/pkg/cryptox"
	"github.com/4PPL8/PakGroccrry/pkg/jwtx"
	"github.com/4PPL8/PakGroccrry/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Backing stores
	db      *sqlite.Store
	pending *redisdriver.Store
	store   *store.Composite

	// Services
	authService         *service.AuthService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
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

	if err := app.initStores(); err != nil {
		return nil, err
	}

	signer, err := app.tokenSigner()
	if err != nil {
		_ = app.store.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP(signer)

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

	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing stores", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initStores opens the session database and the verification cache and glues
// them into the composite store the service layer consumes.
func (app *Application) initStores() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully")

	pending, err := redisdriver.NewStore(redisdriver.Config{
		Addr:     app.cfg.RedisAddr,
		Username: app.cfg.RedisUsername,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize verification cache: %w", err)
	}
	app.pending = pending

	app.store = &store.Composite{
		SessionStore: db.Sessions(),
		PendingStore: pending.Pending(),
		DatabasePing: db.Ping,
		CachePing:    pending.Ping,
		Closers:      []func() error{db.Close, pending.Close},
	}
	return nil
}

// tokenSigner builds the HS256 signer for session tokens. Outside prod a
// missing secret falls back to a random per-process one, which invalidates
// tokens on restart but keeps local setup frictionless.
func (app *Application) tokenSigner() (*jwtx.Signer, error) {
	secret := app.cfg.TokenSecret
	if secret == "" {
		if app.cfg.Env == "prod" {
			return nil, fmt.Errorf("AUTH_TOKEN_SECRET is required in prod")
		}
		generated, err := cryptox.GenerateToken(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		secret = generated
		app.logger.Warn("AUTH_TOKEN_SECRET not set, using a random per-process secret")
	}

	return &jwtx.Signer{Secret: []byte(secret), Issuer: app.cfg.Issuer}, nil
}

// initServices initializes the business logic services.
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:       app.store,
		Sender:      app.sender(),
		PendingTTL:  app.cfg.PendingTTL,
		SessionTTL:  app.cfg.SessionTTL,
		MaxAttempts: app.cfg.MaxAttempts,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.store,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// sender picks the email delivery backend from config.
func (app *Application) sender() notify.Sender {
	if app.cfg.SenderMode == "smtp" {
		app.logger.Info("using SMTP verification email sender", "host", app.cfg.SMTPHost)
		return notify.NewSMTPSender(
			app.cfg.SMTPHost,
			app.cfg.SMTPPort,
			app.cfg.SMTPUsername,
			app.cfg.SMTPPassword,
			app.cfg.SMTPFrom,
		)
	}

	app.logger.Info("using simulated verification email sender",
		"latency", app.cfg.SimLatency, "failure_rate", app.cfg.SimFailRate)
	return &notify.SimulatedSender{
		Latency:     app.cfg.SimLatency,
		FailureRate: app.cfg.SimFailRate,
		Logger:      app.logger,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP(signer *jwtx.Signer) {
	router := httpapi.NewRouter(
		signer,
		BuildVersion,
		app.cfg.ResendCooldown,
		app.store,
		app.logger,
	)

	router.AuthService = app.authService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
