package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/upb/dak-console/config"
	"github.com/upb/dak-console/internal/capability"
	"github.com/upb/dak-console/internal/session"
	"github.com/upb/dak-console/middleware"
	"github.com/upb/dak-console/repositories"
	"github.com/upb/dak-console/repositories/postgres"
	"github.com/upb/dak-console/services/dakapi"
	"github.com/upb/dak-console/services/notifications"
	"github.com/upb/dak-console/services/sessioncache"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Postgres, only when SESSION_STORAGE=postgres
	DB            *postgres.DB
	RepoFactory   *postgres.RepositoryFactory
	ClientStorage repositories.ClientStorageRepository

	// Session state
	Storage session.StorageFactory
	Clients *sessioncache.Cache

	// Capability tables
	Resolver *capability.Resolver

	// Dak backend
	Backend  *dakapi.Client
	Notifier *notifications.Poller

	SessionMiddleware *middleware.SessionMiddleware

	stopWorkers context.CancelFunc
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initResolver(cfg.Console); err != nil {
		return nil, fmt.Errorf("failed to load capability tables: %w", err)
	}

	if err := deps.initStorage(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize session storage: %w", err)
	}

	deps.initBackend(cfg)
	deps.initSessions(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("storage", cfg.Session.Storage),
		zap.String("backend", cfg.Backend.BaseURL))
	return deps, nil
}

// initResolver loads role and panel tables, falling back to the embedded ones.
func (d *Dependencies) initResolver(cfg config.ConsoleConfig) error {
	var roles *capability.Hierarchy
	if cfg.RolesFile != "" {
		data, err := os.ReadFile(cfg.RolesFile)
		if err != nil {
			return fmt.Errorf("failed to read roles file: %w", err)
		}
		if roles, err = capability.ParseHierarchy(data); err != nil {
			return err
		}
		d.Logger.Info("loaded role hierarchy", zap.String("file", cfg.RolesFile))
	}

	var panels []capability.Panel
	if cfg.PanelsFile != "" {
		data, err := os.ReadFile(cfg.PanelsFile)
		if err != nil {
			return fmt.Errorf("failed to read panels file: %w", err)
		}
		if panels, err = capability.ParsePanels(data); err != nil {
			return err
		}
		d.Logger.Info("loaded panel table", zap.String("file", cfg.PanelsFile))
	}

	d.Resolver = capability.NewResolver(roles, panels)
	return nil
}

// initStorage selects durable session storage.
func (d *Dependencies) initStorage(ctx context.Context, cfg *config.Config) error {
	if !cfg.UsesPostgres() {
		d.Storage = session.NewMemoryStore()
		d.Logger.Warn("session storage is in memory, sessions will not survive a restart")
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}
	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.ClientStorage = factory.NewRepositories().ClientStorage
	d.Storage = postgres.NewSessionStorageFactory(d.ClientStorage)
	return nil
}

func (d *Dependencies) initBackend(cfg *config.Config) {
	d.Backend = dakapi.NewClient(cfg.Backend, d.Logger)
	d.Notifier = notifications.NewPoller(d.Backend, cfg.Console.NotifyPollInterval, d.Logger)
}

func (d *Dependencies) initSessions(cfg *config.Config) {
	var opts []sessioncache.Option
	if mem, ok := d.Storage.(*session.MemoryStore); ok {
		opts = append(opts, sessioncache.WithEvictHook(mem.Forget))
	}
	if d.ClientStorage != nil {
		opts = append(opts, sessioncache.WithIdleSweeper(d.ClientStorage, cfg.Session.Retention))
	}
	d.Clients = sessioncache.New(d.Storage, cfg.Session.MaxClients, cfg.Session.IdleTTL, d.Logger, opts...)

	d.SessionMiddleware = middleware.NewSessionMiddleware(d.Clients, d.Resolver, middleware.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
		MaxAge: cfg.Session.Retention,
	}, d.Logger)
}

// StartWorkers launches background maintenance. Close stops it.
func (d *Dependencies) StartWorkers(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.stopWorkers = cancel
	go d.Clients.StartCleanupWorker(ctx, d.Config.Session.CleanupInterval)
}

// SQLDB returns the raw pool for health checks, nil in memory mode.
func (d *Dependencies) SQLDB() *sql.DB {
	if d.DB == nil {
		return nil
	}
	return d.DB.DB
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	if d.stopWorkers != nil {
		d.stopWorkers()
	}

	var errs []error
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}
	return nil
}
