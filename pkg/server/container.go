package server

import (
	"context"
	"fmt"
	"time"

	"retail-ops-api/internal/adapters/storage"
	"retail-ops-api/internal/config"
	"retail-ops-api/internal/database"
	"retail-ops-api/internal/handlers"
	"retail-ops-api/internal/middleware"
	"retail-ops-api/internal/repositories/sqlite"
	"retail-ops-api/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Container wires configuration, database, repositories, services and
// the auth layer into a runnable application.
type Container struct {
	Config      *config.Config
	Logger      *logrus.Logger
	DB          *database.Manager
	Repos       *sqlite.Manager
	FileStorage storage.FileStorage
	Services    *services.ServiceContainer
	AuthService *middleware.AuthService

	stopMonitor context.CancelFunc
}

// NewContainer builds the full dependency graph from configuration.
// The database is connected and migrated before this returns.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := newLogger(cfg.LogLevel)

	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	if err := cfg.Database.EnsureDirectories(); err != nil {
		return nil, err
	}

	dbManager := database.NewManager(cfg.Database.ToSQLiteOptions(), cfg.Database.MigrationsPath, logger)
	if err := dbManager.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	dbManager.StartHealthCheckMonitor(monitorCtx, 5*time.Minute)

	repoManager := sqlite.NewManager(dbManager.GetDB(), logger)

	fileStorage, err := newFileStorage(cfg)
	if err != nil {
		stopMonitor()
		dbManager.Close()
		return nil, err
	}

	serviceContainer, err := services.NewServiceContainer(repoManager, fileStorage)
	if err != nil {
		stopMonitor()
		dbManager.Close()
		return nil, fmt.Errorf("failed to create services: %w", err)
	}

	authService := middleware.NewAuthService(&middleware.AuthConfig{
		JWTSecret:     cfg.JWT.Secret,
		TokenDuration: cfg.JWT.TokenDuration,
		Issuer:        cfg.JWT.Issuer,
	})

	return &Container{
		Config:      cfg,
		Logger:      logger,
		DB:          dbManager,
		Repos:       repoManager,
		FileStorage: fileStorage,
		Services:    serviceContainer,
		AuthService: authService,
		stopMonitor: stopMonitor,
	}, nil
}

// Router builds the HTTP router over the container's services.
func (c *Container) Router() *gin.Engine {
	return handlers.SetupRoutes(&handlers.RouterConfig{
		Services:           c.Services,
		AuthService:        c.AuthService,
		AllowedOrigins:     c.Config.CORS.AllowedOrigins,
		RateLimitPerSecond: c.Config.RateLimit.RequestsPerSecond,
		RateLimitBurst:     c.Config.RateLimit.Burst,
		MaxRequestBytes:    10 << 20,
	})
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	if c.stopMonitor != nil {
		c.stopMonitor()
	}

	var firstErr error
	if c.FileStorage != nil {
		if err := c.FileStorage.Close(); err != nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

func newFileStorage(cfg *config.Config) (storage.FileStorage, error) {
	switch cfg.Storage.Type {
	case "", "none":
		// Exports are returned inline in the response body only.
		return nil, nil
	case "local":
		if cfg.Storage.BaseURL != "" {
			return storage.NewLocalFileStorage(cfg.Storage.LocalPath, cfg.Storage.BaseURL)
		}
		return storage.NewLocalFileStorage(cfg.Storage.LocalPath)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
