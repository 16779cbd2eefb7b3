package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Manager owns the database connection lifecycle: open, migrate, monitor,
// back up, close
type Manager struct {
	mu              sync.RWMutex
	opts            *SQLiteOptions
	migrationsPath  string
	logger          *logrus.Logger
	factory         *ConnectionFactory
	db              *sql.DB
	health          *HealthChecker
	migrations      *MigrationManager
	isConnected     bool
	lastHealthCheck time.Time
	healthStatus    *HealthStatus
}

// NewManager creates a new database manager
func NewManager(opts *SQLiteOptions, migrationsPath string, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}

	return &Manager{
		opts:           opts,
		migrationsPath: migrationsPath,
		logger:         logger,
		factory:        NewConnectionFactory(logger),
	}
}

// Connect opens the connection, applies pending migrations and verifies
// health
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isConnected {
		return fmt.Errorf("database already connected")
	}

	m.logger.Info("Connecting to database...")

	db, err := m.factory.OpenSQLite(ctx, m.opts)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	m.migrations = NewMigrationManager(db, m.migrationsPath, m.logger)
	if err := m.migrations.RunMigrations(); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	m.health = NewHealthChecker(db, m.logger)
	if err := m.health.CheckHealth(ctx); err != nil {
		db.Close()
		return fmt.Errorf("initial health check failed: %w", err)
	}

	m.db = db
	m.isConnected = true
	m.lastHealthCheck = time.Now()
	m.logger.Info("Database connection established successfully")

	return nil
}

// Disconnect closes the database connection
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isConnected {
		return nil
	}

	m.logger.Info("Disconnecting from database...")

	err := m.db.Close()
	m.db = nil
	m.isConnected = false
	m.migrations = nil
	m.health = nil
	m.healthStatus = nil

	if err != nil {
		m.logger.WithError(err).Error("Error during database disconnection")
		return fmt.Errorf("failed to disconnect from database: %w", err)
	}

	m.logger.Info("Database disconnected successfully")
	return nil
}

// GetDB returns the database connection, or nil when disconnected
func (m *Manager) GetDB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.isConnected {
		return nil
	}
	return m.db
}

// IsConnected returns true if the database is connected
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.isConnected
}

// CheckHealth performs a health check on the database connection
func (m *Manager) CheckHealth(ctx context.Context) error {
	m.mu.RLock()
	health := m.health
	m.mu.RUnlock()

	if health == nil {
		return fmt.Errorf("database not connected")
	}

	err := health.CheckHealth(ctx)

	m.mu.Lock()
	m.lastHealthCheck = time.Now()
	if err != nil {
		m.healthStatus = &HealthStatus{
			Healthy:   false,
			Message:   err.Error(),
			CheckedAt: m.lastHealthCheck,
		}
	} else {
		m.healthStatus = health.GetHealthStatus(ctx)
	}
	m.mu.Unlock()

	return err
}

// GetHealthStatus returns the most recent health status, refreshing it
// when stale
func (m *Manager) GetHealthStatus(ctx context.Context) *HealthStatus {
	m.mu.RLock()
	status := m.healthStatus
	stale := time.Since(m.lastHealthCheck) >= time.Minute
	connected := m.isConnected
	m.mu.RUnlock()

	if !connected {
		return &HealthStatus{
			Healthy:   false,
			Message:   "Database not connected",
			CheckedAt: time.Now(),
		}
	}

	if status == nil || stale {
		m.CheckHealth(ctx)
		m.mu.RLock()
		status = m.healthStatus
		m.mu.RUnlock()
	}

	return status
}

// GetStats returns connection pool statistics
func (m *Manager) GetStats() sql.DBStats {
	db := m.GetDB()
	if db == nil {
		return sql.DBStats{}
	}
	return db.Stats()
}

// LogStats logs current connection pool statistics
func (m *Manager) LogStats() {
	stats := m.GetStats()
	m.logger.WithFields(logrus.Fields{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration,
	}).Info("Connection pool statistics")
}

// GetMigrationStatus returns the current migration status
func (m *Manager) GetMigrationStatus() (*MigrationInfo, error) {
	m.mu.RLock()
	migrations := m.migrations
	m.mu.RUnlock()

	if migrations == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return migrations.GetMigrationStatus()
}

// CreateBackup creates a database backup using VACUUM INTO
func (m *Manager) CreateBackup(ctx context.Context, backupPath string) error {
	db := m.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}

	m.logger.WithField("backup_path", backupPath).Info("Creating SQLite backup")

	query := fmt.Sprintf("VACUUM INTO '%s'", backupPath)
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create SQLite backup: %w", err)
	}

	m.logger.WithField("backup_path", backupPath).Info("SQLite backup created successfully")
	return nil
}

// StartHealthCheckMonitor starts a background health check monitor
func (m *Manager) StartHealthCheckMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("Health check monitor stopped")
				return
			case <-ticker.C:
				if err := m.CheckHealth(ctx); err != nil {
					m.logger.WithError(err).Warn("Health check failed")
				} else {
					m.logger.Debug("Health check passed")
				}
			}
		}
	}()

	m.logger.WithField("interval", interval).Info("Health check monitor started")
}

// WithTransaction executes a function within a database transaction
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db := m.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			m.logger.WithError(rollbackErr).Error("Failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the database manager
func (m *Manager) Close() error {
	return m.Disconnect()
}
