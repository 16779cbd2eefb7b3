package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SQLiteOptions holds SQLite connection and pool options
type SQLiteOptions struct {
	Path            string
	WALMode         bool
	ForeignKeys     bool
	Synchronous     string
	CacheSize       int
	BusyTimeoutMS   int
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultSQLiteOptions returns sensible defaults for a file-backed store.
// SQLite serializes writes, so the pool stays at a single connection.
func DefaultSQLiteOptions(path string) *SQLiteOptions {
	return &SQLiteOptions{
		Path:            path,
		WALMode:         true,
		ForeignKeys:     true,
		Synchronous:     "NORMAL",
		CacheSize:       -2000,
		BusyTimeoutMS:   30000,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 15 * time.Minute,
	}
}

// Validate checks the options for coherence
func (o *SQLiteOptions) Validate() error {
	if o.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if o.MaxOpenConns < 1 {
		return fmt.Errorf("max open connections must be at least 1")
	}
	if o.MaxIdleConns < 1 {
		return fmt.Errorf("max idle connections must be at least 1")
	}
	return nil
}

// ConnectionFactory creates database connections
type ConnectionFactory struct {
	logger *logrus.Logger
}

// NewConnectionFactory creates a new connection factory
func NewConnectionFactory(logger *logrus.Logger) *ConnectionFactory {
	if logger == nil {
		logger = logrus.New()
	}
	return &ConnectionFactory{logger: logger}
}

// OpenSQLite opens a SQLite database with the given options applied
func (f *ConnectionFactory) OpenSQLite(ctx context.Context, opts *SQLiteOptions) (*sql.DB, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	absPath, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := buildSQLiteDSN(absPath, opts)

	f.logger.WithFields(logrus.Fields{
		"driver": "sqlite",
		"path":   absPath,
	}).Info("Creating SQLite connection")

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := f.applySQLiteSettings(ctx, db, opts); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply SQLite settings: %w", err)
	}

	f.logger.WithField("path", absPath).Info("SQLite connection established")
	return db, nil
}

// buildSQLiteDSN encodes connection options into the DSN
func buildSQLiteDSN(path string, opts *SQLiteOptions) string {
	var options []string

	if opts.WALMode {
		options = append(options, "_journal_mode=WAL")
	}
	if opts.Synchronous != "" {
		options = append(options, fmt.Sprintf("_synchronous=%s", opts.Synchronous))
	}
	if opts.ForeignKeys {
		options = append(options, "_foreign_keys=on")
	}
	if opts.BusyTimeoutMS > 0 {
		options = append(options, fmt.Sprintf("_busy_timeout=%d", opts.BusyTimeoutMS))
	}

	if len(options) > 0 {
		return fmt.Sprintf("%s?%s", path, strings.Join(options, "&"))
	}
	return path
}

// applySQLiteSettings applies per-connection pragmas
func (f *ConnectionFactory) applySQLiteSettings(ctx context.Context, db *sql.DB, opts *SQLiteOptions) error {
	settings := []string{"PRAGMA temp_store = MEMORY", "PRAGMA optimize"}
	if opts.CacheSize != 0 {
		settings = append(settings, fmt.Sprintf("PRAGMA cache_size = %d", opts.CacheSize))
	}

	for _, setting := range settings {
		if _, err := db.ExecContext(ctx, setting); err != nil {
			f.logger.WithError(err).WithField("setting", setting).Warn("Failed to apply SQLite setting")
		} else {
			f.logger.WithField("setting", setting).Debug("Applied SQLite setting")
		}
	}

	return nil
}

// HealthStatus describes the outcome of a database health check
type HealthStatus struct {
	Healthy      bool              `json:"healthy"`
	Message      string            `json:"message"`
	CheckedAt    time.Time         `json:"checked_at"`
	ResponseTime time.Duration     `json:"response_time"`
	Details      map[string]string `json:"details,omitempty"`
}

// HealthChecker provides health checking for database connections
type HealthChecker struct {
	db     *sql.DB
	logger *logrus.Logger
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB, logger *logrus.Logger) *HealthChecker {
	if logger == nil {
		logger = logrus.New()
	}
	return &HealthChecker{db: db, logger: logger}
}

// CheckHealth performs a basic connectivity check
func (h *HealthChecker) CheckHealth(ctx context.Context) error {
	start := time.Now()
	defer func() {
		h.logger.WithField("duration", time.Since(start)).Debug("Health check completed")
	}()

	if err := h.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("test query returned unexpected result: %d", result)
	}

	return nil
}

// GetHealthStatus returns detailed health status including pool statistics
func (h *HealthChecker) GetHealthStatus(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		CheckedAt: start,
		Details:   make(map[string]string),
	}

	err := h.CheckHealth(ctx)
	status.ResponseTime = time.Since(start)

	if err != nil {
		status.Healthy = false
		status.Message = err.Error()
		return status
	}

	status.Healthy = true
	status.Message = "Database is healthy"

	stats := h.db.Stats()
	status.Details["open_connections"] = fmt.Sprintf("%d", stats.OpenConnections)
	status.Details["in_use"] = fmt.Sprintf("%d", stats.InUse)
	status.Details["idle"] = fmt.Sprintf("%d", stats.Idle)
	status.Details["wait_count"] = fmt.Sprintf("%d", stats.WaitCount)
	status.Details["wait_duration"] = stats.WaitDuration.String()

	return status
}
