package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// schemaTables is every table the current schema version must contain.
var schemaTables = []string{
	"products",
	"users",
	"orders",
	"demand_notices",
	"quotations",
	"settings",
}

// MigrationManager applies, rolls back and inspects schema migrations
// through golang-migrate.
type MigrationManager struct {
	db             *sql.DB
	migrationsPath string
	logger         *logrus.Logger
}

func NewMigrationManager(db *sql.DB, migrationsPath string, logger *logrus.Logger) *MigrationManager {
	return &MigrationManager{
		db:             db,
		migrationsPath: migrationsPath,
		logger:         logger,
	}
}

// MigrationInfo is a snapshot of the schema version state.
type MigrationInfo struct {
	Version   uint
	Dirty     bool
	Applied   bool
	Timestamp time.Time
}

// RunMigrations applies all pending migrations. A file-level backup is
// attempted first; its failure is logged but does not block the upgrade.
func (m *MigrationManager) RunMigrations() error {
	m.logger.Info("Applying pending migrations")

	if err := m.backupDatabaseFile(); err != nil {
		m.logger.WithError(err).Warn("Pre-migration backup failed")
	}

	migrator, err := m.newMigrator()
	if err != nil {
		return err
	}
	defer migrator.Close()

	current, dirty, err := versionOf(migrator)
	if err != nil {
		return err
	}
	if dirty {
		// A previous run died mid-migration. Reset the dirty flag so the
		// pending migrations can be retried.
		m.logger.WithField("version", current).Warn("Schema is dirty, forcing version before retry")
		if err := migrator.Force(int(current)); err != nil {
			return fmt.Errorf("failed to force schema version %d: %w", current, err)
		}
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	applied, _, err := versionOf(migrator)
	if err != nil {
		return err
	}
	m.logger.WithFields(logrus.Fields{
		"from": current,
		"to":   applied,
	}).Info("Migrations applied")
	return nil
}

// RollbackMigration undoes the most recent migration.
func (m *MigrationManager) RollbackMigration() error {
	if err := m.backupDatabaseFile(); err != nil {
		m.logger.WithError(err).Warn("Pre-rollback backup failed")
	}

	migrator, err := m.newMigrator()
	if err != nil {
		return err
	}
	defer migrator.Close()

	current, _, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("no migrations to roll back")
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if err := migrator.Steps(-1); err != nil {
		return fmt.Errorf("rollback from version %d failed: %w", current, err)
	}

	m.logger.WithField("from", current).Info("Rollback completed")
	return nil
}

// GetMigrationStatus reports the current schema version.
func (m *MigrationManager) GetMigrationStatus() (*MigrationInfo, error) {
	migrator, err := m.newMigrator()
	if err != nil {
		return nil, err
	}
	defer migrator.Close()

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	return &MigrationInfo{
		Version:   version,
		Dirty:     dirty,
		Applied:   !errors.Is(err, migrate.ErrNilVersion),
		Timestamp: time.Now(),
	}, nil
}

// ValidateSchema checks that every expected table exists.
func (m *MigrationManager) ValidateSchema() error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(schemaTables)), ",")
	query := `SELECT name FROM sqlite_master WHERE type='table' AND name IN (` + placeholders + `)`

	args := make([]any, len(schemaTables))
	for i, t := range schemaTables {
		args[i] = t
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool, len(schemaTables))
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan table name: %w", err)
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}

	var missing []string
	for _, t := range schemaTables {
		if !found[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema is missing tables: %s", strings.Join(missing, ", "))
	}

	var fkEnabled int
	if err := m.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		return fmt.Errorf("failed to check foreign key status: %w", err)
	}
	if fkEnabled != 1 {
		m.logger.Warn("Foreign keys are not enabled on this connection")
	}

	m.logger.Info("Schema validation passed")
	return nil
}

// newMigrator builds a migrate.Migrate over a dedicated connection.
// migrator.Close() closes the database driver it was given, so the serving
// handle must never be passed to sqlite3.WithInstance.
func (m *MigrationManager) newMigrator() (*migrate.Migrate, error) {
	dbPath, err := m.databaseFilePath()
	if err != nil {
		return nil, err
	}
	if dbPath == "" || dbPath == ":memory:" {
		return nil, fmt.Errorf("cannot migrate an in-memory database")
	}

	source, err := (&file.File{}).Open("file://" + m.migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}

	migrationDB, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=30000&_foreign_keys=on")
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	driver, err := sqlite3.WithInstance(migrationDB, &sqlite3.Config{})
	if err != nil {
		source.Close()
		migrationDB.Close()
		return nil, fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("file", source, "sqlite3", driver)
	if err != nil {
		source.Close()
		migrationDB.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return migrator, nil
}

// databaseFilePath resolves the on-disk path of the main database.
func (m *MigrationManager) databaseFilePath() (string, error) {
	var seq int
	var name, dbPath string
	if err := m.db.QueryRow("PRAGMA database_list").Scan(&seq, &name, &dbPath); err != nil {
		return "", fmt.Errorf("failed to resolve database path: %w", err)
	}
	return dbPath, nil
}

// versionOf reads the migrator version, mapping the nil-version sentinel to
// version 0.
func versionOf(migrator *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := migrator.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

// backupDatabaseFile copies the database file aside with a timestamped
// suffix. In-memory databases are skipped.
func (m *MigrationManager) backupDatabaseFile() error {
	dbPath, err := m.databaseFilePath()
	if err != nil {
		return err
	}

	if dbPath == "" || dbPath == ":memory:" {
		return nil
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		// Nothing to back up on first boot.
		return nil
	}

	backupPath := fmt.Sprintf("%s.backup_%s", dbPath, time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		return fmt.Errorf("failed to read database file: %w", err)
	}
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	m.logger.WithField("backup_path", backupPath).Debug("Database file backed up")
	return nil
}
