package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"retail-ops-api/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		dbPath         = flag.String("db", "./data/retail.db", "Database file path")
		migrationsPath = flag.String("migrations", "./migrations", "Migrations directory path")
		action         = flag.String("action", "up", "Migration action: up, down, status, validate")
		verbose        = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := run(*dbPath, *migrationsPath, *action, logger); err != nil {
		logger.WithError(err).Fatal("Migration tool failed")
	}
	logger.Info("Migration tool completed successfully")
}

func run(dbPath, migrationsPath, action string, logger *logrus.Logger) error {
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}
	absMigrationsPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to resolve migrations path: %w", err)
	}
	if _, err := os.Stat(absMigrationsPath); err != nil {
		return fmt.Errorf("migrations directory not accessible: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"db_path":         absDBPath,
		"migrations_path": absMigrationsPath,
		"action":          action,
	}).Info("Starting migration tool")

	db, err := openDatabase(absDBPath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	migrations := database.NewMigrationManager(db, absMigrationsPath, logger)

	switch action {
	case "up":
		return migrations.RunMigrations()
	case "down":
		return migrations.RollbackMigration()
	case "status":
		return printStatus(migrations)
	case "validate":
		if err := migrations.ValidateSchema(); err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		fmt.Println("Schema validation passed")
		return nil
	default:
		return fmt.Errorf("unknown action %q, use: up, down, status, validate", action)
	}
}

func openDatabase(path string, logger *logrus.Logger) (*sql.DB, error) {
	factory := database.NewConnectionFactory(logger)
	db, err := factory.OpenSQLite(context.Background(), database.DefaultSQLiteOptions(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func printStatus(migrations *database.MigrationManager) error {
	status, err := migrations.GetMigrationStatus()
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	fmt.Printf("Migration status:\n")
	fmt.Printf("  Version: %d\n", status.Version)
	fmt.Printf("  Applied: %t\n", status.Applied)
	fmt.Printf("  Dirty:   %t\n", status.Dirty)
	fmt.Printf("  Checked: %s\n", status.Timestamp.Format("2006-01-02 15:04:05"))
	return nil
}
