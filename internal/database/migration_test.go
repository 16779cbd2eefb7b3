package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestRunMigrations_KeepsHandleUsable guards against the migrator closing the
// serving connection: the migration driver gets its own connection, so the
// handle passed to NewMigrationManager must stay usable afterwards.
func TestRunMigrations_KeepsHandleUsable(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "migration_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	migrationsDir := writeTestMigrations(t, tempDir)
	factory := NewConnectionFactory(testLogger())
	db, err := factory.OpenSQLite(context.Background(), DefaultSQLiteOptions(filepath.Join(tempDir, "test.db")))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer db.Close()

	mgr := NewMigrationManager(db, migrationsDir, testLogger())
	if err := mgr.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("handle unusable after migrations: %v", err)
	}
	if _, err := db.Exec("INSERT INTO products (id, sku, name) VALUES ('p1', 'SKU-1', 'Mixer')"); err != nil {
		t.Fatalf("insert on original handle failed: %v", err)
	}

	// A second run takes the no-change path and must leave the handle alone too.
	if err := mgr.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		t.Fatalf("query on original handle failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
}

func TestMigrationManager_Status(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "migration_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	migrationsDir := writeTestMigrations(t, tempDir)
	factory := NewConnectionFactory(testLogger())
	db, err := factory.OpenSQLite(context.Background(), DefaultSQLiteOptions(filepath.Join(tempDir, "test.db")))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer db.Close()

	mgr := NewMigrationManager(db, migrationsDir, testLogger())
	if err := mgr.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	info, err := mgr.GetMigrationStatus()
	if err != nil {
		t.Fatalf("GetMigrationStatus failed: %v", err)
	}
	if !info.Applied || info.Dirty {
		t.Errorf("unexpected status: applied=%v dirty=%v", info.Applied, info.Dirty)
	}
	if info.Version != 1 {
		t.Errorf("expected version 1, got %d", info.Version)
	}
}
