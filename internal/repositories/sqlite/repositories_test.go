package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	tempDir, err := os.MkdirTemp("", "sqlite_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tempDir, "test.db")
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	schema := []string{
		`CREATE TABLE products (
			id TEXT PRIMARY KEY,
			sku TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			category TEXT,
			price REAL NOT NULL,
			quantity_in_stock INTEGER NOT NULL DEFAULT 0,
			low_stock_threshold INTEGER,
			low_stock_price REAL,
			expiry_date DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			permissions TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			items TEXT NOT NULL,
			subtotal REAL NOT NULL,
			discount_amount REAL NOT NULL DEFAULT 0,
			taxes TEXT NOT NULL DEFAULT '',
			total_amount REAL NOT NULL,
			customer_name TEXT,
			customer_phone TEXT,
			delivery_address TEXT,
			primary_salesperson_id TEXT NOT NULL,
			primary_salesperson_commission REAL NOT NULL DEFAULT 1,
			secondary_salesperson_id TEXT,
			secondary_salesperson_commission REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			delivery_status TEXT NOT NULL,
			payments TEXT NOT NULL DEFAULT '',
			return_transactions TEXT NOT NULL DEFAULT '',
			reminder_date DATETIME,
			reminder_notes TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE demand_notices (
			id TEXT PRIMARY KEY,
			product_id TEXT,
			product_name TEXT NOT NULL,
			product_sku TEXT,
			is_new_product INTEGER NOT NULL DEFAULT 0,
			customer_contact_number TEXT,
			quantity_requested INTEGER NOT NULL,
			quantity_fulfilled INTEGER NOT NULL DEFAULT 0,
			agreed_price REAL NOT NULL,
			expected_availability_date DATETIME,
			salesperson_id TEXT NOT NULL,
			salesperson_name TEXT,
			status TEXT NOT NULL,
			payments TEXT NOT NULL DEFAULT '',
			linked_order_id TEXT,
			notes TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE quotations (
			id TEXT PRIMARY KEY,
			salesperson_id TEXT NOT NULL,
			customer_name TEXT,
			customer_contact_number TEXT,
			preparation_days INTEGER NOT NULL DEFAULT 0,
			valid_until DATETIME,
			status TEXT NOT NULL,
			total_amount REAL NOT NULL DEFAULT 0,
			notes TEXT,
			items TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE settings (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
	}

	cleanup := func() {
		db.Close()
		os.RemoveAll(tempDir)
	}

	return db, cleanup
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func TestProductRepository_CreateAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db, testLogger())
	ctx := context.Background()

	product := models.NewProduct("SKU-001", "Ceramic Tile", "flooring", 24.50, 120)

	if err := repo.Create(ctx, product); err != nil {
		t.Errorf("Create() failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}

	if retrieved.SKU != product.SKU {
		t.Errorf("Retrieved product SKU = %s, want %s", retrieved.SKU, product.SKU)
	}

	if retrieved.QuantityInStock != 120 {
		t.Errorf("Retrieved stock = %d, want 120", retrieved.QuantityInStock)
	}

	bySKU, err := repo.GetBySKU(ctx, "SKU-001")
	if err != nil {
		t.Fatalf("GetBySKU() failed: %v", err)
	}
	if bySKU.ID != product.ID {
		t.Errorf("GetBySKU() ID = %s, want %s", bySKU.ID, product.ID)
	}
}

func TestProductRepository_DuplicateSKU(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db, testLogger())
	ctx := context.Background()

	first := models.NewProduct("SKU-DUP", "First", "misc", 10, 5)
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	second := models.NewProduct("SKU-DUP", "Second", "misc", 12, 3)
	err := repo.Create(ctx, second)
	if !repositories.IsDuplicate(err) {
		t.Errorf("Create() with duplicate SKU error = %v, want duplicate entry", err)
	}
}

func TestProductRepository_ListFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db, testLogger())
	ctx := context.Background()

	products := []*models.Product{
		models.NewProduct("SKU-T1", "Ceramic Tile", "flooring", 24.50, 120),
		models.NewProduct("SKU-T2", "Marble Tile", "flooring", 48.00, 15),
		models.NewProduct("SKU-C1", "Cement Bag", "building", 8.75, 200),
	}
	for _, p := range products {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	all, err := repo.List(ctx, repositories.ProductFilters{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() returned %d products, want 3", len(all))
	}

	category := "flooring"
	flooring, err := repo.List(ctx, repositories.ProductFilters{Category: &category})
	if err != nil {
		t.Fatalf("List(category) failed: %v", err)
	}
	if len(flooring) != 2 {
		t.Errorf("List(category) returned %d products, want 2", len(flooring))
	}

	query := "cement"
	matched, err := repo.List(ctx, repositories.ProductFilters{Query: &query})
	if err != nil {
		t.Fatalf("List(query) failed: %v", err)
	}
	if len(matched) != 1 || matched[0].SKU != "SKU-C1" {
		t.Errorf("List(query) = %v, want single SKU-C1 match", matched)
	}

	limited, err := repo.List(ctx, repositories.ProductFilters{Limit: 2})
	if err != nil {
		t.Fatalf("List(limit) failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(limit) returned %d products, want 2", len(limited))
	}
}

func TestProductRepository_AdjustStock(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db, testLogger())
	ctx := context.Background()

	product := models.NewProduct("SKU-ADJ", "Cement Bag", "building", 8.75, 10)
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := repo.AdjustStock(ctx, product.ID, -4); err != nil {
		t.Errorf("AdjustStock(-4) failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved.QuantityInStock != 6 {
		t.Errorf("Stock after adjustment = %d, want 6", retrieved.QuantityInStock)
	}

	// Decrement below zero must be rejected without touching the row.
	err = repo.AdjustStock(ctx, product.ID, -7)
	if !repositories.IsInsufficientStock(err) {
		t.Errorf("AdjustStock(-7) error = %v, want insufficient stock", err)
	}

	retrieved, err = repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved.QuantityInStock != 6 {
		t.Errorf("Stock after rejected adjustment = %d, want 6", retrieved.QuantityInStock)
	}

	// Adjusting a missing product reports not found.
	err = repo.AdjustStock(ctx, "no-such-id", -1)
	if !repositories.IsNotFound(err) {
		t.Errorf("AdjustStock() on missing product error = %v, want not found", err)
	}
}

func TestUserRepository_RoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(db, testLogger())
	ctx := context.Background()

	user := models.NewUser("mlopez", models.RoleManager)
	user.PasswordHash = "hash-value"
	user.Permissions = []string{"export_reports"}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	retrieved, err := repo.GetByUsername(ctx, "mlopez")
	if err != nil {
		t.Fatalf("GetByUsername() failed: %v", err)
	}

	if retrieved.Role != models.RoleManager {
		t.Errorf("Retrieved role = %s, want %s", retrieved.Role, models.RoleManager)
	}

	if len(retrieved.Permissions) != 1 || retrieved.Permissions[0] != "export_reports" {
		t.Errorf("Retrieved permissions = %v, want [export_reports]", retrieved.Permissions)
	}
}

func TestOrderRepository_OptimisticConcurrency(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(db, testLogger())
	ctx := context.Background()

	order := models.NewOrder("sp-1", []models.OrderItem{
		{ProductID: "p-1", Name: "Paint Bucket", Quantity: 2, PricePerUnit: 45},
	})

	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	// First writer loads and updates.
	first, err := repo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}

	// Second writer loads the same version.
	second, err := repo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}

	first.Status = models.OrderStatusPaid
	if err := repo.Update(ctx, first); err != nil {
		t.Fatalf("First Update() failed: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("Version after update = %d, want 2", first.Version)
	}

	second.Status = models.OrderStatusCancelled
	err = repo.Update(ctx, second)
	if !repositories.IsConcurrency(err) {
		t.Errorf("Stale Update() error = %v, want concurrency conflict", err)
	}

	retrieved, err := repo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved.Status != models.OrderStatusPaid {
		t.Errorf("Status after stale write = %s, want %s", retrieved.Status, models.OrderStatusPaid)
	}
}

func TestDemandNoticeRepository_RoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewDemandNoticeRepository(db, testLogger())
	ctx := context.Background()

	notice := models.NewDemandNotice("Water Pump", "SKU-WP1", 5, 150, "sp-1", "Amaka")
	notice.IsNewProduct = true
	notice.Payments = []models.PaymentDetail{
		{Method: models.PaymentMethodCash, Amount: 200, PaymentDate: notice.CreatedAt, CashierID: "c-1", CashierName: "Dele"},
	}

	if err := repo.Create(ctx, notice); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, notice.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}

	if retrieved.Status != models.DNStatusPendingReview {
		t.Errorf("Status = %s, want %s", retrieved.Status, models.DNStatusPendingReview)
	}

	if len(retrieved.Payments) != 1 || retrieved.Payments[0].Amount != 200 {
		t.Errorf("Payments = %v, want one payment of 200", retrieved.Payments)
	}

	retrieved.Status = models.DNStatusAwaitingStock
	if err := repo.Update(ctx, retrieved); err != nil {
		t.Errorf("Update() failed: %v", err)
	}
}

func TestQuotationRepository_ListBySalesperson(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewQuotationRepository(db, testLogger())
	ctx := context.Background()

	mine := models.NewQuotation("sp-1", []models.QuotationItem{
		{ProductName: "Generator", IsExternal: true, Price: 900, Quantity: 1},
	})
	other := models.NewQuotation("sp-2", []models.QuotationItem{
		{ProductName: "Inverter", IsExternal: true, Price: 400, Quantity: 2},
	})

	if err := repo.Create(ctx, mine); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	salesperson := "sp-1"
	listed, err := repo.List(ctx, repositories.QuotationFilters{SalespersonID: &salesperson})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	if len(listed) != 1 {
		t.Fatalf("List() returned %d quotations, want 1", len(listed))
	}
	if listed[0].ID != mine.ID {
		t.Errorf("Listed quotation ID = %s, want %s", listed[0].ID, mine.ID)
	}
}

func TestSettingsRepository_Defaults(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSettingsRepository(db, testLogger())
	ctx := context.Background()

	// Unconfigured commission reads back as disabled.
	setting, err := repo.GetCommissionSetting(ctx)
	if err != nil {
		t.Fatalf("GetCommissionSetting() failed: %v", err)
	}
	if setting.IsActive {
		t.Error("Unconfigured commission setting should be inactive")
	}

	saved := &models.CommissionSetting{
		IsActive:             true,
		SalesTarget:          100000,
		CommissionInterval:   25000,
		CommissionPercentage: 1.5,
	}
	if err := repo.SaveCommissionSetting(ctx, saved); err != nil {
		t.Fatalf("SaveCommissionSetting() failed: %v", err)
	}

	retrieved, err := repo.GetCommissionSetting(ctx)
	if err != nil {
		t.Fatalf("GetCommissionSetting() failed: %v", err)
	}
	if !retrieved.IsActive || retrieved.SalesTarget != 100000 {
		t.Errorf("Retrieved commission setting = %+v, want saved values", retrieved)
	}

	taxes := []models.TaxSetting{{Name: "VAT", Percentage: 7.5}}
	if err := repo.SaveTaxSettings(ctx, taxes); err != nil {
		t.Fatalf("SaveTaxSettings() failed: %v", err)
	}

	retrievedTaxes, err := repo.GetTaxSettings(ctx)
	if err != nil {
		t.Fatalf("GetTaxSettings() failed: %v", err)
	}
	if len(retrievedTaxes) != 1 || retrievedTaxes[0].Name != "VAT" {
		t.Errorf("Retrieved taxes = %v, want [VAT 7.5]", retrievedTaxes)
	}
}

func TestManager_WithTransactionRollback(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	manager := NewManager(db, testLogger())
	ctx := context.Background()

	product := models.NewProduct("SKU-TX", "Roofing Sheet", "building", 30, 50)
	if err := manager.Products().Create(ctx, product); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	wantErr := repositories.ValidationError("order", "tx-test", nil)
	err := manager.WithTransaction(ctx, func(repos repositories.Repositories) error {
		if err := repos.Products().AdjustStock(ctx, product.ID, -10); err != nil {
			return err
		}
		return wantErr
	})

	if err != wantErr {
		t.Errorf("WithTransaction() error = %v, want %v", err, wantErr)
	}

	// The stock adjustment must have been rolled back.
	retrieved, err := manager.Products().GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved.QuantityInStock != 50 {
		t.Errorf("Stock after rollback = %d, want 50", retrieved.QuantityInStock)
	}
}

func TestManager_WithTransactionCommit(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	manager := NewManager(db, testLogger())
	ctx := context.Background()

	product := models.NewProduct("SKU-TX2", "Door Frame", "building", 60, 20)
	if err := manager.Products().Create(ctx, product); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	order := models.NewOrder("sp-1", []models.OrderItem{
		{ProductID: product.ID, Name: product.Name, Quantity: 3, PricePerUnit: 60},
	})

	err := manager.WithTransaction(ctx, func(repos repositories.Repositories) error {
		if err := repos.Products().AdjustStock(ctx, product.ID, -3); err != nil {
			return err
		}
		return repos.Orders().Create(ctx, order)
	})
	if err != nil {
		t.Fatalf("WithTransaction() failed: %v", err)
	}

	retrieved, err := manager.Products().GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if retrieved.QuantityInStock != 17 {
		t.Errorf("Stock after commit = %d, want 17", retrieved.QuantityInStock)
	}

	if _, err := manager.Orders().GetByID(ctx, order.ID); err != nil {
		t.Errorf("Order should exist after commit: %v", err)
	}
}
