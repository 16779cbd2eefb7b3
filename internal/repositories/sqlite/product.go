package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"

	"github.com/sirupsen/logrus"
)

// ProductRepository implements repositories.ProductRepository for SQLite
type ProductRepository struct {
	baseRepository
}

// NewProductRepository creates a new SQLite product repository
func NewProductRepository(db dbtx, logger *logrus.Logger) repositories.ProductRepository {
	return &ProductRepository{
		baseRepository: newBaseRepository(db, "products", logger),
	}
}

const productColumns = `id, sku, name, category, price, quantity_in_stock,
	low_stock_threshold, low_stock_price, expiry_date, created_at, updated_at`

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := product.Validate(); err != nil {
		return repositories.ValidationError("product", product.ID, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO products (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, productColumns)

	_, err := r.executeExec(ctx, "create", query,
		product.ID,
		product.SKU,
		product.Name,
		product.Category,
		product.Price,
		product.QuantityInStock,
		product.LowStockThreshold,
		product.LowStockPrice,
		product.ExpiryDate,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("product", "sku", product.SKU)
		}
		return err
	}

	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ?`, productColumns)
	return r.scanProduct(r.executeQueryRow(ctx, "get_by_id", query, id), id)
}

// GetBySKU retrieves a product by its SKU
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, repositories.NewRepositoryError("get_by_sku", "product", sku, repositories.ErrInvalidID)
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE sku = ?`, productColumns)
	return r.scanProduct(r.executeQueryRow(ctx, "get_by_sku", query, sku), sku)
}

// Update updates an existing product
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := product.Validate(); err != nil {
		return repositories.ValidationError("product", product.ID, err)
	}

	query := `
		UPDATE products
		SET sku = ?, name = ?, category = ?, price = ?, quantity_in_stock = ?,
			low_stock_threshold = ?, low_stock_price = ?, expiry_date = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.executeExec(ctx, "update", query,
		product.SKU,
		product.Name,
		product.Category,
		product.Price,
		product.QuantityInStock,
		product.LowStockThreshold,
		product.LowStockPrice,
		product.ExpiryDate,
		product.UpdatedAt,
		product.ID,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("product", "sku", product.SKU)
		}
		return err
	}

	return r.checkRowsAffected(result, "update", product.ID)
}

// Delete deletes a product by ID
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.validateID(id); err != nil {
		return err
	}

	result, err := r.executeExec(ctx, "delete", "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}

	return r.checkRowsAffected(result, "delete", id)
}

// List retrieves products with optional filters
func (r *ProductRepository) List(ctx context.Context, filters repositories.ProductFilters) ([]*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products`, productColumns)
	var conditions []string
	var args []interface{}

	if filters.Category != nil {
		conditions = append(conditions, "category = ?")
		args = append(args, *filters.Category)
	}

	if filters.Query != nil {
		conditions = append(conditions, "(name LIKE ? OR sku LIKE ?)")
		pattern := "%" + *filters.Query + "%"
		args = append(args, pattern, pattern)
	}

	if filters.LowStock != nil && *filters.LowStock {
		conditions = append(conditions, "low_stock_threshold IS NOT NULL AND quantity_in_stock <= low_stock_threshold")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY name ASC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filters.Limit, filters.Offset)
	}

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(
			&product.ID,
			&product.SKU,
			&product.Name,
			&product.Category,
			&product.Price,
			&product.QuantityInStock,
			&product.LowStockThreshold,
			&product.LowStockPrice,
			&product.ExpiryDate,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, repositories.NewRepositoryError("list", "product", "", err)
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

// AdjustStock atomically changes a product's stock level by delta. The guard
// on the decrement path keeps quantities from going negative without a
// read-modify-write race.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	if err := r.validateID(id); err != nil {
		return err
	}

	query := `
		UPDATE products
		SET quantity_in_stock = quantity_in_stock + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity_in_stock + ? >= 0`

	result, err := r.executeExec(ctx, "adjust_stock", query, delta, id, delta)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return repositories.NewRepositoryError("adjust_stock", "product", id, err)
	}

	if rowsAffected == 0 {
		// Distinguish a missing product from a guarded decrement
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return repositories.InsufficientStockError(id, -delta)
	}

	return nil
}

func (r *ProductRepository) scanProduct(row *sql.Row, id string) (*models.Product, error) {
	product := &models.Product{}
	err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Category,
		&product.Price,
		&product.QuantityInStock,
		&product.LowStockThreshold,
		&product.LowStockPrice,
		&product.ExpiryDate,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("product", id)
		}
		return nil, repositories.NewRepositoryError("get", "product", id, err)
	}

	return product, nil
}
