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

const demandNoticeColumns = `id, product_id, product_name, product_sku, is_new_product,
	customer_contact_number, quantity_requested, quantity_fulfilled, agreed_price,
	expected_availability_date, salesperson_id, salesperson_name, status,
	payments, linked_order_id, notes, created_at, updated_at, version`

// DemandNoticeRepository implements repositories.DemandNoticeRepository for SQLite
type DemandNoticeRepository struct {
	baseRepository
}

// NewDemandNoticeRepository creates a new SQLite demand notice repository
func NewDemandNoticeRepository(db dbtx, logger *logrus.Logger) repositories.DemandNoticeRepository {
	return &DemandNoticeRepository{
		baseRepository: newBaseRepository(db, "demand_notices", logger),
	}
}

// Create creates a new demand notice
func (r *DemandNoticeRepository) Create(ctx context.Context, notice *models.DemandNotice) error {
	if err := notice.Validate(); err != nil {
		return repositories.ValidationError("demand_notice", notice.ID, err)
	}

	payments, err := marshalColumn(notice.Payments)
	if err != nil {
		return repositories.NewRepositoryError("create", "demand_notice", notice.ID, err)
	}

	query := fmt.Sprintf("INSERT INTO demand_notices (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", demandNoticeColumns)

	_, err = r.executeExec(ctx, "create", query,
		notice.ID,
		notice.ProductID,
		notice.ProductName,
		notice.ProductSKU,
		notice.IsNewProduct,
		notice.CustomerContactNumber,
		notice.QuantityRequested,
		notice.QuantityFulfilled,
		notice.AgreedPrice,
		notice.ExpectedAvailabilityDate,
		notice.SalespersonID,
		notice.SalespersonName,
		string(notice.Status),
		payments,
		notice.LinkedOrderID,
		notice.Notes,
		notice.CreatedAt,
		notice.UpdatedAt,
		notice.Version,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("demand_notice", "id", notice.ID)
		}
		return err
	}

	return nil
}

// GetByID retrieves a demand notice by ID
func (r *DemandNoticeRepository) GetByID(ctx context.Context, id string) (*models.DemandNotice, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM demand_notices WHERE id = ?", demandNoticeColumns)
	row := r.executeQueryRow(ctx, "get_by_id", query, id)

	notice, err := r.scanNotice(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("demand_notice", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "demand_notice", id, err)
	}

	return notice, nil
}

// Update persists a demand notice, enforcing optimistic concurrency on the
// version column
func (r *DemandNoticeRepository) Update(ctx context.Context, notice *models.DemandNotice) error {
	if err := notice.Validate(); err != nil {
		return repositories.ValidationError("demand_notice", notice.ID, err)
	}

	payments, err := marshalColumn(notice.Payments)
	if err != nil {
		return repositories.NewRepositoryError("update", "demand_notice", notice.ID, err)
	}

	query := `
		UPDATE demand_notices
		SET product_id = ?, product_name = ?, product_sku = ?, is_new_product = ?,
			customer_contact_number = ?, quantity_requested = ?, quantity_fulfilled = ?,
			agreed_price = ?, expected_availability_date = ?,
			salesperson_id = ?, salesperson_name = ?, status = ?,
			payments = ?, linked_order_id = ?, notes = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`

	result, err := r.executeExec(ctx, "update", query,
		notice.ProductID,
		notice.ProductName,
		notice.ProductSKU,
		notice.IsNewProduct,
		notice.CustomerContactNumber,
		notice.QuantityRequested,
		notice.QuantityFulfilled,
		notice.AgreedPrice,
		notice.ExpectedAvailabilityDate,
		notice.SalespersonID,
		notice.SalespersonName,
		string(notice.Status),
		payments,
		notice.LinkedOrderID,
		notice.Notes,
		notice.UpdatedAt,
		notice.ID,
		notice.Version,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return repositories.NewRepositoryError("update", "demand_notice", notice.ID, err)
	}

	if rows == 0 {
		if _, getErr := r.GetByID(ctx, notice.ID); getErr != nil {
			return getErr
		}
		return repositories.ConcurrencyError("demand_notice", notice.ID)
	}

	notice.Version++
	return nil
}

// List retrieves demand notices matching the supplied filters, newest first
func (r *DemandNoticeRepository) List(ctx context.Context, filters repositories.DemandNoticeFilters) ([]*models.DemandNotice, error) {
	query := fmt.Sprintf("SELECT %s FROM demand_notices", demandNoticeColumns)

	var conditions []string
	var args []interface{}

	if len(filters.Statuses) > 0 {
		placeholders := make([]string, len(filters.Statuses))
		for i, s := range filters.Statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filters.SalespersonID != nil {
		conditions = append(conditions, "salesperson_id = ?")
		args = append(args, *filters.SalespersonID)
	}

	if filters.CreatedAfter != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filters.CreatedAfter)
	}

	if filters.CreatedBefore != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filters.CreatedBefore)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filters.Offset)
		}
	}

	rows, err := r.executeQuery(ctx, "list", query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []*models.DemandNotice
	for rows.Next() {
		notice, err := r.scanNotice(rows.Scan)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "demand_notice", "", err)
		}
		notices = append(notices, notice)
	}

	return notices, rows.Err()
}

func (r *DemandNoticeRepository) scanNotice(scan func(dest ...interface{}) error) (*models.DemandNotice, error) {
	notice := &models.DemandNotice{}
	var payments, status string

	err := scan(
		&notice.ID,
		&notice.ProductID,
		&notice.ProductName,
		&notice.ProductSKU,
		&notice.IsNewProduct,
		&notice.CustomerContactNumber,
		&notice.QuantityRequested,
		&notice.QuantityFulfilled,
		&notice.AgreedPrice,
		&notice.ExpectedAvailabilityDate,
		&notice.SalespersonID,
		&notice.SalespersonName,
		&status,
		&payments,
		&notice.LinkedOrderID,
		&notice.Notes,
		&notice.CreatedAt,
		&notice.UpdatedAt,
		&notice.Version,
	)
	if err != nil {
		return nil, err
	}

	notice.Status = models.DemandNoticeStatus(status)
	if err := unmarshalColumn(payments, &notice.Payments); err != nil {
		return nil, err
	}

	return notice, nil
}
