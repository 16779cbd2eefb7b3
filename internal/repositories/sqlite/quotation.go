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

const quotationColumns = `id, salesperson_id, customer_name, customer_contact_number,
	preparation_days, valid_until, status, total_amount, notes, items,
	created_at, updated_at, version`

// QuotationRepository implements repositories.QuotationRepository for SQLite
type QuotationRepository struct {
	baseRepository
}

// NewQuotationRepository creates a new SQLite quotation repository
func NewQuotationRepository(db dbtx, logger *logrus.Logger) repositories.QuotationRepository {
	return &QuotationRepository{
		baseRepository: newBaseRepository(db, "quotations", logger),
	}
}

// Create creates a new quotation
func (r *QuotationRepository) Create(ctx context.Context, quotation *models.Quotation) error {
	if err := quotation.Validate(); err != nil {
		return repositories.ValidationError("quotation", quotation.ID, err)
	}

	items, err := marshalColumn(quotation.Items)
	if err != nil {
		return repositories.NewRepositoryError("create", "quotation", quotation.ID, err)
	}

	query := fmt.Sprintf("INSERT INTO quotations (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", quotationColumns)

	_, err = r.executeExec(ctx, "create", query,
		quotation.ID,
		quotation.SalespersonID,
		quotation.CustomerName,
		quotation.CustomerContactNumber,
		quotation.PreparationDays,
		quotation.ValidUntil,
		string(quotation.Status),
		quotation.TotalAmount,
		quotation.Notes,
		items,
		quotation.CreatedAt,
		quotation.UpdatedAt,
		quotation.Version,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("quotation", "id", quotation.ID)
		}
		return err
	}

	return nil
}

// GetByID retrieves a quotation by ID
func (r *QuotationRepository) GetByID(ctx context.Context, id string) (*models.Quotation, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM quotations WHERE id = ?", quotationColumns)
	row := r.executeQueryRow(ctx, "get_by_id", query, id)

	quotation, err := r.scanQuotation(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("quotation", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "quotation", id, err)
	}

	return quotation, nil
}

// Update persists a quotation, enforcing optimistic concurrency on the
// version column
func (r *QuotationRepository) Update(ctx context.Context, quotation *models.Quotation) error {
	if err := quotation.Validate(); err != nil {
		return repositories.ValidationError("quotation", quotation.ID, err)
	}

	items, err := marshalColumn(quotation.Items)
	if err != nil {
		return repositories.NewRepositoryError("update", "quotation", quotation.ID, err)
	}

	query := `
		UPDATE quotations
		SET salesperson_id = ?, customer_name = ?, customer_contact_number = ?,
			preparation_days = ?, valid_until = ?, status = ?, total_amount = ?,
			notes = ?, items = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`

	result, err := r.executeExec(ctx, "update", query,
		quotation.SalespersonID,
		quotation.CustomerName,
		quotation.CustomerContactNumber,
		quotation.PreparationDays,
		quotation.ValidUntil,
		string(quotation.Status),
		quotation.TotalAmount,
		quotation.Notes,
		items,
		quotation.UpdatedAt,
		quotation.ID,
		quotation.Version,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return repositories.NewRepositoryError("update", "quotation", quotation.ID, err)
	}

	if rows == 0 {
		if _, getErr := r.GetByID(ctx, quotation.ID); getErr != nil {
			return getErr
		}
		return repositories.ConcurrencyError("quotation", quotation.ID)
	}

	quotation.Version++
	return nil
}

// List retrieves quotations matching the supplied filters, newest first
func (r *QuotationRepository) List(ctx context.Context, filters repositories.QuotationFilters) ([]*models.Quotation, error) {
	query := fmt.Sprintf("SELECT %s FROM quotations", quotationColumns)

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

	var quotations []*models.Quotation
	for rows.Next() {
		quotation, err := r.scanQuotation(rows.Scan)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "quotation", "", err)
		}
		quotations = append(quotations, quotation)
	}

	return quotations, rows.Err()
}

func (r *QuotationRepository) scanQuotation(scan func(dest ...interface{}) error) (*models.Quotation, error) {
	quotation := &models.Quotation{}
	var items, status string

	err := scan(
		&quotation.ID,
		&quotation.SalespersonID,
		&quotation.CustomerName,
		&quotation.CustomerContactNumber,
		&quotation.PreparationDays,
		&quotation.ValidUntil,
		&status,
		&quotation.TotalAmount,
		&quotation.Notes,
		&items,
		&quotation.CreatedAt,
		&quotation.UpdatedAt,
		&quotation.Version,
	)
	if err != nil {
		return nil, err
	}

	quotation.Status = models.QuotationStatus(status)
	if err := unmarshalColumn(items, &quotation.Items); err != nil {
		return nil, err
	}

	return quotation, nil
}
