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

const orderColumns = `id, items, subtotal, discount_amount, taxes, total_amount,
	customer_name, customer_phone, delivery_address,
	primary_salesperson_id, primary_salesperson_commission,
	secondary_salesperson_id, secondary_salesperson_commission,
	status, delivery_status, payments, return_transactions,
	reminder_date, reminder_notes, created_at, updated_at, version`

// OrderRepository implements repositories.OrderRepository for SQLite
type OrderRepository struct {
	baseRepository
}

// NewOrderRepository creates a new SQLite order repository
func NewOrderRepository(db dbtx, logger *logrus.Logger) repositories.OrderRepository {
	return &OrderRepository{
		baseRepository: newBaseRepository(db, "orders", logger),
	}
}

// Create creates a new order
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := order.Validate(); err != nil {
		return repositories.ValidationError("order", order.ID, err)
	}

	items, taxes, payments, returns, err := r.marshalNested(order)
	if err != nil {
		return repositories.NewRepositoryError("create", "order", order.ID, err)
	}

	query := fmt.Sprintf("INSERT INTO orders (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", orderColumns)

	_, err = r.executeExec(ctx, "create", query,
		order.ID,
		items,
		order.Subtotal,
		order.DiscountAmount,
		taxes,
		order.TotalAmount,
		order.CustomerName,
		order.CustomerPhone,
		order.DeliveryAddress,
		order.PrimarySalespersonID,
		order.PrimarySalespersonCommission,
		order.SecondarySalespersonID,
		order.SecondarySalespersonCommission,
		string(order.Status),
		string(order.DeliveryStatus),
		payments,
		returns,
		order.ReminderDate,
		order.ReminderNotes,
		order.CreatedAt,
		order.UpdatedAt,
		order.Version,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return repositories.DuplicateError("order", "id", order.ID)
		}
		return err
	}

	return nil
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	if err := r.validateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = ?", orderColumns)
	row := r.executeQueryRow(ctx, "get_by_id", query, id)

	order, err := r.scanOrder(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repositories.NotFoundError("order", id)
		}
		return nil, repositories.NewRepositoryError("get_by_id", "order", id, err)
	}

	return order, nil
}

// Update persists an order using optimistic concurrency on the version
// column. The stored row must still carry the version the caller loaded;
// otherwise the write is rejected with a concurrency error.
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	if err := order.Validate(); err != nil {
		return repositories.ValidationError("order", order.ID, err)
	}

	items, taxes, payments, returns, err := r.marshalNested(order)
	if err != nil {
		return repositories.NewRepositoryError("update", "order", order.ID, err)
	}

	query := `
		UPDATE orders
		SET items = ?, subtotal = ?, discount_amount = ?, taxes = ?, total_amount = ?,
			customer_name = ?, customer_phone = ?, delivery_address = ?,
			primary_salesperson_id = ?, primary_salesperson_commission = ?,
			secondary_salesperson_id = ?, secondary_salesperson_commission = ?,
			status = ?, delivery_status = ?, payments = ?, return_transactions = ?,
			reminder_date = ?, reminder_notes = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?`

	result, err := r.executeExec(ctx, "update", query,
		items,
		order.Subtotal,
		order.DiscountAmount,
		taxes,
		order.TotalAmount,
		order.CustomerName,
		order.CustomerPhone,
		order.DeliveryAddress,
		order.PrimarySalespersonID,
		order.PrimarySalespersonCommission,
		order.SecondarySalespersonID,
		order.SecondarySalespersonCommission,
		string(order.Status),
		string(order.DeliveryStatus),
		payments,
		returns,
		order.ReminderDate,
		order.ReminderNotes,
		order.UpdatedAt,
		order.ID,
		order.Version,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return repositories.NewRepositoryError("update", "order", order.ID, err)
	}

	if rows == 0 {
		// Distinguish a stale version from a missing row.
		if _, getErr := r.GetByID(ctx, order.ID); getErr != nil {
			return getErr
		}
		return repositories.ConcurrencyError("order", order.ID)
	}

	order.Version++
	return nil
}

// List retrieves orders matching the supplied filters, newest first
func (r *OrderRepository) List(ctx context.Context, filters repositories.OrderFilters) ([]*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders", orderColumns)

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
		conditions = append(conditions, "(primary_salesperson_id = ? OR secondary_salesperson_id = ?)")
		args = append(args, *filters.SalespersonID, *filters.SalespersonID)
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

	var orders []*models.Order
	for rows.Next() {
		order, err := r.scanOrder(rows.Scan)
		if err != nil {
			return nil, repositories.NewRepositoryError("list", "order", "", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *OrderRepository) marshalNested(order *models.Order) (items, taxes, payments, returns string, err error) {
	if items, err = marshalColumn(order.Items); err != nil {
		return
	}
	if taxes, err = marshalColumn(order.Taxes); err != nil {
		return
	}
	if payments, err = marshalColumn(order.Payments); err != nil {
		return
	}
	returns, err = marshalColumn(order.ReturnTransactions)
	return
}

func (r *OrderRepository) scanOrder(scan func(dest ...interface{}) error) (*models.Order, error) {
	order := &models.Order{}
	var items, taxes, payments, returns string
	var status, deliveryStatus string

	err := scan(
		&order.ID,
		&items,
		&order.Subtotal,
		&order.DiscountAmount,
		&taxes,
		&order.TotalAmount,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.DeliveryAddress,
		&order.PrimarySalespersonID,
		&order.PrimarySalespersonCommission,
		&order.SecondarySalespersonID,
		&order.SecondarySalespersonCommission,
		&status,
		&deliveryStatus,
		&payments,
		&returns,
		&order.ReminderDate,
		&order.ReminderNotes,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderStatus(status)
	order.DeliveryStatus = models.DeliveryStatus(deliveryStatus)

	if err := unmarshalColumn(items, &order.Items); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(taxes, &order.Taxes); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(payments, &order.Payments); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(returns, &order.ReturnTransactions); err != nil {
		return nil, err
	}

	return order, nil
}
