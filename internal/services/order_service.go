package services

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"retail-ops-api/internal/auth"
	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"
)

// orderService implements the OrderService interface
type orderService struct {
	manager   repositories.RepositoryManager
	validator *validator.Validate
}

// NewOrderService creates a new order service instance
func NewOrderService(manager repositories.RepositoryManager) OrderService {
	return &orderService{
		manager:   manager,
		validator: validator.New(),
	}
}

// CreateOrder creates an order from catalog items, validating the commission
// split and applying configured taxes. Stock is decremented inside the same
// transaction that persists the order.
func (s *orderService) CreateOrder(ctx context.Context, actor *models.User, req *CreateOrderRequest) (*models.Order, error) {
	if !auth.Can(actor, auth.ActionCreateOrder) {
		return nil, NewPermissionError("not allowed to create orders")
	}

	if req == nil {
		return nil, NewValidationError("create order request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid order data: %v", err)
	}

	var order *models.Order
	err := s.manager.WithTransaction(ctx, func(repos repositories.Repositories) error {
		items := make([]models.OrderItem, 0, len(req.Items))
		for _, itemReq := range req.Items {
			product, err := repos.Products().GetByID(ctx, itemReq.ProductID)
			if err != nil {
				return WrapRepositoryError("failed to resolve order item product", err)
			}

			price := product.EffectivePrice()
			if itemReq.UnitPrice != nil {
				if *itemReq.UnitPrice < 0 {
					return NewValidationError("item price cannot be negative")
				}
				price = *itemReq.UnitPrice
			}

			if err := repos.Products().AdjustStock(ctx, product.ID, -itemReq.Quantity); err != nil {
				if repositories.IsInsufficientStock(err) {
					return NewConflictError("insufficient stock for %s: %d requested, %d available",
						product.Name, itemReq.Quantity, product.QuantityInStock)
				}
				return WrapRepositoryError("failed to reserve stock", err)
			}

			items = append(items, models.OrderItem{
				ProductID:    product.ID,
				Name:         product.Name,
				SKU:          product.SKU,
				Quantity:     itemReq.Quantity,
				PricePerUnit: price,
				TotalPrice:   models.RoundToTwoDecimals(price * float64(itemReq.Quantity)),
			})
		}

		order = models.NewOrder(req.PrimarySalespersonID, items)
		order.DiscountAmount = req.DiscountAmount
		order.CustomerName = req.CustomerName
		order.CustomerPhone = req.CustomerPhone
		order.DeliveryAddress = req.DeliveryAddress
		order.ReminderDate = req.ReminderDate
		order.ReminderNotes = req.ReminderNotes

		if req.PrimarySalespersonCommission != nil {
			order.PrimarySalespersonCommission = *req.PrimarySalespersonCommission
		}
		if req.SecondarySalespersonID != nil {
			order.SecondarySalespersonID = req.SecondarySalespersonID
			if req.SecondarySalespersonCommission != nil {
				order.SecondarySalespersonCommission = *req.SecondarySalespersonCommission
			}
		} else if req.SecondarySalespersonCommission != nil && *req.SecondarySalespersonCommission != 0 {
			return NewValidationError("secondary commission fraction requires a secondary salesperson")
		}

		taxSettings, err := repos.Settings().GetTaxSettings(ctx)
		if err != nil {
			return WrapRepositoryError("failed to load tax settings", err)
		}
		taxable := order.Subtotal - order.DiscountAmount
		for _, tax := range taxSettings {
			order.Taxes = append(order.Taxes, models.TaxLine{
				Name:   tax.Name,
				Amount: models.RoundToTwoDecimals(taxable * tax.Percentage / 100),
			})
		}
		order.RecalculateTotals()

		if err := order.Validate(); err != nil {
			return NewValidationError("invalid order: %v", err)
		}

		return repos.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrder retrieves an order by ID
func (s *orderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.manager.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, WrapRepositoryError("failed to get order", err)
	}
	return order, nil
}

// ListOrders retrieves orders matching the supplied filters
func (s *orderService) ListOrders(ctx context.Context, filters *OrderFilters) ([]*models.Order, error) {
	repoFilters := repositories.OrderFilters{}
	if filters != nil {
		repoFilters.Statuses = filters.Statuses
		repoFilters.SalespersonID = filters.SalespersonID
		repoFilters.CreatedAfter = filters.CreatedAfter
		repoFilters.CreatedBefore = filters.CreatedBefore
		repoFilters.Limit = filters.Limit
		repoFilters.Offset = filters.Offset
	}

	orders, err := s.manager.Orders().List(ctx, repoFilters)
	if err != nil {
		return nil, WrapRepositoryError("failed to list orders", err)
	}
	return orders, nil
}

// RecordPayment appends an immutable payment stamped with the acting
// cashier. The derived status is surfaced as a suggestion only; status
// changes remain explicit operator actions.
func (s *orderService) RecordPayment(ctx context.Context, actor *models.User, orderID string, req *RecordPaymentRequest) (*PaymentResult, error) {
	if !auth.Can(actor, auth.ActionRecordPayment) {
		return nil, NewPermissionError("not allowed to record payments")
	}

	if req == nil {
		return nil, NewValidationError("payment request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid payment: %v", err)
	}

	if !req.Method.IsValid() {
		return nil, NewValidationError("invalid payment method: %s", req.Method)
	}

	order, err := s.manager.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, WrapRepositoryError("failed to get order", err)
	}

	if order.Status == models.OrderStatusCancelled || order.Status == models.OrderStatusReturned {
		return nil, NewValidationError("cannot record payments against a %s order", order.Status.DisplayLabel())
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	order.Payments = append(order.Payments, models.PaymentDetail{
		Method:      req.Method,
		Amount:      req.Amount,
		PaymentDate: paymentDate,
		CashierID:   actor.ID,
		CashierName: actor.Username,
	})
	order.UpdateTimestamp()

	if err := s.manager.Orders().Update(ctx, order); err != nil {
		return nil, WrapRepositoryError("failed to record payment", err)
	}

	return &PaymentResult{
		Order:            order,
		TotalPaid:        order.TotalPaid(),
		RemainingBalance: order.RemainingBalance(),
		SuggestedStatus:  suggestedPaymentStatus(order),
	}, nil
}

// suggestedPaymentStatus derives a payment-state suggestion from the running
// balance. Overpayment still suggests paid; the negative balance is surfaced
// separately.
func suggestedPaymentStatus(order *models.Order) models.OrderStatus {
	totalPaid := order.TotalPaid()
	switch {
	case totalPaid <= 0:
		return models.OrderStatusPendingPayment
	case order.RemainingBalance() > models.MoneyTolerance:
		return models.OrderStatusPartialPayment
	default:
		return models.OrderStatusPaid
	}
}

// UpdateStatus sets an explicit order status
func (s *orderService) UpdateStatus(ctx context.Context, actor *models.User, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !auth.Can(actor, auth.ActionUpdateOrderStatus) {
		return nil, NewPermissionError("not allowed to update order status")
	}

	if !status.IsValid() {
		return nil, NewValidationError("invalid order status: %s", status)
	}

	order, err := s.manager.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, WrapRepositoryError("failed to get order", err)
	}

	order.Status = status
	order.UpdateTimestamp()

	if err := s.manager.Orders().Update(ctx, order); err != nil {
		return nil, WrapRepositoryError("failed to update order status", err)
	}
	return order, nil
}

// UpdateDeliveryStatus sets an explicit delivery status
func (s *orderService) UpdateDeliveryStatus(ctx context.Context, actor *models.User, orderID string, status models.DeliveryStatus) (*models.Order, error) {
	if !auth.Can(actor, auth.ActionUpdateOrderStatus) {
		return nil, NewPermissionError("not allowed to update order status")
	}

	if !status.IsValid() {
		return nil, NewValidationError("invalid delivery status: %s", status)
	}

	order, err := s.manager.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, WrapRepositoryError("failed to get order", err)
	}

	order.DeliveryStatus = status
	order.UpdateTimestamp()

	if err := s.manager.Orders().Update(ctx, order); err != nil {
		return nil, WrapRepositoryError("failed to update delivery status", err)
	}
	return order, nil
}

// ProcessReturn records a return transaction. Each line is capped by the
// quantity still returnable after earlier returns, and the refund payments
// must balance the returned value to within the money tolerance. Returned
// stock goes back to the catalog in the same transaction.
func (s *orderService) ProcessReturn(ctx context.Context, actor *models.User, orderID string, req *ProcessReturnRequest) (*models.Order, error) {
	if !auth.Can(actor, auth.ActionProcessReturn) {
		return nil, NewPermissionError("not allowed to process returns")
	}

	if req == nil || len(req.Items) == 0 {
		return nil, NewValidationError("no items selected for return")
	}

	var order *models.Order
	err := s.manager.WithTransaction(ctx, func(repos repositories.Repositories) error {
		var err error
		order, err = repos.Orders().GetByID(ctx, orderID)
		if err != nil {
			return WrapRepositoryError("failed to get order", err)
		}

		var returned []models.ReturnItemDetail
		var returnedValue float64
		for _, itemReq := range req.Items {
			if itemReq.QuantityToReturn < 1 {
				return NewValidationError("return quantity must be at least 1")
			}

			line := order.ItemByProductID(itemReq.ProductID)
			if line == nil {
				return NewValidationError("product %s is not on this order", itemReq.ProductID)
			}

			remaining := line.Quantity - order.QuantityReturned(itemReq.ProductID)
			if itemReq.QuantityToReturn > remaining {
				return NewValidationError("cannot return %d of %s: only %d remain returnable",
					itemReq.QuantityToReturn, line.Name, remaining)
			}

			returned = append(returned, models.ReturnItemDetail{
				ProductID:        line.ProductID,
				Name:             line.Name,
				QuantityReturned: itemReq.QuantityToReturn,
				PricePerUnit:     line.PricePerUnit,
			})
			returnedValue += line.PricePerUnit * float64(itemReq.QuantityToReturn)
		}
		returnedValue = models.RoundToTwoDecimals(returnedValue)

		var refundTotal float64
		for _, refund := range req.Refunds {
			if !refund.Method.IsValid() {
				return NewValidationError("invalid refund method: %s", refund.Method)
			}
			refundTotal += refund.Amount
		}

		if diff := refundTotal - returnedValue; math.Abs(diff) > models.MoneyTolerance {
			if diff > 0 {
				return NewValidationError("refund exceeds returned value by %.2f", diff)
			}
			return NewValidationError("refund falls short of returned value by %.2f", -diff)
		}

		now := time.Now()
		order.ReturnTransactions = append(order.ReturnTransactions, models.ReturnTransaction{
			ItemsReturned:             returned,
			TotalValueOfReturnedItems: returnedValue,
			ProcessedAt:               now,
		})

		// Returned items go back on hand. Products deleted since the sale
		// are skipped; the return itself still stands.
		for _, item := range returned {
			if err := repos.Products().AdjustStock(ctx, item.ProductID, item.QuantityReturned); err != nil {
				if !repositories.IsNotFound(err) {
					return WrapRepositoryError("failed to restock returned item", err)
				}
			}
		}

		order.UpdateTimestamp()
		return repos.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// AggregateAttributedSales sums attributed sales of paid and completed
// orders for a salesperson over a date range.
func (s *orderService) AggregateAttributedSales(ctx context.Context, salespersonID string, start, end time.Time) (float64, error) {
	orders, err := s.manager.Orders().List(ctx, repositories.OrderFilters{
		SalespersonID: &salespersonID,
		CreatedAfter:  &start,
		CreatedBefore: &end,
	})
	if err != nil {
		return 0, WrapRepositoryError("failed to list orders", err)
	}

	var total float64
	for _, order := range orders {
		if !order.Status.CountsTowardSales() {
			continue
		}
		total += order.AttributedSales(salespersonID)
	}
	return models.RoundToTwoDecimals(total), nil
}

// EarnedCommission computes a salesperson's commission for a period using
// the active commission setting.
func (s *orderService) EarnedCommission(ctx context.Context, actor *models.User, salespersonID string, start, end time.Time) (*CommissionReport, error) {
	if !auth.Can(actor, auth.ActionViewReports) {
		return nil, NewPermissionError("not allowed to view reports")
	}

	sales, err := s.AggregateAttributedSales(ctx, salespersonID, start, end)
	if err != nil {
		return nil, err
	}

	setting, err := s.manager.Settings().GetCommissionSetting(ctx)
	if err != nil {
		return nil, WrapRepositoryError("failed to load commission setting", err)
	}

	return &CommissionReport{
		SalespersonID:   salespersonID,
		PeriodStart:     start,
		PeriodEnd:       end,
		AttributedSales: sales,
		Commission:      models.RoundToTwoDecimals(CalculateCommission(sales, setting)),
	}, nil
}
