package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"retail-ops-api/internal/auth"
	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"
)

// demandNoticeService implements the DemandNoticeService interface
type demandNoticeService struct {
	manager   repositories.RepositoryManager
	validator *validator.Validate
}

// NewDemandNoticeService creates a new demand notice service instance
func NewDemandNoticeService(manager repositories.RepositoryManager) DemandNoticeService {
	return &demandNoticeService{
		manager:   manager,
		validator: validator.New(),
	}
}

// Create records a new backorder request, either against an existing catalog
// product or as a new-product request. A blank SKU on a new-product request
// is auto-generated.
func (s *demandNoticeService) Create(ctx context.Context, actor *models.User, req *CreateDemandNoticeRequest) (*models.DemandNotice, error) {
	if !auth.Can(actor, auth.ActionManageDemandNotices) {
		return nil, NewPermissionError("not allowed to manage demand notices")
	}

	if req == nil {
		return nil, NewValidationError("create demand notice request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid demand notice: %v", err)
	}

	name := strings.TrimSpace(req.ProductName)
	sku := strings.TrimSpace(req.ProductSKU)

	if !req.IsNewProduct {
		if req.ProductID == nil || *req.ProductID == "" {
			return nil, NewValidationError("an existing product reference or a new-product request is required")
		}
		product, err := s.manager.Products().GetByID(ctx, *req.ProductID)
		if err != nil {
			return nil, WrapRepositoryError("failed to resolve demand notice product", err)
		}
		name = product.Name
		sku = product.SKU
	} else {
		if name == "" {
			return nil, NewValidationError("new-product requests require a product name")
		}
		if sku == "" {
			sku = generateSKU(name)
		}
	}

	notice := models.NewDemandNotice(name, sku, req.QuantityRequested, req.AgreedPrice, actor.ID, actor.Username)
	notice.ProductID = req.ProductID
	notice.IsNewProduct = req.IsNewProduct
	notice.CustomerContactNumber = req.CustomerContactNumber
	notice.ExpectedAvailabilityDate = req.ExpectedAvailabilityDate
	notice.Notes = req.Notes

	if err := s.manager.DemandNotices().Create(ctx, notice); err != nil {
		return nil, WrapRepositoryError("failed to create demand notice", err)
	}

	return notice, nil
}

// generateSKU derives a request SKU from the product name plus a short
// unique suffix.
func generateSKU(name string) string {
	prefix := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	return fmt.Sprintf("REQ-%s-%s", prefix, uuid.New().String()[:8])
}

// Get retrieves a demand notice by ID
func (s *demandNoticeService) Get(ctx context.Context, id string) (*models.DemandNotice, error) {
	notice, err := s.manager.DemandNotices().GetByID(ctx, id)
	if err != nil {
		return nil, WrapRepositoryError("failed to get demand notice", err)
	}
	return notice, nil
}

// List retrieves demand notices matching the supplied filters
func (s *demandNoticeService) List(ctx context.Context, filters *DemandNoticeFilters) ([]*models.DemandNotice, error) {
	repoFilters := repositories.DemandNoticeFilters{}
	if filters != nil {
		repoFilters.Statuses = filters.Statuses
		repoFilters.SalespersonID = filters.SalespersonID
		repoFilters.CreatedAfter = filters.CreatedAfter
		repoFilters.CreatedBefore = filters.CreatedBefore
		repoFilters.Limit = filters.Limit
		repoFilters.Offset = filters.Offset
	}

	notices, err := s.manager.DemandNotices().List(ctx, repoFilters)
	if err != nil {
		return nil, WrapRepositoryError("failed to list demand notices", err)
	}
	return notices, nil
}

// RecordAdvancePayment appends an advance payment to the notice. The
// cumulative advance may never exceed the agreed total; overpayment is
// rejected naming the remaining headroom. Status is never changed here.
func (s *demandNoticeService) RecordAdvancePayment(ctx context.Context, actor *models.User, noticeID string, req *RecordPaymentRequest) (*models.DemandNotice, error) {
	if !auth.Can(actor, auth.ActionRecordPayment) {
		return nil, NewPermissionError("not allowed to record payments")
	}

	if req == nil {
		return nil, NewValidationError("payment request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid payment: %v", err)
	}

	if !req.Method.IsValid() || req.Method == models.PaymentMethodAdvanceOnDN {
		return nil, NewValidationError("invalid payment method for an advance: %s", req.Method)
	}

	notice, err := s.manager.DemandNotices().GetByID(ctx, noticeID)
	if err != nil {
		return nil, WrapRepositoryError("failed to get demand notice", err)
	}

	if notice.Status.IsTerminal() {
		return nil, NewValidationError("cannot record payments against a %s demand notice", notice.Status.DisplayLabel())
	}

	headroom := notice.AdvanceHeadroom()
	if req.Amount > headroom+models.MoneyTolerance {
		return nil, NewValidationError("advance of %.2f exceeds the agreed total: only %.2f remains payable", req.Amount, headroom)
	}

	paymentDate := time.Now()
	if req.PaymentDate != nil {
		paymentDate = *req.PaymentDate
	}

	notice.Payments = append(notice.Payments, models.PaymentDetail{
		Method:      req.Method,
		Amount:      req.Amount,
		PaymentDate: paymentDate,
		CashierID:   actor.ID,
		CashierName: actor.Username,
	})
	notice.UpdateTimestamp()

	if err := s.manager.DemandNotices().Update(ctx, notice); err != nil {
		return nil, WrapRepositoryError("failed to record advance payment", err)
	}

	return notice, nil
}

// UpdateStatus moves the notice to an explicit workflow target. Admins and
// managers may set any canonical workflow status; the owning salesperson is
// limited to notifying the customer of full stock and to cancellation.
// Terminal notices never move again.
func (s *demandNoticeService) UpdateStatus(ctx context.Context, actor *models.User, noticeID string, status models.DemandNoticeStatus) (*models.DemandNotice, error) {
	if !auth.Can(actor, auth.ActionManageDemandNotices) {
		return nil, NewPermissionError("not allowed to manage demand notices")
	}

	if !status.IsValid() {
		return nil, NewValidationError("invalid demand notice status: %s", status)
	}

	notice, err := s.manager.DemandNotices().GetByID(ctx, noticeID)
	if err != nil {
		return nil, WrapRepositoryError("failed to get demand notice", err)
	}

	if notice.Status.IsTerminal() {
		return nil, NewValidationError("demand notice is already %s", notice.Status.DisplayLabel())
	}

	if !s.mayTransition(actor, notice, status) {
		return nil, NewPermissionError("not allowed to move this demand notice to %s", status.DisplayLabel())
	}

	notice.Status = status
	notice.UpdateTimestamp()

	if err := s.manager.DemandNotices().Update(ctx, notice); err != nil {
		return nil, WrapRepositoryError("failed to update demand notice status", err)
	}

	return notice, nil
}

// mayTransition applies the role-based transition table
func (s *demandNoticeService) mayTransition(actor *models.User, notice *models.DemandNotice, target models.DemandNoticeStatus) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleManager:
		return true
	case models.RoleSalesperson:
		if actor.ID != notice.SalespersonID {
			return false
		}
		if target == models.DNStatusCancelled {
			return true
		}
		return notice.Status == models.DNStatusFullStockAvailable && target == models.DNStatusCustomerNotified
	default:
		return false
	}
}

// PrepareOrder converts a stock-available demand notice into an order. The
// notice's advance payments become the order's opening payments (recorded
// with the advance method), the catalog stock is decremented and the notice
// is linked and moved to order processing, all in one transaction. Any
// failure leaves the notice untouched.
func (s *demandNoticeService) PrepareOrder(ctx context.Context, actor *models.User, noticeID string, req *PrepareOrderRequest) (*models.Order, error) {
	if !auth.Can(actor, auth.ActionCreateOrder) {
		return nil, NewPermissionError("not allowed to create orders")
	}

	var order *models.Order
	err := s.manager.WithTransaction(ctx, func(repos repositories.Repositories) error {
		notice, err := repos.DemandNotices().GetByID(ctx, noticeID)
		if err != nil {
			return WrapRepositoryError("failed to get demand notice", err)
		}

		if notice.Status != models.DNStatusFullStockAvailable && notice.Status != models.DNStatusCustomerNotified {
			return NewValidationError("demand notice must have full stock available before an order can be prepared (current: %s)",
				notice.Status.DisplayLabel())
		}

		if notice.LinkedOrderID != nil {
			return NewConflictError("demand notice is already linked to order %s", *notice.LinkedOrderID)
		}

		if notice.ProductID == nil || *notice.ProductID == "" {
			return NewValidationError("demand notice has no catalog product to fulfil from")
		}

		product, err := repos.Products().GetByID(ctx, *notice.ProductID)
		if err != nil {
			return WrapRepositoryError("failed to resolve demand notice product", err)
		}

		if err := repos.Products().AdjustStock(ctx, product.ID, -notice.QuantityRequested); err != nil {
			if repositories.IsInsufficientStock(err) {
				return NewConflictError("insufficient stock for %s: %d requested, %d available",
					product.Name, notice.QuantityRequested, product.QuantityInStock)
			}
			return WrapRepositoryError("failed to reserve stock", err)
		}

		order = models.NewOrder(notice.SalespersonID, []models.OrderItem{{
			ProductID:    product.ID,
			Name:         product.Name,
			SKU:          product.SKU,
			Quantity:     notice.QuantityRequested,
			PricePerUnit: notice.AgreedPrice,
			TotalPrice:   models.RoundToTwoDecimals(notice.AgreedPrice * float64(notice.QuantityRequested)),
		}})
		order.CustomerPhone = notice.CustomerContactNumber
		if req != nil {
			if req.CustomerName != "" {
				order.CustomerName = req.CustomerName
			}
			if req.CustomerPhone != "" {
				order.CustomerPhone = req.CustomerPhone
			}
			order.DeliveryAddress = req.DeliveryAddress
		}

		// Advances already collected open the order's payment trail.
		for _, payment := range notice.Payments {
			order.Payments = append(order.Payments, models.PaymentDetail{
				Method:      models.PaymentMethodAdvanceOnDN,
				Amount:      payment.Amount,
				PaymentDate: payment.PaymentDate,
				CashierID:   payment.CashierID,
				CashierName: payment.CashierName,
			})
		}
		order.RecalculateTotals()

		if err := repos.Orders().Create(ctx, order); err != nil {
			return WrapRepositoryError("failed to create order", err)
		}

		notice.LinkedOrderID = &order.ID
		notice.Status = models.DNStatusOrderProcessing
		notice.QuantityFulfilled = notice.QuantityRequested
		notice.UpdateTimestamp()

		return repos.DemandNotices().Update(ctx, notice)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
