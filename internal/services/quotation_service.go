package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"retail-ops-api/internal/auth"
	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"
)

// quotationService implements the QuotationService interface
type quotationService struct {
	manager   repositories.RepositoryManager
	validator *validator.Validate
}

// NewQuotationService creates a new quotation service instance
func NewQuotationService(manager repositories.RepositoryManager) QuotationService {
	return &quotationService{
		manager:   manager,
		validator: validator.New(),
	}
}

// Create creates a new draft quotation. Internal items without an explicit
// price default to the product's effective catalog price; external items
// carry free-text details and caller-supplied pricing.
func (s *quotationService) Create(ctx context.Context, actor *models.User, req *CreateQuotationRequest) (*models.Quotation, error) {
	if !auth.Can(actor, auth.ActionManageQuotations) {
		return nil, NewPermissionError("not allowed to manage quotations")
	}

	if req == nil {
		return nil, NewValidationError("create quotation request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid quotation: %v", err)
	}

	items, err := s.buildItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	quotation := models.NewQuotation(actor.ID, items)
	quotation.CustomerName = req.CustomerName
	quotation.CustomerContactNumber = req.CustomerContactNumber
	quotation.PreparationDays = req.PreparationDays
	quotation.ValidUntil = req.ValidUntil
	quotation.Notes = req.Notes
	quotation.RecalculateTotal()

	if err := s.manager.Quotations().Create(ctx, quotation); err != nil {
		return nil, WrapRepositoryError("failed to create quotation", err)
	}

	return quotation, nil
}

func (s *quotationService) buildItems(ctx context.Context, reqs []QuotationItemRequest) ([]models.QuotationItem, error) {
	items := make([]models.QuotationItem, 0, len(reqs))
	for _, itemReq := range reqs {
		if itemReq.Quantity < 1 {
			return nil, NewValidationError("item quantity must be at least 1")
		}

		item := models.QuotationItem{
			ProductID:   itemReq.ProductID,
			ProductName: strings.TrimSpace(itemReq.ProductName),
			ProductSKU:  strings.TrimSpace(itemReq.ProductSKU),
			Quantity:    itemReq.Quantity,
			IsExternal:  itemReq.IsExternal,
		}

		if itemReq.IsExternal {
			if item.ProductName == "" {
				return nil, NewValidationError("external items require a product name")
			}
			if itemReq.Price == nil || *itemReq.Price < 0 {
				return nil, NewValidationError("external items require a non-negative price")
			}
			item.Price = *itemReq.Price
		} else {
			if itemReq.ProductID == nil || *itemReq.ProductID == "" {
				return nil, NewValidationError("internal items must reference a catalog product")
			}
			product, err := s.manager.Products().GetByID(ctx, *itemReq.ProductID)
			if err != nil {
				return nil, WrapRepositoryError("failed to resolve quotation item product", err)
			}
			item.ProductName = product.Name
			item.ProductSKU = product.SKU
			item.Price = product.EffectivePrice()
			if itemReq.Price != nil {
				if *itemReq.Price < 0 {
					return nil, NewValidationError("item price cannot be negative")
				}
				item.Price = *itemReq.Price
			}
		}

		items = append(items, item)
	}
	return items, nil
}

// Get retrieves a quotation by ID
func (s *quotationService) Get(ctx context.Context, id string) (*models.Quotation, error) {
	quotation, err := s.manager.Quotations().GetByID(ctx, id)
	if err != nil {
		return nil, WrapRepositoryError("failed to get quotation", err)
	}
	return quotation, nil
}

// List retrieves quotations matching the supplied filters
func (s *quotationService) List(ctx context.Context, filters *QuotationFilters) ([]*models.Quotation, error) {
	repoFilters := repositories.QuotationFilters{}
	if filters != nil {
		repoFilters.Statuses = filters.Statuses
		repoFilters.SalespersonID = filters.SalespersonID
		repoFilters.Limit = filters.Limit
		repoFilters.Offset = filters.Offset
	}

	quotations, err := s.manager.Quotations().List(ctx, repoFilters)
	if err != nil {
		return nil, WrapRepositoryError("failed to list quotations", err)
	}
	return quotations, nil
}

// Update replaces the editable fields of a draft or revision quotation. The
// total is always recomputed from the items.
func (s *quotationService) Update(ctx context.Context, actor *models.User, id string, req *UpdateQuotationRequest) (*models.Quotation, error) {
	if !auth.Can(actor, auth.ActionManageQuotations) {
		return nil, NewPermissionError("not allowed to manage quotations")
	}

	if req == nil {
		return nil, NewValidationError("update quotation request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid quotation: %v", err)
	}

	quotation, err := s.manager.Quotations().GetByID(ctx, id)
	if err != nil {
		return nil, WrapRepositoryError("failed to get quotation", err)
	}

	if !quotation.IsEditable() {
		return nil, NewValidationError("quotation can only be edited in draft or revision (current: %s)",
			quotation.Status.DisplayLabel())
	}

	if req.CustomerName != nil {
		quotation.CustomerName = *req.CustomerName
	}
	if req.CustomerContactNumber != nil {
		quotation.CustomerContactNumber = *req.CustomerContactNumber
	}
	if req.PreparationDays != nil {
		quotation.PreparationDays = *req.PreparationDays
	}
	if req.ValidUntil != nil {
		quotation.ValidUntil = req.ValidUntil
	}
	if req.Notes != nil {
		quotation.Notes = req.Notes
	}
	if req.Items != nil {
		items, err := s.buildItems(ctx, req.Items)
		if err != nil {
			return nil, err
		}
		quotation.Items = items
	}

	quotation.RecalculateTotal()
	quotation.UpdateTimestamp()

	if err := s.manager.Quotations().Update(ctx, quotation); err != nil {
		return nil, WrapRepositoryError("failed to update quotation", err)
	}

	return quotation, nil
}

// UpdateStatus moves the quotation along its transition table. The
// converted status is never a direct target; it is reached only by
// exhausting item conversions.
func (s *quotationService) UpdateStatus(ctx context.Context, actor *models.User, id string, status models.QuotationStatus) (*models.Quotation, error) {
	if !auth.Can(actor, auth.ActionManageQuotations) {
		return nil, NewPermissionError("not allowed to manage quotations")
	}

	if !status.IsValid() {
		return nil, NewValidationError("invalid quotation status: %s", status)
	}

	quotation, err := s.manager.Quotations().GetByID(ctx, id)
	if err != nil {
		return nil, WrapRepositoryError("failed to get quotation", err)
	}

	if !quotation.Status.CanTransitionTo(status) {
		return nil, NewValidationError("cannot move quotation from %s to %s",
			quotation.Status.DisplayLabel(), status.DisplayLabel())
	}

	quotation.Status = status
	quotation.UpdateTimestamp()

	if err := s.manager.Quotations().Update(ctx, quotation); err != nil {
		return nil, WrapRepositoryError("failed to update quotation status", err)
	}

	return quotation, nil
}

// ConvertInternalItems creates one order containing every unconverted
// internal item of an accepted quotation, at quotation price and quantity.
// Marking the items converted, decrementing stock and creating the order
// happen in one transaction.
func (s *quotationService) ConvertInternalItems(ctx context.Context, actor *models.User, id string) (*ConversionResult, error) {
	if !auth.Can(actor, auth.ActionManageQuotations) {
		return nil, NewPermissionError("not allowed to manage quotations")
	}

	var result *ConversionResult
	err := s.manager.WithTransaction(ctx, func(repos repositories.Repositories) error {
		quotation, err := repos.Quotations().GetByID(ctx, id)
		if err != nil {
			return WrapRepositoryError("failed to get quotation", err)
		}

		if quotation.Status != models.QuotationStatusAccepted {
			return NewValidationError("only accepted quotations can be converted (current: %s)",
				quotation.Status.DisplayLabel())
		}

		indexes := quotation.UnconvertedItems(false)
		if len(indexes) == 0 {
			return NewValidationError("quotation has no unconverted internal items")
		}

		orderItems := make([]models.OrderItem, 0, len(indexes))
		for _, idx := range indexes {
			item := quotation.Items[idx]
			if item.ProductID == nil {
				return NewValidationError("internal item %q has no catalog product", item.ProductName)
			}

			if err := repos.Products().AdjustStock(ctx, *item.ProductID, -item.Quantity); err != nil {
				if repositories.IsInsufficientStock(err) {
					return NewConflictError("insufficient stock for %s", item.ProductName)
				}
				return WrapRepositoryError("failed to reserve stock", err)
			}

			orderItems = append(orderItems, models.OrderItem{
				ProductID:    *item.ProductID,
				Name:         item.ProductName,
				SKU:          item.ProductSKU,
				Quantity:     item.Quantity,
				PricePerUnit: item.Price,
				TotalPrice:   models.RoundToTwoDecimals(item.Price * float64(item.Quantity)),
			})
		}

		order := models.NewOrder(quotation.SalespersonID, orderItems)
		order.CustomerName = quotation.CustomerName
		order.CustomerPhone = quotation.CustomerContactNumber
		order.RecalculateTotals()

		if err := repos.Orders().Create(ctx, order); err != nil {
			return WrapRepositoryError("failed to create order", err)
		}

		for _, idx := range indexes {
			quotation.Items[idx].Converted = true
		}
		if quotation.AllItemsConverted() {
			quotation.Status = models.QuotationStatusConverted
		}
		quotation.UpdateTimestamp()

		if err := repos.Quotations().Update(ctx, quotation); err != nil {
			return WrapRepositoryError("failed to update quotation", err)
		}

		result = &ConversionResult{
			Quotation:      quotation,
			Order:          order,
			FullyConverted: quotation.Status == models.QuotationStatusConverted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ConvertExternalItems creates one demand notice per unconverted external
// item of an accepted quotation. A repeated call converts nothing twice:
// items already converted are permanently excluded.
func (s *quotationService) ConvertExternalItems(ctx context.Context, actor *models.User, id string) (*ConversionResult, error) {
	if !auth.Can(actor, auth.ActionManageQuotations) {
		return nil, NewPermissionError("not allowed to manage quotations")
	}

	var result *ConversionResult
	err := s.manager.WithTransaction(ctx, func(repos repositories.Repositories) error {
		quotation, err := repos.Quotations().GetByID(ctx, id)
		if err != nil {
			return WrapRepositoryError("failed to get quotation", err)
		}

		if quotation.Status != models.QuotationStatusAccepted {
			return NewValidationError("only accepted quotations can be converted (current: %s)",
				quotation.Status.DisplayLabel())
		}

		indexes := quotation.UnconvertedItems(true)
		if len(indexes) == 0 {
			return NewValidationError("quotation has no unconverted external items")
		}

		notices := make([]*models.DemandNotice, 0, len(indexes))
		for _, idx := range indexes {
			item := quotation.Items[idx]

			sku := item.ProductSKU
			if sku == "" {
				sku = generateSKU(item.ProductName)
			}

			notice := models.NewDemandNotice(item.ProductName, sku, item.Quantity, item.Price,
				quotation.SalespersonID, "")
			notice.IsNewProduct = true
			notice.CustomerContactNumber = quotation.CustomerContactNumber

			if err := repos.DemandNotices().Create(ctx, notice); err != nil {
				return WrapRepositoryError("failed to create demand notice", err)
			}

			notices = append(notices, notice)
			quotation.Items[idx].Converted = true
		}

		if quotation.AllItemsConverted() {
			quotation.Status = models.QuotationStatusConverted
		}
		quotation.UpdateTimestamp()

		if err := repos.Quotations().Update(ctx, quotation); err != nil {
			return WrapRepositoryError("failed to update quotation", err)
		}

		result = &ConversionResult{
			Quotation:      quotation,
			DemandNotices:  notices,
			FullyConverted: quotation.Status == models.QuotationStatusConverted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
