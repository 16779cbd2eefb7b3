package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"retail-ops-api/internal/auth"
	"retail-ops-api/internal/models"
	"retail-ops-api/internal/repositories"
)

// catalogService implements the CatalogService interface
type catalogService struct {
	products  repositories.ProductRepository
	validator *validator.Validate
}

// NewCatalogService creates a new catalog service instance
func NewCatalogService(products repositories.ProductRepository) CatalogService {
	return &catalogService{
		products:  products,
		validator: validator.New(),
	}
}

// CreateProduct creates a new catalog product
func (s *catalogService) CreateProduct(ctx context.Context, actor *models.User, req *CreateProductRequest) (*models.Product, error) {
	if !auth.Can(actor, auth.ActionManageProducts) {
		return nil, NewPermissionError("not allowed to manage products")
	}

	if req == nil {
		return nil, NewValidationError("create product request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid product data: %v", err)
	}

	product := models.NewProduct(strings.TrimSpace(req.SKU), req.Name, req.Category, req.Price, req.QuantityInStock)
	product.LowStockThreshold = req.LowStockThreshold
	product.LowStockPrice = req.LowStockPrice
	product.ExpiryDate = req.ExpiryDate

	if err := product.Validate(); err != nil {
		return nil, NewValidationError("invalid product data: %v", err)
	}

	if err := s.products.Create(ctx, product); err != nil {
		if repositories.IsDuplicate(err) {
			return nil, NewValidationError("a product with SKU %q already exists", product.SKU)
		}
		return nil, WrapRepositoryError("failed to create product", err)
	}

	return product, nil
}

// GetProduct retrieves a product by ID
func (s *catalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, WrapRepositoryError("failed to get product", err)
	}
	return product, nil
}

// UpdateProduct updates an existing product
func (s *catalogService) UpdateProduct(ctx context.Context, actor *models.User, id string, req *UpdateProductRequest) (*models.Product, error) {
	if !auth.Can(actor, auth.ActionManageProducts) {
		return nil, NewPermissionError("not allowed to manage products")
	}

	if req == nil {
		return nil, NewValidationError("update product request cannot be nil")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, NewValidationError("invalid product data: %v", err)
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, WrapRepositoryError("failed to get product", err)
	}

	if req.SKU != nil {
		product.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = req.LowStockThreshold
	}
	if req.LowStockPrice != nil {
		product.LowStockPrice = req.LowStockPrice
	}
	if req.ExpiryDate != nil {
		product.ExpiryDate = req.ExpiryDate
	}
	product.UpdateTimestamp()

	if err := product.Validate(); err != nil {
		return nil, NewValidationError("invalid product data: %v", err)
	}

	if err := s.products.Update(ctx, product); err != nil {
		if repositories.IsDuplicate(err) {
			return nil, NewValidationError("a product with SKU %q already exists", product.SKU)
		}
		return nil, WrapRepositoryError("failed to update product", err)
	}

	return product, nil
}

// DeleteProduct deletes a product from the catalog
func (s *catalogService) DeleteProduct(ctx context.Context, actor *models.User, id string) error {
	if !auth.Can(actor, auth.ActionManageProducts) {
		return NewPermissionError("not allowed to manage products")
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return WrapRepositoryError("failed to delete product", err)
	}
	return nil
}

// ListProducts retrieves products matching the supplied filters
func (s *catalogService) ListProducts(ctx context.Context, filters *ProductFilters) ([]*models.Product, error) {
	repoFilters := repositories.ProductFilters{}
	if filters != nil {
		repoFilters.Category = filters.Category
		repoFilters.LowStock = filters.LowStock
		repoFilters.Query = filters.Query
		repoFilters.Limit = filters.Limit
		repoFilters.Offset = filters.Offset
	}

	products, err := s.products.List(ctx, repoFilters)
	if err != nil {
		return nil, WrapRepositoryError("failed to list products", err)
	}
	return products, nil
}

// ReceiveStock increments a product's stock by the received quantity
func (s *catalogService) ReceiveStock(ctx context.Context, actor *models.User, productID string, quantity int) (*models.Product, error) {
	if !auth.Can(actor, auth.ActionReceiveStock) {
		return nil, NewPermissionError("not allowed to receive stock")
	}

	if quantity < 1 {
		return nil, NewValidationError("received quantity must be at least 1")
	}

	if err := s.products.AdjustStock(ctx, productID, quantity); err != nil {
		return nil, WrapRepositoryError("failed to receive stock", err)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, WrapRepositoryError("failed to get product", err)
	}
	return product, nil
}
