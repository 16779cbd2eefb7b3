package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"retail-ops-api/internal/services"
)

// ProductHandler handles product catalog HTTP requests
type ProductHandler struct {
	catalog services.CatalogService
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// ListProducts handles GET /products with optional category, low_stock,
// query, limit and offset parameters
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filters := &services.ProductFilters{}

	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}
	if raw := c.Query("low_stock"); raw != "" {
		lowStock, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid query parameter",
				Message: "low_stock must be true or false",
			})
			return
		}
		filters.LowStock = &lowStock
	}
	if query := c.Query("query"); query != "" {
		filters.Query = &query
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	products, err := h.catalog.ListProducts(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"limit":    filters.Limit,
		"offset":   filters.Offset,
	})
}

// ReceiveStockRequest is the body for a stock receipt
type ReceiveStockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ReceiveStock handles POST /products/:id/receive-stock
func (h *ProductHandler) ReceiveStock(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := h.catalog.ReceiveStock(c.Request.Context(), actor, c.Param("id"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}
