package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"retail-ops-api/internal/models"
	"retail-ops-api/internal/services"
)

// OrderHandler handles order lifecycle HTTP requests
type OrderHandler struct {
	orders services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /orders with optional status, salesperson_id,
// created_after, created_before, limit and offset parameters. Multiple
// statuses may be given comma-separated.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filters := &services.OrderFilters{}

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.OrderStatus(strings.TrimSpace(s))
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Error:   "Invalid query parameter",
					Message: "unknown order status: " + string(status),
				})
				return
			}
			filters.Statuses = append(filters.Statuses, status)
		}
	}
	if salespersonID := c.Query("salesperson_id"); salespersonID != "" {
		filters.SalespersonID = &salespersonID
	}
	if raw := c.Query("created_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid query parameter",
				Message: "created_after must be RFC3339",
			})
			return
		}
		filters.CreatedAfter = &t
	}
	if raw := c.Query("created_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid query parameter",
				Message: "created_before must be RFC3339",
			})
			return
		}
		filters.CreatedBefore = &t
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, err := h.orders.ListOrders(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
		"limit":  filters.Limit,
		"offset": filters.Offset,
	})
}

// RecordPayment handles POST /orders/:id/payments
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.orders.RecordPayment(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateStatusRequest carries an explicit order status target
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), actor, c.Param("id"), models.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UpdateDeliveryStatus handles PATCH /orders/:id/delivery-status
func (h *OrderHandler) UpdateDeliveryStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orders.UpdateDeliveryStatus(c.Request.Context(), actor, c.Param("id"), models.DeliveryStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ProcessReturn handles POST /orders/:id/returns
func (h *OrderHandler) ProcessReturn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.ProcessReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.orders.ProcessReturn(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// CommissionReport handles GET /reports/commission with salesperson_id,
// start and end parameters (RFC3339)
func (h *OrderHandler) CommissionReport(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	salespersonID := c.Query("salesperson_id")
	if salespersonID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameter",
			Message: "salesperson_id is required",
		})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameter",
			Message: "start must be RFC3339",
		})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameter",
			Message: "end must be RFC3339",
		})
		return
	}

	report, err := h.orders.EarnedCommission(c.Request.Context(), actor, salespersonID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
