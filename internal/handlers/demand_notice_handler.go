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

// DemandNoticeHandler handles backorder request HTTP requests
type DemandNoticeHandler struct {
	notices services.DemandNoticeService
}

// NewDemandNoticeHandler creates a new demand notice handler
func NewDemandNoticeHandler(notices services.DemandNoticeService) *DemandNoticeHandler {
	return &DemandNoticeHandler{notices: notices}
}

// Create handles POST /demand-notices
func (h *DemandNoticeHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateDemandNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	notice, err := h.notices.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, notice)
}

// Get handles GET /demand-notices/:id
func (h *DemandNoticeHandler) Get(c *gin.Context) {
	notice, err := h.notices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notice)
}

// List handles GET /demand-notices with optional status, salesperson_id,
// created_after, created_before, limit and offset parameters
func (h *DemandNoticeHandler) List(c *gin.Context) {
	filters := &services.DemandNoticeFilters{}

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.DemandNoticeStatus(strings.TrimSpace(s))
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Error:   "Invalid query parameter",
					Message: "unknown demand notice status: " + string(status),
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

	notices, err := h.notices.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"demand_notices": notices,
		"count":          len(notices),
		"limit":          filters.Limit,
		"offset":         filters.Offset,
	})
}

// RecordAdvancePayment handles POST /demand-notices/:id/advance-payments
func (h *DemandNoticeHandler) RecordAdvancePayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	notice, err := h.notices.RecordAdvancePayment(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notice)
}

// UpdateStatus handles PATCH /demand-notices/:id/status
func (h *DemandNoticeHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	notice, err := h.notices.UpdateStatus(c.Request.Context(), actor, c.Param("id"), models.DemandNoticeStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notice)
}

// PrepareOrder handles POST /demand-notices/:id/prepare-order
func (h *DemandNoticeHandler) PrepareOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.PrepareOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.notices.PrepareOrder(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}
