package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"retail-ops-api/internal/models"
	"retail-ops-api/internal/services"
)

// QuotationHandler handles quotation lifecycle HTTP requests
type QuotationHandler struct {
	quotations services.QuotationService
}

// NewQuotationHandler creates a new quotation handler
func NewQuotationHandler(quotations services.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotations: quotations}
}

// Create handles POST /quotations
func (h *QuotationHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CreateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quotation, err := h.quotations.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quotation)
}

// Get handles GET /quotations/:id
func (h *QuotationHandler) Get(c *gin.Context) {
	quotation, err := h.quotations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quotation)
}

// List handles GET /quotations with optional status, salesperson_id,
// limit and offset parameters
func (h *QuotationHandler) List(c *gin.Context) {
	filters := &services.QuotationFilters{}

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.QuotationStatus(strings.TrimSpace(s))
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, ErrorResponse{
					Error:   "Invalid query parameter",
					Message: "unknown quotation status: " + string(status),
				})
				return
			}
			filters.Statuses = append(filters.Statuses, status)
		}
	}
	if salespersonID := c.Query("salesperson_id"); salespersonID != "" {
		filters.SalespersonID = &salespersonID
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	quotations, err := h.quotations.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quotations": quotations,
		"count":      len(quotations),
		"limit":      filters.Limit,
		"offset":     filters.Offset,
	})
}

// Update handles PUT /quotations/:id
func (h *QuotationHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.UpdateQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quotation, err := h.quotations.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quotation)
}

// UpdateStatus handles PATCH /quotations/:id/status
func (h *QuotationHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	quotation, err := h.quotations.UpdateStatus(c.Request.Context(), actor, c.Param("id"), models.QuotationStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quotation)
}

// ConvertInternalItems handles POST /quotations/:id/convert-internal
func (h *QuotationHandler) ConvertInternalItems(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	result, err := h.quotations.ConvertInternalItems(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ConvertExternalItems handles POST /quotations/:id/convert-external
func (h *QuotationHandler) ConvertExternalItems(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	result, err := h.quotations.ConvertExternalItems(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
