package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retail-ops-api/internal/models"
	"retail-ops-api/internal/services"
)

// SettingsHandler handles commission and tax configuration requests
type SettingsHandler struct {
	settings services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetCommissionSetting handles GET /settings/commission
func (h *SettingsHandler) GetCommissionSetting(c *gin.Context) {
	setting, err := h.settings.GetCommissionSetting(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, setting)
}

// UpdateCommissionSetting handles PUT /settings/commission
func (h *SettingsHandler) UpdateCommissionSetting(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.CommissionSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	setting, err := h.settings.UpdateCommissionSetting(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, setting)
}

// GetTaxSettings handles GET /settings/taxes
func (h *SettingsHandler) GetTaxSettings(c *gin.Context) {
	taxes, err := h.settings.GetTaxSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"taxes": taxes})
}

// UpdateTaxSettingsRequest carries the full replacement tax list
type UpdateTaxSettingsRequest struct {
	Taxes []models.TaxSetting `json:"taxes" binding:"required"`
}

// UpdateTaxSettings handles PUT /settings/taxes
func (h *SettingsHandler) UpdateTaxSettings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req UpdateTaxSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.settings.UpdateTaxSettings(c.Request.Context(), actor, req.Taxes); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"taxes": req.Taxes})
}
