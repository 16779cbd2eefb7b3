package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retail-ops-api/internal/services"
)

// ReportHandler handles shift reconciliation and CSV export requests
type ReportHandler struct {
	shifts  services.ShiftService
	exports services.ExportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(shifts services.ShiftService, exports services.ExportService) *ReportHandler {
	return &ReportHandler{shifts: shifts, exports: exports}
}

// ShiftSummary handles GET /reports/shift with cashier_id, date and
// optional start_time/end_time parameters. Window semantics live in the
// service; the handler only carries the raw strings through.
func (h *ReportHandler) ShiftSummary(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	req := &services.ShiftSummaryRequest{
		CashierID: c.Query("cashier_id"),
		Date:      c.Query("date"),
		StartTime: c.Query("start_time"),
		EndTime:   c.Query("end_time"),
	}

	summary, err := h.shifts.ShiftSummary(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Export handles POST /exports. The CSV content is returned inline and,
// when file storage is configured, persisted under exports/.
func (h *ReportHandler) Export(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.exports.Export(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DownloadExport handles POST /exports/download, answering with the raw
// CSV as an attachment instead of a JSON envelope
func (h *ReportHandler) DownloadExport(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.exports.Export(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, "text/csv", []byte(result.Content))
}
