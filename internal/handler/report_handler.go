package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"cafeledger/internal/middleware"
	"cafeledger/internal/service"
	"cafeledger/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	csvContentType  = "text/csv; charset=utf-8"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ReportHandler struct {
	exporter   service.ReportExporter
	accounting service.AccountingService
}

func NewReportHandler(exporter service.ReportExporter, accounting service.AccountingService) *ReportHandler {
	return &ReportHandler{exporter: exporter, accounting: accounting}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	reports.Use(middleware.RequireRole(middleware.RoleManager, middleware.RoleAccountant))
	{
		reports.GET("/orders.csv", h.ExportOrdersCSV)
		reports.GET("/inventory.csv", h.ExportInventoryCSV)
		reports.GET("/profit.csv", h.ExportProfitCSV)
		reports.GET("/profit.xlsx", h.ExportProfitXLSX)
		reports.GET("/summary", h.DailySummary)
	}
}

// ExportOrdersCSV downloads the orders of a period
// @Summary      Export orders (CSV)
// @Tags         reports
// @Security     BearerAuth
// @Produce      text/csv
// @Param        from       query  string  false  "First day (YYYY-MM-DD)"
// @Param        to         query  string  false  "Last day (YYYY-MM-DD)"
// @Param        branch_id  query  string  false  "Branch"
// @Success      200
// @Router       /api/reports/orders.csv [get]
func (h *ReportHandler) ExportOrdersCSV(c *gin.Context) {
	q, ok := reportQuery(c, h.accounting)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.exporter.ExportOrdersCSV(c.Request.Context(), &buf, q); err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, csvContentType, "orders-"+periodSuffix(q)+".csv", buf.Bytes())
}

// ExportInventoryCSV downloads the raw-item cost list
// @Summary      Export inventory (CSV)
// @Tags         reports
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200
// @Router       /api/reports/inventory.csv [get]
func (h *ReportHandler) ExportInventoryCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exporter.ExportInventoryCSV(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, csvContentType, "inventory.csv", buf.Bytes())
}

// ExportProfitCSV downloads profit per drink
// @Summary      Export profit (CSV)
// @Tags         reports
// @Security     BearerAuth
// @Produce      text/csv
// @Param        from  query  string  false  "First day (YYYY-MM-DD)"
// @Param        to    query  string  false  "Last day (YYYY-MM-DD)"
// @Success      200
// @Router       /api/reports/profit.csv [get]
func (h *ReportHandler) ExportProfitCSV(c *gin.Context) {
	q, ok := reportQuery(c, h.accounting)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.exporter.ExportProfitCSV(c.Request.Context(), &buf, q); err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, csvContentType, "profit-"+periodSuffix(q)+".csv", buf.Bytes())
}

// ExportProfitXLSX downloads profit per drink as a workbook
// @Summary      Export profit (XLSX)
// @Tags         reports
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from  query  string  false  "First day (YYYY-MM-DD)"
// @Param        to    query  string  false  "Last day (YYYY-MM-DD)"
// @Success      200
// @Router       /api/reports/profit.xlsx [get]
func (h *ReportHandler) ExportProfitXLSX(c *gin.Context) {
	q, ok := reportQuery(c, h.accounting)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.exporter.ExportProfitXLSX(c.Request.Context(), &buf, q); err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, xlsxContentType, "profit-"+periodSuffix(q)+".xlsx", buf.Bytes())
}

// DailySummary renders a plain-text summary of one branch day
// @Summary      Daily summary
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        date       query     string  false  "Day (YYYY-MM-DD, default today)"
// @Param        branch_id  query     string  false  "Branch"
// @Success      200        {object}  response.Response{data=string}
// @Router       /api/reports/summary [get]
func (h *ReportHandler) DailySummary(c *gin.Context) {
	date, ok := parseDate(c, "date", time.Now(), h.accounting.Location())
	if !ok {
		return
	}
	text, err := h.exporter.DailySummary(c.Request.Context(), c.Query("tenant_id"), c.Query("branch_id"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, text))
}

// sendFile writes a fully rendered export so failures never produce half a file.
func sendFile(c *gin.Context, contentType, name string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, body)
}

func periodSuffix(q service.ReportQuery) string {
	from := q.From.Format(dateLayout)
	to := q.To.Format(dateLayout)
	if from == to {
		return from
	}
	return from + "_" + to
}
