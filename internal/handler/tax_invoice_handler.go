package handler

import (
	"net/http"
	"time"

	"cafeledger/internal/middleware"
	"cafeledger/internal/service"
	"cafeledger/pkg/pagination"
	"cafeledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxInvoiceHandler struct {
	invoiceService service.TaxInvoiceService
	revenueService service.RevenueService
	limiter        *middleware.RateLimiter
}

func NewTaxInvoiceHandler(invoiceService service.TaxInvoiceService, revenueService service.RevenueService, limiter *middleware.RateLimiter) *TaxInvoiceHandler {
	return &TaxInvoiceHandler{
		invoiceService: invoiceService,
		revenueService: revenueService,
		limiter:        limiter,
	}
}

func (h *TaxInvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	read := middleware.RequireRole(middleware.RoleManager, middleware.RoleAccountant, middleware.RoleCashier)
	audit := middleware.RequireRole(middleware.RoleManager, middleware.RoleAccountant)
	{
		issue := []gin.HandlerFunc{middleware.RequireRole(middleware.RoleManager, middleware.RoleCashier)}
		if h.limiter != nil {
			issue = append(issue, h.limiter.Middleware())
		}
		invoices.POST("", append(issue, h.IssueInvoice)...)
		invoices.GET("", read, h.ListInvoices)
		// static paths before :id
		invoices.GET("/verify", audit, h.VerifyChain)
		invoices.GET("/vat-summary", audit, h.GetVATSummary)
		invoices.GET("/:id", read, h.GetInvoice)
	}
}

// IssueInvoice issues the next invoice of the hash chain
// @Summary      Issue tax invoice
// @Description  Computes line taxes, links the invoice to the previous hash and stores QR and XML
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.IssueInvoiceRequest  true  "Invoice Payload"
// @Success      201      {object}  response.Response{data=model.TaxInvoice}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /api/invoices [post]
func (h *TaxInvoiceHandler) IssueInvoice(c *gin.Context) {
	var req service.IssueInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.invoiceService.IssueInvoice(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, inv))
}

// ListInvoices returns issued invoices, newest first
// @Summary      List tax invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Page}
// @Router       /api/invoices [get]
func (h *TaxInvoiceHandler) ListInvoices(c *gin.Context) {
	p := pagination.Parse(c)

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), service.InvoiceFilter{Page: p.Page, Limit: p.Limit})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(invoices, total, p)))
}

// GetInvoice returns one invoice with its lines, QR payload and XML
// @Summary      Get tax invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.TaxInvoice}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *TaxInvoiceHandler) GetInvoice(c *gin.Context) {
	inv, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, inv))
}

// VerifyChain re-walks the whole chain checking counters and hashes
// @Summary      Verify invoice chain
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.ChainVerification}
// @Router       /api/invoices/verify [get]
func (h *TaxInvoiceHandler) VerifyChain(c *gin.Context) {
	result, err := h.invoiceService.VerifyChain(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetVATSummary aggregates output VAT per period, net of credit notes
// @Summary      VAT summary
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        group_by   query     string  false  "day, week or month (default month)"
// @Param        from       query     string  true   "First day (YYYY-MM-DD)"
// @Param        to         query     string  true   "Last day (YYYY-MM-DD)"
// @Param        branch_id  query     string  false  "Branch"
// @Success      200        {object}  response.Response{data=[]service.VATDataPoint}
// @Failure      422        {object}  response.Response
// @Router       /api/invoices/vat-summary [get]
func (h *TaxInvoiceHandler) GetVATSummary(c *gin.Context) {
	now := time.Now().UTC()
	from, ok := parseDate(c, "from", time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), time.UTC)
	if !ok {
		return
	}
	to, ok := parseDate(c, "to", now, time.UTC)
	if !ok {
		return
	}

	points, err := h.revenueService.GetVATSummary(c.Request.Context(), service.VATSummaryFilter{
		GroupBy:  c.Query("group_by"),
		BranchID: c.Query("branch_id"),
		From:     truncateDay(from),
		To:       truncateDay(to).AddDate(0, 0, 1),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, points))
}

// truncateDay returns UTC midnight; invoice numbers and issue dates use UTC days.
func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
