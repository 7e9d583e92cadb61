package handler

import (
	"net/http"

	"cafeledger/internal/middleware"
	"cafeledger/internal/service"
	"cafeledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	taxService service.TaxService
}

func NewTaxHandler(taxService service.TaxService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	tax := router.Group("/api/tax-rules")
	tax.Use(middleware.RequireRole(middleware.RoleManager, middleware.RoleAccountant))
	{
		tax.GET("", h.GetTaxRules)
		tax.GET("/active", h.GetActiveTaxRate)
		tax.POST("", middleware.RequireRole(middleware.RoleAccountant), h.CreateTaxRule)
	}
}

// GetTaxRules returns all tax rules ordered by effective_from DESC
// @Summary      List tax rules
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.TaxRuleResponse}
// @Router       /api/tax-rules [get]
func (h *TaxHandler) GetTaxRules(c *gin.Context) {
	rules, err := h.taxService.GetTaxRules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rules))
}

// GetActiveTaxRate returns the rate invoices issued now would use
// @Summary      Active tax rate
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Param        tax_type  query     string  false  "Tax type (default VAT)"
// @Success      200       {object}  response.Response{data=service.ActiveTaxRateResponse}
// @Router       /api/tax-rules/active [get]
func (h *TaxHandler) GetActiveTaxRate(c *gin.Context) {
	rate, err := h.taxService.GetActiveTaxRate(c.Request.Context(), c.DefaultQuery("tax_type", "VAT"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}

// CreateTaxRule creates a new tax rule entry
// @Summary      Create tax rule
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTaxRuleRequest  true  "Tax Rule Payload"
// @Success      201      {object}  response.Response{data=service.TaxRuleResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/tax-rules [post]
func (h *TaxHandler) CreateTaxRule(c *gin.Context) {
	var req service.CreateTaxRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.taxService.CreateTaxRule(c.Request.Context(), req, middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}
