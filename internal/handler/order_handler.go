package handler

import (
	"net/http"

	"cafeledger/internal/middleware"
	"cafeledger/internal/service"
	"cafeledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrderHandler serves cost previews and order intake with frozen cost.
type OrderHandler struct {
	costingService service.CostingService
	orderService   service.OrderService
}

func NewOrderHandler(costingService service.CostingService, orderService service.OrderService) *OrderHandler {
	return &OrderHandler{costingService: costingService, orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	pos := middleware.RequireRole(middleware.RoleManager, middleware.RoleCashier)
	{
		api.POST("/costing/modifiers", pos, h.CalculateModifiersCost)
		api.POST("/costing/orders", pos, h.CalculateOrderCOGS)
		api.POST("/orders", pos, h.CreateOrder)
		api.GET("/orders/:id", middleware.RequireRole(middleware.RoleManager, middleware.RoleAccountant, middleware.RoleCashier), h.GetOrder)
	}
}

// CalculateModifiersCost prices a modifier selection
// @Summary      Calculate modifiers cost
// @Description  Unknown modifiers are skipped and reported as warnings
// @Tags         costing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CalculateModifiersRequest  true  "Modifier selections"
// @Success      200      {object}  response.Response{data=service.ModifiersCostResult}
// @Router       /api/costing/modifiers [post]
func (h *OrderHandler) CalculateModifiersCost(c *gin.Context) {
	var req service.CalculateModifiersRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.costingService.CalculateModifiersCost(c.Request.Context(), req.Modifiers)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, result, result.Warnings))
}

// CalculateOrderCOGS previews the cost of goods of an order without saving it
// @Summary      Preview order COGS
// @Tags         costing
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CalculateOrderCOGSRequest  true  "Order lines"
// @Success      200      {object}  response.Response{data=service.OrderCOGS}
// @Failure      422      {object}  response.Response
// @Router       /api/costing/orders [post]
func (h *OrderHandler) CalculateOrderCOGS(c *gin.Context) {
	var req service.CalculateOrderCOGSRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.costingService.CalculateOrderCOGS(c.Request.Context(), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CreateOrder stores a POS order with each line's cost snapshot
// @Summary      Create order
// @Description  Freezes recipe and modifier cost on every line at creation time
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetOrder returns an order with its items and cost snapshots
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
