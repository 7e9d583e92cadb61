package handler

import (
	"net/http"

	"cafeledger/internal/middleware"
	"cafeledger/internal/service"
	"cafeledger/pkg/pagination"
	"cafeledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api")
	{
		read := middleware.RequireRole(middleware.RoleManager, middleware.RoleAccountant, middleware.RoleCashier)
		inventory.GET("/products", read, h.GetProducts)
		inventory.GET("/raw-items", read, h.GetRawItems)
		inventory.GET("/addons", read, h.GetAddons)
		inventory.POST("/waste", middleware.RequireRole(middleware.RoleManager, middleware.RoleCashier), h.RecordWaste)
	}
}

// GetProducts handles retrieving the paginated product catalogue
// @Summary      Get products
// @Description  Retrieves a paginated list of sellable products
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by product name or SKU"
// @Success      200    {object}  response.Response{data=pagination.Page}
// @Failure      500    {object}  response.Response
// @Router       /api/products [get]
func (h *InventoryHandler) GetProducts(c *gin.Context) {
	p := pagination.Parse(c)

	products, total, err := h.inventoryService.GetProducts(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(products, total, p)))
}

// GetRawItems lists the raw materials recipes are costed from
// @Summary      Get raw items
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200    {object}  response.Response{data=[]model.RawItem}
// @Router       /api/raw-items [get]
func (h *InventoryHandler) GetRawItems(c *gin.Context) {
	items, err := h.inventoryService.GetRawItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetAddons lists order modifiers with their raw-item link
// @Summary      Get addons
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200    {object}  response.Response{data=[]model.ProductAddon}
// @Router       /api/addons [get]
func (h *InventoryHandler) GetAddons(c *gin.Context) {
	addons, err := h.inventoryService.GetAddons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, addons))
}

// RecordWaste stores a waste stock movement for a branch
// @Summary      Record waste
// @Description  Stores a waste movement; it is priced at the raw item's current cost when reported
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RecordWasteRequest  true  "Waste Payload"
// @Success      201      {object}  response.Response{data=model.StockMovement}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/waste [post]
func (h *InventoryHandler) RecordWaste(c *gin.Context) {
	var req service.RecordWasteRequest
	if !bindJSON(c, &req) {
		return
	}

	movement, err := h.inventoryService.RecordWaste(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}
