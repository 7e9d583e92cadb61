package handler

import (
	"net/http"
	"strconv"
	"time"

	"cafeledger/internal/middleware"
	"cafeledger/internal/repository"
	"cafeledger/internal/service"
	"cafeledger/pkg/response"

	"github.com/gin-gonic/gin"
)

const defaultRankingLimit = 10

type AccountingHandler struct {
	accountingService service.AccountingService
}

func NewAccountingHandler(accountingService service.AccountingService) *AccountingHandler {
	return &AccountingHandler{accountingService: accountingService}
}

type SaveSnapshotRequest struct {
	TenantID string `json:"tenant_id"`
	BranchID string `json:"branch_id" binding:"required"`
	Date     string `json:"date"` // YYYY-MM-DD, defaults to today
}

func (h *AccountingHandler) RegisterRoutes(router *gin.RouterGroup) {
	accounting := router.Group("/api/accounting")
	accounting.Use(middleware.RequireRole(middleware.RoleManager, middleware.RoleAccountant))
	{
		accounting.GET("/daily", h.GetDailySnapshot)
		accounting.POST("/snapshots", h.SaveDailySnapshot)
		accounting.GET("/snapshots", h.GetSnapshots)
		accounting.PUT("/snapshots/:id/approve", middleware.RequireRole(middleware.RoleManager), h.ApproveSnapshot)
		accounting.GET("/profit/items", h.GetProfitPerDrink)
		accounting.GET("/profit/categories", h.GetProfitPerCategory)
		accounting.GET("/profit/top", h.GetTopProfitableItems)
		accounting.GET("/profit/worst", h.GetWorstItems)
		accounting.GET("/waste", h.GetWasteReport)
	}
}

// GetDailySnapshot computes the accounting snapshot of one branch day without saving it
// @Summary      Daily accounting snapshot
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        date       query     string  false  "Day (YYYY-MM-DD, default today)"
// @Param        tenant_id  query     string  false  "Tenant"
// @Param        branch_id  query     string  false  "Branch (empty for all)"
// @Success      200        {object}  response.Response{data=model.AccountingSnapshot}
// @Router       /api/accounting/daily [get]
func (h *AccountingHandler) GetDailySnapshot(c *gin.Context) {
	date, ok := parseDate(c, "date", time.Now(), h.accountingService.Location())
	if !ok {
		return
	}

	snap, err := h.accountingService.GetDailySnapshot(c.Request.Context(), c.Query("tenant_id"), c.Query("branch_id"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, snap))
}

// SaveDailySnapshot computes and stores the snapshot of one branch day
// @Summary      Save daily snapshot
// @Description  Overwrites an unapproved snapshot of the same day; approved snapshots are refused
// @Tags         accounting
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      SaveSnapshotRequest  true  "Snapshot key"
// @Success      201      {object}  response.Response{data=model.AccountingSnapshot}
// @Failure      409      {object}  response.Response
// @Router       /api/accounting/snapshots [post]
func (h *AccountingHandler) SaveDailySnapshot(c *gin.Context) {
	var req SaveSnapshotRequest
	if !bindJSON(c, &req) {
		return
	}

	date := time.Now()
	if req.Date != "" {
		d, err := time.ParseInLocation(dateLayout, req.Date, h.accountingService.Location())
		if err != nil {
			badQuery(c, "date", "expected YYYY-MM-DD")
			return
		}
		date = d
	}

	snap, err := h.accountingService.SaveDailySnapshot(c.Request.Context(), middleware.CurrentUserID(c), req.TenantID, req.BranchID, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, snap))
}

// GetSnapshots lists stored snapshots, newest first
// @Summary      List snapshots
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        from       query     string  false  "First day (YYYY-MM-DD)"
// @Param        to         query     string  false  "Last day (YYYY-MM-DD)"
// @Param        tenant_id  query     string  false  "Tenant"
// @Param        branch_id  query     string  false  "Branch"
// @Success      200        {object}  response.Response{data=[]model.AccountingSnapshot}
// @Router       /api/accounting/snapshots [get]
func (h *AccountingHandler) GetSnapshots(c *gin.Context) {
	from, ok := parseDate(c, "from", time.Time{}, time.UTC)
	if !ok {
		return
	}
	to, ok := parseDate(c, "to", time.Time{}, time.UTC)
	if !ok {
		return
	}

	snapshots, err := h.accountingService.GetSnapshots(c.Request.Context(), repository.SnapshotQuery{
		TenantID: c.Query("tenant_id"),
		BranchID: c.Query("branch_id"),
		From:     from,
		To:       to,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, snapshots))
}

// ApproveSnapshot freezes a stored snapshot
// @Summary      Approve snapshot
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Snapshot ID"
// @Success      200  {object}  response.Response{data=model.AccountingSnapshot}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/accounting/snapshots/{id}/approve [put]
func (h *AccountingHandler) ApproveSnapshot(c *gin.Context) {
	snap, err := h.accountingService.ApproveSnapshot(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, snap))
}

// GetProfitPerDrink aggregates revenue, cost and margin per product
// @Summary      Profit per drink
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        from       query     string  false  "First day (YYYY-MM-DD, default today)"
// @Param        to         query     string  false  "Last day (YYYY-MM-DD, default from)"
// @Param        branch_id  query     string  false  "Branch"
// @Success      200        {object}  response.Response{data=[]model.ItemProfit}
// @Router       /api/accounting/profit/items [get]
func (h *AccountingHandler) GetProfitPerDrink(c *gin.Context) {
	q, ok := reportQuery(c, h.accountingService)
	if !ok {
		return
	}
	items, err := h.accountingService.GetProfitPerDrink(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetProfitPerCategory aggregates profit per product category
// @Summary      Profit per category
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        from       query     string  false  "First day (YYYY-MM-DD)"
// @Param        to         query     string  false  "Last day (YYYY-MM-DD)"
// @Param        branch_id  query     string  false  "Branch"
// @Success      200        {object}  response.Response{data=[]model.CategoryProfit}
// @Router       /api/accounting/profit/categories [get]
func (h *AccountingHandler) GetProfitPerCategory(c *gin.Context) {
	q, ok := reportQuery(c, h.accountingService)
	if !ok {
		return
	}
	cats, err := h.accountingService.GetProfitPerCategory(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cats))
}

// GetTopProfitableItems ranks products by profit
// @Summary      Top profitable items
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        from   query     string  false  "First day (YYYY-MM-DD)"
// @Param        to     query     string  false  "Last day (YYYY-MM-DD)"
// @Param        limit  query     int     false  "Max items (default 10)"
// @Success      200    {object}  response.Response{data=[]model.ItemProfit}
// @Router       /api/accounting/profit/top [get]
func (h *AccountingHandler) GetTopProfitableItems(c *gin.Context) {
	q, ok := reportQuery(c, h.accountingService)
	if !ok {
		return
	}
	items, err := h.accountingService.GetTopProfitableItems(c.Request.Context(), q, rankingLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetWorstItems lists loss-making, low-margin and low-volume products
// @Summary      Worst items
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        from   query     string  false  "First day (YYYY-MM-DD)"
// @Param        to     query     string  false  "Last day (YYYY-MM-DD)"
// @Param        limit  query     int     false  "Max items (default 10)"
// @Success      200    {object}  response.Response{data=[]model.WorstItem}
// @Router       /api/accounting/profit/worst [get]
func (h *AccountingHandler) GetWorstItems(c *gin.Context) {
	q, ok := reportQuery(c, h.accountingService)
	if !ok {
		return
	}
	items, err := h.accountingService.GetWorstItems(c.Request.Context(), q, rankingLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetWasteReport prices waste movements at current raw-item cost
// @Summary      Waste report
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        from       query     string  false  "First day (YYYY-MM-DD)"
// @Param        to         query     string  false  "Last day (YYYY-MM-DD)"
// @Param        branch_id  query     string  false  "Branch"
// @Success      200        {object}  response.Response{data=[]model.WasteLine}
// @Router       /api/accounting/waste [get]
func (h *AccountingHandler) GetWasteReport(c *gin.Context) {
	q, ok := reportQuery(c, h.accountingService)
	if !ok {
		return
	}
	lines, err := h.accountingService.GetWasteReport(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, lines))
}

func rankingLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRankingLimit)))
	if err != nil || limit < 1 {
		return defaultRankingLimit
	}
	return limit
}
