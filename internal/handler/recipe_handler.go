package handler

import (
	"net/http"
	"strconv"

	"cafeledger/internal/middleware"
	"cafeledger/internal/service"
	"cafeledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type RecipeHandler struct {
	recipeService service.RecipeService
}

func NewRecipeHandler(recipeService service.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	read := middleware.RequireRole(middleware.RoleManager, middleware.RoleAccountant)
	write := middleware.RequireRole(middleware.RoleManager)
	{
		api.POST("/recipes/calculate", read, h.CalculateRecipeCost)
		api.POST("/recipes", write, h.CreateRecipe)
		api.GET("/products/:id/recipe", read, h.GetActiveRecipe)
		api.GET("/products/:id/recipes", read, h.ListRecipeVersions)
		api.PUT("/products/:id/recipes/:version/activate", write, h.ActivateRecipeVersion)
	}
}

// CalculateRecipeCost prices an ingredient list at current raw-item costs
// @Summary      Calculate recipe cost
// @Description  Returns the total cost and per-ingredient breakdown; every failing ingredient is reported
// @Tags         recipes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CalculateRecipeRequest  true  "Ingredients"
// @Success      200      {object}  response.Response{data=service.RecipeCostResult}
// @Failure      400      {object}  response.Response
// @Router       /api/recipes/calculate [post]
func (h *RecipeHandler) CalculateRecipeCost(c *gin.Context) {
	var req service.CalculateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.recipeService.CalculateRecipeCost(c.Request.Context(), req.Ingredients)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CreateRecipe stores the next recipe version for a product and activates it
// @Summary      Create recipe version
// @Tags         recipes
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRecipeRequest  true  "Recipe Payload"
// @Success      201      {object}  response.Response{data=model.Recipe}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/recipes [post]
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req service.CreateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, recipe))
}

// GetActiveRecipe returns the product's active recipe version
// @Summary      Get active recipe
// @Tags         recipes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Recipe}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id}/recipe [get]
func (h *RecipeHandler) GetActiveRecipe(c *gin.Context) {
	recipe, err := h.recipeService.GetActiveRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if recipe == nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Product has no active recipe"))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, recipe))
}

// ListRecipeVersions returns every stored version, newest first
// @Summary      List recipe versions
// @Tags         recipes
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=[]model.Recipe}
// @Router       /api/products/{id}/recipes [get]
func (h *RecipeHandler) ListRecipeVersions(c *gin.Context) {
	recipes, err := h.recipeService.ListRecipeVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, recipes))
}

// ActivateRecipeVersion points the product at an existing recipe version
// @Summary      Activate recipe version
// @Tags         recipes
// @Security     BearerAuth
// @Produce      json
// @Param        id       path      string  true  "Product ID"
// @Param        version  path      int     true  "Recipe version"
// @Success      200      {object}  response.Response{data=model.Recipe}
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id}/recipes/{version}/activate [put]
func (h *RecipeHandler) ActivateRecipeVersion(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		badQuery(c, "version", "version must be a positive integer")
		return
	}

	recipe, err := h.recipeService.ActivateRecipeVersion(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), version)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, recipe))
}
