package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cafeledger/internal/events"
	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"

	"github.com/google/uuid"
)

// DTOs
type CreateRecipeRequest struct {
	ProductID   string            `json:"product_id" binding:"required"`
	NameAr      string            `json:"name_ar" binding:"required"`
	NameEn      string            `json:"name_en"`
	Ingredients []IngredientInput `json:"ingredients" binding:"required,min=1,dive"`
}

type CalculateRecipeRequest struct {
	Ingredients []IngredientInput `json:"ingredients" binding:"required,min=1,dive"`
}

type RecipeService interface {
	CalculateRecipeCost(ctx context.Context, ingredients []IngredientInput) (RecipeCostResult, error)
	// CreateRecipe stores the next version for the product and makes it active.
	CreateRecipe(ctx context.Context, userID string, req CreateRecipeRequest) (*model.Recipe, error)
	GetActiveRecipe(ctx context.Context, productID string) (*model.Recipe, error)
	ActivateRecipeVersion(ctx context.Context, userID, productID string, version int) (*model.Recipe, error)
	ListRecipeVersions(ctx context.Context, productID string) ([]model.Recipe, error)
}

type recipeService struct {
	productRepo repository.ProductRepository
	recipeRepo  repository.RecipeRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	publisher   events.Publisher
	calc        costCalculator
	maxRetries  int
}

func NewRecipeService(
	productRepo repository.ProductRepository,
	rawItemRepo repository.RawItemRepository,
	recipeRepo repository.RecipeRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	maxRetries int,
) RecipeService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &recipeService{
		productRepo: productRepo,
		recipeRepo:  recipeRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		publisher:   publisher,
		calc:        costCalculator{rawItems: rawItemRepo},
		maxRetries:  maxRetries,
	}
}

func (s *recipeService) CalculateRecipeCost(ctx context.Context, ingredients []IngredientInput) (RecipeCostResult, error) {
	return s.calc.calculate(ctx, ingredients)
}

func (s *recipeService) CreateRecipe(ctx context.Context, userID string, req CreateRecipeRequest) (*model.Recipe, error) {
	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if len(req.Ingredients) == 0 {
		return nil, apperror.NewValidationError(apperror.ReasonRecipeValidation, []apperror.FieldError{
			{Field: "ingredients", Code: apperror.CodeRequired, Message: "at least one ingredient is required"},
		})
	}

	cost, err := s.calc.calculate(ctx, req.Ingredients)
	if err != nil {
		return nil, err
	}
	if !cost.Success {
		return nil, apperror.NewValidationError(apperror.ReasonRecipeValidation, cost.Errors)
	}

	var created *model.Recipe
	err = repository.RetryOnConflict(ctx, s.maxRetries, func() error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			latest, err := s.recipeRepo.MaxVersion(txCtx, product.ID)
			if err != nil {
				return fmt.Errorf("failed to read latest recipe version: %w", err)
			}

			recipe := buildRecipe(product.ID, latest+1, req, cost, parseOptionalUserID(userID))
			if err := s.recipeRepo.Create(txCtx, recipe); err != nil {
				return fmt.Errorf("failed to create recipe version: %w", err)
			}

			if err := s.recipeRepo.SetActivation(txCtx, &model.RecipeActivation{
				ProductID:   product.ID,
				RecipeID:    recipe.ID,
				Version:     recipe.Version,
				ActivatedBy: recipe.CreatedBy,
				ActivatedAt: time.Now().UTC(),
			}); err != nil {
				return fmt.Errorf("failed to activate recipe version: %w", err)
			}

			details := map[string]interface{}{
				"product_id": product.ID.String(),
				"version":    recipe.Version,
				"total_cost": recipe.TotalCost.StringFixed(2),
			}
			if err := writeAuditLog(txCtx, s.auditRepo, userID, model.ActionCreateRecipeVersion, recipe.ID.String(), recipe.NameAr, details); err != nil {
				return err
			}

			recipe.IsActive = true
			created = recipe
			return nil
		})
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperror.NewIntegrityError(apperror.ReasonRecipeVersionClash,
			fmt.Sprintf("recipe for product %s was changed concurrently, retry the request", product.ID))
	}
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Info(events.RecipeVersionCreated, "recipe version created", map[string]any{
		"product_id": product.ID.String(),
		"recipe_id":  created.ID.String(),
		"version":    created.Version,
		"total_cost": created.TotalCost.StringFixed(2),
	}))
	return created, nil
}

func buildRecipe(productID uuid.UUID, version int, req CreateRecipeRequest, cost RecipeCostResult, createdBy *uuid.UUID) *model.Recipe {
	recipe := &model.Recipe{
		ProductID: productID,
		Version:   version,
		NameAr:    req.NameAr,
		NameEn:    req.NameEn,
		TotalCost: cost.TotalCost,
		CreatedBy: createdBy,
	}
	// A successful calculation prices every input line, in order.
	for i, line := range cost.Ingredients {
		rawID, _ := uuid.Parse(line.RawItemID)
		recipe.Ingredients = append(recipe.Ingredients, model.RecipeIngredient{
			RawItemID: rawID,
			Quantity:  req.Ingredients[i].Quantity,
			Unit:      req.Ingredients[i].Unit,
			UnitCost:  line.UnitCost,
			LineCost:  line.LineCost,
		})
	}
	return recipe
}

func (s *recipeService) GetActiveRecipe(ctx context.Context, productID string) (*model.Recipe, error) {
	id, err := parseID("product_id", productID)
	if err != nil {
		return nil, err
	}
	recipe, err := s.recipeRepo.FindActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load active recipe: %w", err)
	}
	return recipe, nil
}

func (s *recipeService) ActivateRecipeVersion(ctx context.Context, userID, productID string, version int) (*model.Recipe, error) {
	id, err := parseID("product_id", productID)
	if err != nil {
		return nil, err
	}

	var activated *model.Recipe
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		recipe, err := s.recipeRepo.FindByVersion(txCtx, id, version)
		if repository.IsNotFound(err) {
			return apperror.NewNotFoundError(apperror.ReasonRecipeNotFound, fmt.Sprintf("recipe version %d", version))
		}
		if err != nil {
			return fmt.Errorf("failed to load recipe version: %w", err)
		}

		if err := s.recipeRepo.SetActivation(txCtx, &model.RecipeActivation{
			ProductID:   id,
			RecipeID:    recipe.ID,
			Version:     recipe.Version,
			ActivatedBy: parseOptionalUserID(userID),
			ActivatedAt: time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("failed to activate recipe version: %w", err)
		}

		details := map[string]interface{}{"product_id": productID, "version": version}
		if err := writeAuditLog(txCtx, s.auditRepo, userID, model.ActionActivateRecipeVersion, recipe.ID.String(), recipe.NameAr, details); err != nil {
			return err
		}

		recipe.IsActive = true
		activated = recipe
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Info(events.RecipeVersionActivate, "recipe version activated", map[string]any{
		"product_id": productID,
		"recipe_id":  activated.ID.String(),
		"version":    version,
	}))
	return activated, nil
}

func (s *recipeService) ListRecipeVersions(ctx context.Context, productID string) ([]model.Recipe, error) {
	id, err := parseID("product_id", productID)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipeRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe versions: %w", err)
	}
	activation, err := s.recipeRepo.GetActivation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe activation: %w", err)
	}
	if activation != nil {
		for i := range recipes {
			recipes[i].IsActive = recipes[i].ID == activation.RecipeID
		}
	}
	return recipes, nil
}

func (s *recipeService) findProduct(ctx context.Context, rawID string) (*model.Product, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperror.NewNotFoundError(apperror.ReasonProductNotFound, "product")
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apperror.NewNotFoundError(apperror.ReasonProductNotFound, "product")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}
