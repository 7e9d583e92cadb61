package service

import (
	"context"
	"fmt"

	"cafeledger/internal/events"
	"cafeledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SnapshotInput struct {
	ProductID        uuid.UUID
	UnitSellingPrice decimal.Decimal
	Quantity         int
	Modifiers        []ModifierSelection
}

// BuildSnapshot freezes the cost of one order line. It returns nil when the
// product has no active recipe; the caller keeps the line with zero cost.
func (s *costingService) BuildSnapshot(ctx context.Context, in SnapshotInput) (*model.OrderItemCostSnapshot, error) {
	recipe, err := s.recipeRepo.FindActive(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active recipe: %w", err)
	}
	if recipe == nil {
		s.publisher.Publish(ctx, events.Warning(events.RecipeMissing, "product has no active recipe, line costed at zero",
			map[string]any{"product_id": in.ProductID.String()}))
		return nil, nil
	}

	unitRecipeCost, ingredients, err := s.currentRecipeCost(ctx, recipe)
	if err != nil {
		return nil, err
	}

	mods, err := s.CalculateModifiersCost(ctx, in.Modifiers)
	if err != nil {
		return nil, err
	}

	qty := in.Quantity
	if qty <= 0 {
		qty = 1
	}
	q := decimal.NewFromInt(int64(qty))

	unitRecipe := unitRecipeCost.Round(2)
	unitMods := mods.TotalCost.Round(2)
	unitTotal := unitRecipe.Add(unitMods)
	total := unitTotal.Mul(q)
	selling := in.UnitSellingPrice.Mul(q).Round(2)
	profit, margin := calculateProfit(selling, total)

	return &model.OrderItemCostSnapshot{
		ProductID:         in.ProductID,
		RecipeID:          recipe.ID,
		RecipeVersion:     recipe.Version,
		Quantity:          qty,
		UnitRecipeCost:    unitRecipe,
		UnitModifiersCost: unitMods,
		UnitTotalCost:     unitTotal,
		BaseRecipeCost:    unitRecipe.Mul(q),
		ModifiersCost:     unitMods.Mul(q),
		TotalCost:         total,
		UnitSellingPrice:  in.UnitSellingPrice,
		SellingPrice:      selling,
		ProfitAmount:      profit,
		ProfitMargin:      margin,
		Ingredients:       ingredients,
		Modifiers:         mods.Modifiers,
		SnapshotTime:      s.now().UTC(),
	}, nil
}

// currentRecipeCost re-prices the recipe at today's raw item costs and falls
// back to the total stored on the version when a line can no longer be priced.
func (s *costingService) currentRecipeCost(ctx context.Context, recipe *model.Recipe) (decimal.Decimal, []model.IngredientCost, error) {
	res, err := s.calc.calculate(ctx, ingredientInputs(recipe.Ingredients))
	if err != nil {
		return decimal.Zero, nil, err
	}
	if res.Success {
		return res.TotalCost, res.Ingredients, nil
	}

	s.publisher.Publish(ctx, events.Warning(events.RecipeCostFallback, "recipe could not be re-costed, using stored cost",
		map[string]any{
			"recipe_id": recipe.ID.String(),
			"version":   recipe.Version,
			"errors":    res.Errors,
		}))
	return recipe.TotalCost, storedIngredientCosts(recipe.Ingredients), nil
}
