package service

import (
	"context"
	"fmt"

	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"
	"cafeledger/pkg/units"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type IngredientInput struct {
	RawItemID string          `json:"raw_item_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit" binding:"required"`
}

// RecipeCostResult always carries the lines that could be priced, even when Errors is non-empty.
type RecipeCostResult struct {
	Success     bool                  `json:"success"`
	TotalCost   decimal.Decimal       `json:"total_cost"`
	Ingredients []model.IngredientCost `json:"ingredients"`
	Errors      []apperror.FieldError `json:"errors,omitempty"`
}

// costCalculator prices ingredient lists against current raw item costs.
type costCalculator struct {
	rawItems repository.RawItemRepository
}

func (c costCalculator) calculate(ctx context.Context, ingredients []IngredientInput) (RecipeCostResult, error) {
	ids := make([]uuid.UUID, 0, len(ingredients))
	parsed := make([]uuid.UUID, len(ingredients))
	for i, ing := range ingredients {
		if id, err := uuid.Parse(ing.RawItemID); err == nil {
			parsed[i] = id
			ids = append(ids, id)
		}
	}

	items, err := c.rawItems.FindByIDs(ctx, ids)
	if err != nil {
		return RecipeCostResult{}, fmt.Errorf("failed to load raw items: %w", err)
	}

	res := RecipeCostResult{Ingredients: make([]model.IngredientCost, 0, len(ingredients))}
	total := decimal.Zero
	for i, ing := range ingredients {
		prefix := fmt.Sprintf("ingredients[%d]", i)
		lineOK := true

		raw, found := items[parsed[i]]
		if parsed[i] == uuid.Nil || !found {
			res.Errors = append(res.Errors, apperror.FieldError{
				Field: prefix + ".raw_item_id", Code: apperror.CodeRawItemNotFound,
				Message: fmt.Sprintf("raw item %s not found", ing.RawItemID),
			})
			lineOK = false
		}
		if !ing.Quantity.IsPositive() {
			res.Errors = append(res.Errors, apperror.FieldError{
				Field: prefix + ".quantity", Code: apperror.CodeInvalidQuantity,
				Message: "quantity must be greater than zero",
			})
			lineOK = false
		}
		if !units.IsSupported(ing.Unit) {
			res.Errors = append(res.Errors, apperror.FieldError{
				Field: prefix + ".unit", Code: apperror.CodeUnsupportedUnit,
				Message: fmt.Sprintf("unit %q is not supported", ing.Unit),
			})
			lineOK = false
		}
		if !lineOK {
			continue
		}

		converted, err := units.Convert(ing.Quantity, ing.Unit, raw.Unit)
		if err != nil {
			res.Errors = append(res.Errors, apperror.FieldError{
				Field: prefix + ".unit", Code: apperror.CodeUnsupportedUnit,
				Message: fmt.Sprintf("unit %q cannot be converted to %q used by %s", ing.Unit, raw.Unit, raw.NameAr),
			})
			continue
		}

		line := converted.Mul(raw.UnitCost)
		total = total.Add(line)
		res.Ingredients = append(res.Ingredients, model.IngredientCost{
			RawItemID:         raw.ID.String(),
			NameAr:            raw.NameAr,
			Quantity:          ing.Quantity,
			Unit:              ing.Unit,
			RawItemUnit:       raw.Unit,
			ConvertedQuantity: converted,
			UnitCost:          raw.UnitCost,
			LineCost:          line,
		})
	}

	res.TotalCost = total.Round(2)
	res.Success = len(res.Errors) == 0
	return res, nil
}

func ingredientInputs(lines []model.RecipeIngredient) []IngredientInput {
	out := make([]IngredientInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, IngredientInput{RawItemID: l.RawItemID.String(), Quantity: l.Quantity, Unit: l.Unit})
	}
	return out
}

// storedIngredientCosts rebuilds a breakdown from the costs recorded on the recipe version.
func storedIngredientCosts(lines []model.RecipeIngredient) []model.IngredientCost {
	out := make([]model.IngredientCost, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.IngredientCost{
			RawItemID: l.RawItemID.String(),
			Quantity:  l.Quantity,
			Unit:      l.Unit,
			UnitCost:  l.UnitCost,
			LineCost:  l.LineCost,
		})
	}
	return out
}
