package service

import (
	"context"
	"fmt"

	"cafeledger/internal/events"
	"cafeledger/internal/model"
	"cafeledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ModifiersCostResult struct {
	Success     bool                 `json:"success"`
	TotalCost   decimal.Decimal      `json:"total_cost"`
	PriceImpact decimal.Decimal      `json:"price_impact"`
	Modifiers   []model.ModifierCost `json:"modifiers"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// CalculateModifiersCost prices what the selected modifiers consume. Unknown
// modifiers are skipped and modifiers whose raw item is gone cost nothing; both
// are reported as warnings instead of failing the order.
func (s *costingService) CalculateModifiersCost(ctx context.Context, selections []ModifierSelection) (ModifiersCostResult, error) {
	res := ModifiersCostResult{Modifiers: make([]model.ModifierCost, 0, len(selections))}

	type resolved struct {
		addon *model.ProductAddon
		qty   int
	}
	found := make([]resolved, 0, len(selections))
	rawIDs := make([]uuid.UUID, 0, len(selections))

	for _, sel := range selections {
		addon, err := s.addonRepo.FindByReference(ctx, sel.ModifierID)
		if repository.IsNotFound(err) {
			msg := fmt.Sprintf("modifier %s not found, skipped", sel.ModifierID)
			res.Warnings = append(res.Warnings, msg)
			s.publisher.Publish(ctx, events.Warning(events.ModifierUnknown, msg, map[string]any{"modifier_id": sel.ModifierID}))
			continue
		}
		if err != nil {
			return ModifiersCostResult{}, fmt.Errorf("failed to load modifier %s: %w", sel.ModifierID, err)
		}
		qty := sel.Quantity
		if qty <= 0 {
			qty = 1
		}
		found = append(found, resolved{addon: addon, qty: qty})
		if addon.RawItemID != nil && addon.QuantityPerUnit != nil {
			rawIDs = append(rawIDs, *addon.RawItemID)
		}
	}

	rawItems, err := s.rawItemRepo.FindByIDs(ctx, rawIDs)
	if err != nil {
		return ModifiersCostResult{}, fmt.Errorf("failed to load modifier raw items: %w", err)
	}

	total := decimal.Zero
	impact := decimal.Zero
	for _, f := range found {
		qty := decimal.NewFromInt(int64(f.qty))
		line := model.ModifierCost{
			ModifierID:  f.addon.ID.String(),
			ExternalID:  f.addon.ExternalID,
			NameAr:      f.addon.NameAr,
			Quantity:    f.qty,
			UnitPrice:   f.addon.Price,
			PriceImpact: f.addon.Price.Mul(qty),
			RecipeCost:  decimal.Zero,
		}
		impact = impact.Add(line.PriceImpact)

		if f.addon.RawItemID != nil && f.addon.QuantityPerUnit != nil {
			line.RawItemID = f.addon.RawItemID.String()
			line.QuantityPerUnit = f.addon.QuantityPerUnit
			if raw, ok := rawItems[*f.addon.RawItemID]; ok {
				line.UnitCost = raw.UnitCost
				line.RecipeCost = f.addon.QuantityPerUnit.Mul(qty).Mul(raw.UnitCost)
			} else {
				msg := fmt.Sprintf("raw item %s of modifier %s not found, costed at zero", line.RawItemID, f.addon.NameAr)
				res.Warnings = append(res.Warnings, msg)
				s.publisher.Publish(ctx, events.Warning(events.RawItemMissing, msg, map[string]any{
					"modifier_id": line.ModifierID,
					"raw_item_id": line.RawItemID,
				}))
			}
		}

		total = total.Add(line.RecipeCost)
		res.Modifiers = append(res.Modifiers, line)
	}

	res.TotalCost = total.Round(2)
	res.PriceImpact = impact.Round(2)
	res.Success = len(res.Warnings) == 0
	return res, nil
}
