package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IngredientCost is one resolved recipe line: the authored quantity converted to
// the raw item's unit and priced at its unit cost.
type IngredientCost struct {
	RawItemID         string          `json:"raw_item_id"`
	NameAr            string          `json:"name_ar,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit"`
	RawItemUnit       string          `json:"raw_item_unit,omitempty"`
	ConvertedQuantity decimal.Decimal `json:"converted_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	LineCost          decimal.Decimal `json:"line_cost"`
}

// ModifierCost separates what a modifier earns (PriceImpact) from what it consumes (RecipeCost).
type ModifierCost struct {
	ModifierID      string           `json:"modifier_id"`
	ExternalID      string           `json:"external_id,omitempty"`
	NameAr          string           `json:"name_ar"`
	Quantity        int              `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	PriceImpact     decimal.Decimal  `json:"price_impact"`
	RawItemID       string           `json:"raw_item_id,omitempty"`
	QuantityPerUnit *decimal.Decimal `json:"quantity_per_unit,omitempty"`
	UnitCost        decimal.Decimal  `json:"unit_cost"`
	RecipeCost      decimal.Decimal  `json:"recipe_cost"`
}

// OrderItemCostSnapshot freezes a line's cost at order time.
type OrderItemCostSnapshot struct {
	ProductID         uuid.UUID        `json:"product_id"`
	RecipeID          uuid.UUID        `json:"recipe_id"`
	RecipeVersion     int              `json:"recipe_version"`
	Quantity          int              `json:"quantity"`
	UnitRecipeCost    decimal.Decimal  `json:"unit_recipe_cost"`
	UnitModifiersCost decimal.Decimal  `json:"unit_modifiers_cost"`
	UnitTotalCost     decimal.Decimal  `json:"unit_total_cost"`
	BaseRecipeCost    decimal.Decimal  `json:"base_recipe_cost"`
	ModifiersCost     decimal.Decimal  `json:"modifiers_cost"`
	TotalCost         decimal.Decimal  `json:"total_cost"`
	UnitSellingPrice  decimal.Decimal  `json:"unit_selling_price"`
	SellingPrice      decimal.Decimal  `json:"selling_price"` // line total
	ProfitAmount      decimal.Decimal  `json:"profit_amount"`
	ProfitMargin      decimal.Decimal  `json:"profit_margin"`
	Ingredients       []IngredientCost `json:"ingredients"`
	Modifiers         []ModifierCost   `json:"modifiers"`
	SnapshotTime      time.Time        `json:"snapshot_time"`
}
