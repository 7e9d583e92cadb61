package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRevenue ranks a product by revenue within a period.
type ProductRevenue struct {
	ProductID string          `json:"product_id"`
	NameAr    string          `json:"name_ar"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// ItemProfit aggregates revenue and apportioned cost per product.
type ItemProfit struct {
	ProductID string          `json:"product_id"`
	NameAr    string          `json:"name_ar"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
	Cost      decimal.Decimal `json:"cost"`
	Profit    decimal.Decimal `json:"profit"`
	Margin    decimal.Decimal `json:"margin"`
}

type CategoryProfit struct {
	Category string          `json:"category"`
	Items    int             `json:"items"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
	Cost     decimal.Decimal `json:"cost"`
	Profit   decimal.Decimal `json:"profit"`
	Margin   decimal.Decimal `json:"margin"`
}

// Worst-item reasons, in classification priority.
const (
	ReasonLoss          = "loss"
	ReasonVeryLowMargin = "very low margin"
	ReasonLowMargin     = "low margin"
	ReasonLowVolume     = "low volume"
)

type WorstItem struct {
	ItemProfit
	Reason string `json:"reason"`
}

// WasteLine is one waste movement priced at the raw item's current unit cost.
type WasteLine struct {
	MovementID uuid.UUID       `json:"movement_id"`
	BranchID   string          `json:"branch_id"`
	RawItemID  uuid.UUID       `json:"raw_item_id"`
	NameAr     string          `json:"name_ar"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Cost       decimal.Decimal `json:"cost"`
	Resolved   bool            `json:"resolved"`
	Reason     string          `json:"reason"`
	CreatedAt  time.Time       `json:"created_at"`
}
