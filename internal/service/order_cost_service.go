package service

import (
	"context"
	"fmt"
	"time"

	"cafeledger/internal/events"
	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CalculateModifiersRequest struct {
	Modifiers []ModifierSelection `json:"modifiers" binding:"required"`
}

type CalculateOrderCOGSRequest struct {
	Items []OrderLineInput `json:"items" binding:"required,min=1"`
}

// OrderCOGS aggregates frozen line costs. ItemSnapshots is aligned with the
// input lines; lines without an active recipe hold nil.
type OrderCOGS struct {
	TotalCOGS     decimal.Decimal                `json:"total_cogs"`
	TotalRevenue  decimal.Decimal                `json:"total_revenue"`
	TotalProfit   decimal.Decimal                `json:"total_profit"`
	ProfitMargin  decimal.Decimal                `json:"profit_margin"`
	LinesCosted   int                            `json:"lines_costed"`
	ItemSnapshots []*model.OrderItemCostSnapshot `json:"item_snapshots"`
}

type CostingService interface {
	CalculateModifiersCost(ctx context.Context, selections []ModifierSelection) (ModifiersCostResult, error)
	BuildSnapshot(ctx context.Context, in SnapshotInput) (*model.OrderItemCostSnapshot, error)
	CalculateOrderCOGS(ctx context.Context, items []OrderLineInput) (OrderCOGS, error)
}

type costingService struct {
	recipeRepo  repository.RecipeRepository
	rawItemRepo repository.RawItemRepository
	addonRepo   repository.ProductAddonRepository
	publisher   events.Publisher
	calc        costCalculator
	now         func() time.Time
}

func NewCostingService(
	recipeRepo repository.RecipeRepository,
	rawItemRepo repository.RawItemRepository,
	addonRepo repository.ProductAddonRepository,
	publisher events.Publisher,
) CostingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &costingService{
		recipeRepo:  recipeRepo,
		rawItemRepo: rawItemRepo,
		addonRepo:   addonRepo,
		publisher:   publisher,
		calc:        costCalculator{rawItems: rawItemRepo},
		now:         time.Now,
	}
}

func (s *costingService) CalculateOrderCOGS(ctx context.Context, items []OrderLineInput) (OrderCOGS, error) {
	if fieldErrs := validateOrderLines(items); len(fieldErrs) > 0 {
		return OrderCOGS{}, apperror.NewValidationError("", fieldErrs)
	}

	res := OrderCOGS{ItemSnapshots: make([]*model.OrderItemCostSnapshot, len(items))}
	cogs := decimal.Zero
	revenue := decimal.Zero

	for i, item := range items {
		productID, _ := uuid.Parse(item.ProductID)
		snap, err := s.BuildSnapshot(ctx, SnapshotInput{
			ProductID:        productID,
			UnitSellingPrice: item.UnitPrice,
			Quantity:         item.Quantity,
			Modifiers:        item.Modifiers,
		})
		if err != nil {
			return OrderCOGS{}, fmt.Errorf("failed to cost line %d: %w", i, err)
		}

		revenue = revenue.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		if snap != nil {
			cogs = cogs.Add(snap.TotalCost)
			res.LinesCosted++
		}
		res.ItemSnapshots[i] = snap
	}

	res.TotalCOGS = cogs.Round(2)
	res.TotalRevenue = revenue.Round(2)
	res.TotalProfit, res.ProfitMargin = calculateProfit(res.TotalRevenue, res.TotalCOGS)
	return res, nil
}

func validateOrderLines(items []OrderLineInput) []apperror.FieldError {
	var errs []apperror.FieldError
	if len(items) == 0 {
		return []apperror.FieldError{{Field: "items", Code: apperror.CodeRequired, Message: "at least one item is required"}}
	}
	for i, item := range items {
		prefix := fmt.Sprintf("items[%d]", i)
		if _, err := uuid.Parse(item.ProductID); err != nil {
			errs = append(errs, apperror.FieldError{Field: prefix + ".product_id", Code: apperror.CodeInvalid, Message: "product_id must be a valid id"})
		}
		if item.Quantity <= 0 {
			errs = append(errs, apperror.FieldError{Field: prefix + ".quantity", Code: apperror.CodeInvalidQuantity, Message: "quantity must be greater than zero"})
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: prefix + ".unit_price", Code: apperror.CodeInvalid, Message: "unit_price cannot be negative"})
		}
		if item.DiscountAmount.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: prefix + ".discount_amount", Code: apperror.CodeInvalid, Message: "discount_amount cannot be negative"})
		}
	}
	return errs
}
