package service

import (
	"context"
	"fmt"
	"time"

	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"
	"cafeledger/pkg/units"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type RecordWasteRequest struct {
	TenantID  string          `json:"tenant_id"`
	BranchID  string          `json:"branch_id" binding:"required"`
	RawItemID string          `json:"raw_item_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit" binding:"required"`
	Reason    string          `json:"reason"`
}

type ProductResponse struct {
	ID       string          `json:"id"`
	SKU      string          `json:"sku"`
	NameAr   string          `json:"name_ar"`
	NameEn   string          `json:"name_en"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

type InventoryService interface {
	GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
	GetRawItems(ctx context.Context) ([]model.RawItem, error)
	GetAddons(ctx context.Context) ([]model.ProductAddon, error)
	// RecordWaste stores a waste movement; the waste report prices it later at current cost.
	RecordWaste(ctx context.Context, userID string, req RecordWasteRequest) (*model.StockMovement, error)
}

type inventoryService struct {
	productRepo  repository.ProductRepository
	rawItemRepo  repository.RawItemRepository
	addonRepo    repository.ProductAddonRepository
	movementRepo repository.StockMovementRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	rawItemRepo repository.RawItemRepository,
	addonRepo repository.ProductAddonRepository,
	movementRepo repository.StockMovementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) InventoryService {
	return &inventoryService{
		productRepo:  productRepo,
		rawItemRepo:  rawItemRepo,
		addonRepo:    addonRepo,
		movementRepo: movementRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *inventoryService) GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, ProductResponse{
			ID:       p.ID.String(),
			SKU:      p.SKU,
			NameAr:   p.NameAr,
			NameEn:   p.NameEn,
			Category: p.Category,
			Price:    p.Price,
		})
	}
	return res, total, nil
}

func (s *inventoryService) GetRawItems(ctx context.Context) ([]model.RawItem, error) {
	items, err := s.rawItemRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw items: %w", err)
	}
	return items, nil
}

func (s *inventoryService) GetAddons(ctx context.Context) ([]model.ProductAddon, error) {
	addons, err := s.addonRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list addons: %w", err)
	}
	return addons, nil
}

func (s *inventoryService) RecordWaste(ctx context.Context, userID string, req RecordWasteRequest) (*model.StockMovement, error) {
	var fieldErrs []apperror.FieldError
	if !req.Quantity.IsPositive() {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "quantity", Code: apperror.CodeInvalidQuantity, Message: "quantity must be greater than zero"})
	}
	if !units.IsSupported(req.Unit) {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "unit", Code: apperror.CodeUnsupportedUnit, Message: fmt.Sprintf("unit %q is not supported", req.Unit)})
	}

	rawID, err := uuid.Parse(req.RawItemID)
	if err != nil {
		fieldErrs = append(fieldErrs, apperror.FieldError{Field: "raw_item_id", Code: apperror.CodeRawItemNotFound, Message: "raw item not found"})
	} else {
		items, err := s.rawItemRepo.FindByIDs(ctx, []uuid.UUID{rawID})
		if err != nil {
			return nil, fmt.Errorf("failed to load raw item: %w", err)
		}
		raw, ok := items[rawID]
		switch {
		case !ok:
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "raw_item_id", Code: apperror.CodeRawItemNotFound, Message: "raw item not found"})
		case units.IsSupported(req.Unit) && !units.Compatible(req.Unit, raw.Unit):
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "unit", Code: apperror.CodeUnsupportedUnit, Message: fmt.Sprintf("unit %q cannot be converted to %q", req.Unit, raw.Unit)})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, apperror.NewValidationError("", fieldErrs)
	}

	movement := &model.StockMovement{
		TenantID:  req.TenantID,
		BranchID:  req.BranchID,
		RawItemID: rawID,
		Type:      model.MovementWaste,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Reason:    req.Reason,
		CreatedBy: parseOptionalUserID(userID),
		CreatedAt: time.Now().UTC(),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.movementRepo.Create(txCtx, movement); err != nil {
			return fmt.Errorf("failed to record waste: %w", err)
		}
		return writeAuditLog(txCtx, s.auditRepo, userID, model.ActionRecordWaste, movement.ID.String(), req.BranchID, req)
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}
