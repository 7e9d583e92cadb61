package repository

import (
	"context"
	"time"

	"cafeledger/internal/model"

	"gorm.io/gorm"
)

type StockMovementRepository interface {
	Create(ctx context.Context, m *model.StockMovement) error
	// ListWaste returns waste movements in [from, to]; empty tenant/branch match all.
	ListWaste(ctx context.Context, tenantID, branchID string, from, to time.Time) ([]model.StockMovement, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, m *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *stockMovementRepository) ListWaste(ctx context.Context, tenantID, branchID string, from, to time.Time) ([]model.StockMovement, error) {
	db := GetDB(ctx, r.db).Where("type = ? AND created_at >= ? AND created_at <= ?", model.MovementWaste, from, to)
	if tenantID != "" {
		db = db.Where("tenant_id = ?", tenantID)
	}
	if branchID != "" {
		db = db.Where("branch_id = ?", branchID)
	}

	var movements []model.StockMovement
	if err := db.Order("created_at asc").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
