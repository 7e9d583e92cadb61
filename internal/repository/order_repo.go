package repository

import (
	"context"
	"time"

	"cafeledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderQuery selects orders for reporting. Empty fields are not filtered on.
type OrderQuery struct {
	TenantID string
	BranchID string
	Statuses []string
	From     time.Time
	To       time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListWithItems(ctx context.Context, q OrderQuery) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order and its items (with their cost snapshots) in one statement batch.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return translateError(GetDB(ctx, r.db).Create(order).Error)
}

func (r *orderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListWithItems(ctx context.Context, q OrderQuery) ([]model.Order, error) {
	db := GetDB(ctx, r.db).Preload("Items")
	if q.TenantID != "" {
		db = db.Where("tenant_id = ?", q.TenantID)
	}
	if q.BranchID != "" {
		db = db.Where("branch_id = ?", q.BranchID)
	}
	if len(q.Statuses) > 0 {
		db = db.Where("status IN ?", q.Statuses)
	}
	if !q.From.IsZero() {
		db = db.Where("created_at >= ?", q.From)
	}
	if !q.To.IsZero() {
		db = db.Where("created_at <= ?", q.To)
	}

	var orders []model.Order
	if err := db.Order("created_at asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
