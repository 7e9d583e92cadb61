package repository

import (
	"context"

	"cafeledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductAddonRepository interface {
	// FindByReference resolves ref as an external id first, then as an internal uuid.
	FindByReference(ctx context.Context, ref string) (*model.ProductAddon, error)
	List(ctx context.Context) ([]model.ProductAddon, error)
}

type productAddonRepository struct {
	db *gorm.DB
}

func NewProductAddonRepository(db *gorm.DB) ProductAddonRepository {
	return &productAddonRepository{db: db}
}

func (r *productAddonRepository) FindByReference(ctx context.Context, ref string) (*model.ProductAddon, error) {
	var addon model.ProductAddon
	q := GetDB(ctx, r.db)
	if id, err := uuid.Parse(ref); err == nil {
		q = q.Where("external_id = ? OR id = ?", ref, id).
			Order(clause.OrderBy{Expression: clause.Expr{SQL: "CASE WHEN external_id = ? THEN 0 ELSE 1 END", Vars: []interface{}{ref}, WithoutParentheses: true}})
	} else {
		q = q.Where("external_id = ?", ref)
	}
	if err := q.First(&addon).Error; err != nil {
		return nil, err
	}
	return &addon, nil
}

func (r *productAddonRepository) List(ctx context.Context) ([]model.ProductAddon, error) {
	var addons []model.ProductAddon
	if err := GetDB(ctx, r.db).Order("name_ar").Find(&addons).Error; err != nil {
		return nil, err
	}
	return addons, nil
}
