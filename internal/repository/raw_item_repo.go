package repository

import (
	"context"

	"cafeledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RawItemRepository interface {
	Create(ctx context.Context, item *model.RawItem) error
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.RawItem, error)
	List(ctx context.Context) ([]model.RawItem, error)
}

type rawItemRepository struct {
	db *gorm.DB
}

func NewRawItemRepository(db *gorm.DB) RawItemRepository {
	return &rawItemRepository{db: db}
}

func (r *rawItemRepository) Create(ctx context.Context, item *model.RawItem) error {
	return translateError(GetDB(ctx, r.db).Create(item).Error)
}

// FindByIDs returns the raw items that exist; missing ids are simply absent from the map.
func (r *rawItemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.RawItem, error) {
	out := make(map[uuid.UUID]model.RawItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []model.RawItem
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *rawItemRepository) List(ctx context.Context) ([]model.RawItem, error) {
	var items []model.RawItem
	if err := GetDB(ctx, r.db).Order("name_ar").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
