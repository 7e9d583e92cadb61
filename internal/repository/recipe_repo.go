package repository

import (
	"context"
	"errors"

	"cafeledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeRepository stores immutable recipe versions and the per-product active pointer.
type RecipeRepository interface {
	// Create inserts a new version with its ingredients. A duplicate
	// (product_id, version) yields ErrConflict.
	Create(ctx context.Context, recipe *model.Recipe) error
	MaxVersion(ctx context.Context, productID uuid.UUID) (int, error)
	FindByVersion(ctx context.Context, productID uuid.UUID, version int) (*model.Recipe, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Recipe, error)
	GetActivation(ctx context.Context, productID uuid.UUID) (*model.RecipeActivation, error)
	SetActivation(ctx context.Context, activation *model.RecipeActivation) error
	// FindActive returns the activated version, or nil when the product has none.
	FindActive(ctx context.Context, productID uuid.UUID) (*model.Recipe, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	return translateError(GetDB(ctx, r.db).Create(recipe).Error)
}

func (r *recipeRepository) MaxVersion(ctx context.Context, productID uuid.UUID) (int, error) {
	var max int
	err := GetDB(ctx, r.db).Model(&model.Recipe{}).
		Where("product_id = ?", productID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	return max, err
}

func (r *recipeRepository) FindByVersion(ctx context.Context, productID uuid.UUID, version int) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := GetDB(ctx, r.db).Preload("Ingredients").
		Where("product_id = ? AND version = ?", productID, version).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := GetDB(ctx, r.db).Preload("Ingredients").
		Where("product_id = ?", productID).
		Order("version desc").
		Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) GetActivation(ctx context.Context, productID uuid.UUID) (*model.RecipeActivation, error) {
	var a model.RecipeActivation
	err := GetDB(ctx, r.db).First(&a, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *recipeRepository) SetActivation(ctx context.Context, activation *model.RecipeActivation) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"recipe_id", "version", "activated_by", "activated_at"}),
	}).Create(activation).Error
}

func (r *recipeRepository) FindActive(ctx context.Context, productID uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	err := GetDB(ctx, r.db).Preload("Ingredients").
		Joins("JOIN recipe_activations ra ON ra.recipe_id = recipes.id").
		Where("ra.product_id = ?", productID).
		First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	recipe.IsActive = true
	return &recipe, nil
}
