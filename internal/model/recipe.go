package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recipe is one immutable version of a product's bill of materials.
// Rows are only ever inserted; (product_id, version) is unique.
type Recipe struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID   uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_product_version" json:"product_id"`
	Version     int                `gorm:"not null;uniqueIndex:idx_recipe_product_version" json:"version"`
	NameAr      string             `gorm:"type:varchar(255);not null" json:"name_ar"`
	NameEn      string             `gorm:"type:varchar(255)" json:"name_en"`
	TotalCost   decimal.Decimal    `gorm:"type:decimal(18,4);not null" json:"total_cost"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients"`
	IsActive    bool               `gorm:"-" json:"is_active"`
	CreatedBy   *uuid.UUID         `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time          `json:"created_at"`
}

// RecipeIngredient stores the quantity as authored plus the cost resolved when the version was created.
type RecipeIngredient struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RecipeID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"recipe_id"`
	RawItemID uuid.UUID       `gorm:"type:uuid;not null" json:"raw_item_id"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Unit      string          `gorm:"type:varchar(20);not null" json:"unit"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"unit_cost"`
	LineCost  decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"line_cost"`
}

// RecipeActivation points at the active version of a product's recipe.
type RecipeActivation struct {
	ProductID   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"product_id"`
	RecipeID    uuid.UUID  `gorm:"type:uuid;not null" json:"recipe_id"`
	Version     int        `gorm:"not null" json:"version"`
	ActivatedBy *uuid.UUID `gorm:"type:uuid" json:"activated_by"`
	ActivatedAt time.Time  `json:"activated_at"`
}
