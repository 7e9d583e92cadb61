package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable menu item (a drink, a pastry). Recipes target products.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU       string          `gorm:"type:varchar(100);uniqueIndex" json:"sku"`
	NameAr    string          `gorm:"type:varchar(255);not null" json:"name_ar"`
	NameEn    string          `gorm:"type:varchar(255)" json:"name_en"`
	Category  string          `gorm:"type:varchar(100);index" json:"category"`
	Price     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ProductAddon is a modifier (extra shot, oat milk). Its price is revenue-side;
// the optional raw item draw is cost-side and tracked independently.
type ProductAddon struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ExternalID      string           `gorm:"type:varchar(100);uniqueIndex" json:"external_id"`
	NameAr          string           `gorm:"type:varchar(255);not null" json:"name_ar"`
	NameEn          string           `gorm:"type:varchar(255)" json:"name_en"`
	Price           decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0" json:"price"`
	RawItemID       *uuid.UUID       `gorm:"type:uuid" json:"raw_item_id"`
	QuantityPerUnit *decimal.Decimal `gorm:"type:decimal(18,4)" json:"quantity_per_unit"` // in the raw item's unit
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `gorm:"index" json:"-"`
}
