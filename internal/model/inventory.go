package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RawItem is a purchasable ingredient. Its unit and unit cost are the cost truth for recipes.
type RawItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU       string          `gorm:"type:varchar(100);uniqueIndex" json:"sku"`
	NameAr    string          `gorm:"type:varchar(255);not null" json:"name_ar"`
	NameEn    string          `gorm:"type:varchar(255)" json:"name_en"`
	Unit      string          `gorm:"type:varchar(20);not null" json:"unit"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"unit_cost"` // cost per one Unit
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Stock movement types
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementWaste      = "waste"
	MovementAdjustment = "adjustment"
)

// StockMovement records a raw-item quantity change at a branch. Waste movements feed the waste report.
type StockMovement struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID  string          `gorm:"type:varchar(50);index" json:"tenant_id"`
	BranchID  string          `gorm:"type:varchar(50);not null;index:idx_movement_branch_time" json:"branch_id"`
	RawItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"raw_item_id"`
	Type      string          `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Unit      string          `gorm:"type:varchar(20);not null" json:"unit"`
	Reason    string          `gorm:"type:text" json:"reason"`
	CreatedBy *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time       `gorm:"index:idx_movement_branch_time" json:"created_at"`
}
