package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountingSnapshot is the persisted daily financial summary of a branch.
// Keyed by (tenant_id, branch_id, snapshot_date); immutable once approved.
type AccountingSnapshot struct {
	ID                   uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID             string           `gorm:"type:varchar(50);not null;default:'';uniqueIndex:idx_snapshot_key" json:"tenant_id"`
	BranchID             string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_snapshot_key" json:"branch_id"`
	SnapshotDate         time.Time        `gorm:"type:date;not null;uniqueIndex:idx_snapshot_key" json:"snapshot_date"`
	PeriodStart          time.Time        `gorm:"not null" json:"period_start"`
	PeriodEnd            time.Time        `gorm:"not null" json:"period_end"`
	TotalRevenue         decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"total_revenue"`
	TotalOrders          int              `gorm:"not null" json:"total_orders"`
	OrdersWithCost       int              `gorm:"not null" json:"orders_with_cost"`
	TotalCostOfGoods     decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"total_cost_of_goods"`
	WasteAmount          decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"waste_amount"`
	WastePercentage      decimal.Decimal  `gorm:"type:decimal(9,2);not null" json:"waste_percentage"`
	GrossProfit          decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"gross_profit"`
	GrossProfitMargin    decimal.Decimal  `gorm:"type:decimal(9,2);not null" json:"gross_profit_margin"`
	TopProductsByRevenue []ProductRevenue `gorm:"type:jsonb;serializer:json" json:"top_products_by_revenue"`
	IsApproved           bool             `gorm:"not null;default:false" json:"is_approved"`
	ApprovedBy           *uuid.UUID       `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt           *time.Time       `json:"approved_at"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}
