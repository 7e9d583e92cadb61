package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. Only closed orders count toward accounting.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

var ClosedOrderStatuses = []string{OrderStatusCompleted, OrderStatusDelivered}

// Order is a customer order as received from the POS, augmented with the
// cost frozen at creation time.
type Order struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID      string           `gorm:"type:varchar(50);index:idx_order_branch_time" json:"tenant_id"`
	BranchID      string           `gorm:"type:varchar(50);not null;index:idx_order_branch_time" json:"branch_id"`
	OrderNumber   string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_number"`
	Status        string           `gorm:"type:varchar(20);not null;index" json:"status"`
	CustomerName  string           `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone string           `gorm:"type:varchar(50)" json:"customer_phone"`
	PaymentMethod string           `gorm:"type:varchar(50)" json:"payment_method"`
	TotalAmount   decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	CostOfGoods   *decimal.Decimal `gorm:"type:decimal(18,2)" json:"cost_of_goods"` // nil when no line had a recipe
	ProfitAmount  *decimal.Decimal `gorm:"type:decimal(18,2)" json:"profit_amount"`
	ProfitMargin  *decimal.Decimal `gorm:"type:decimal(9,2)" json:"profit_margin"`
	Items         []OrderItem      `gorm:"foreignKey:OrderID" json:"items"`
	CreatedBy     *uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time        `gorm:"index:idx_order_branch_time" json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// OrderItem is a single ordered line. CostSnapshot is written once and never recalculated.
type OrderItem struct {
	ID             uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID        uuid.UUID              `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID              `gorm:"type:uuid;not null;index" json:"product_id"`
	NameAr         string                 `gorm:"type:varchar(255)" json:"name_ar"`
	Category       string                 `gorm:"type:varchar(100)" json:"category"`
	Quantity       int                    `gorm:"type:int;not null" json:"quantity"`
	UnitPrice      decimal.Decimal        `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	DiscountAmount decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0" json:"discount_amount"`
	TaxRate        *decimal.Decimal       `gorm:"type:decimal(10,4)" json:"tax_rate"`
	CostSnapshot   *OrderItemCostSnapshot `gorm:"type:jsonb;serializer:json" json:"cost_snapshot"`
}

// ItemUnits sums quantities across the order's lines.
func (o Order) ItemUnits() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
