package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tax types. Invoices use the active VAT rule and fall back to the configured default.
const (
	TaxTypeVAT         = "VAT"
	TaxTypeVATZeroRate = "VAT_ZERO"
)

// TaxRule stores a tax rate with temporal validity. A nil EffectiveTo means open ended.
type TaxRule struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TaxType       string          `gorm:"type:varchar(20);not null;index" json:"tax_type"`
	Rate          decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"` // 0.15 = 15%
	EffectiveFrom time.Time       `gorm:"type:date;not null;index" json:"effective_from"`
	EffectiveTo   *time.Time      `gorm:"type:date;index" json:"effective_to"`
	Description   string          `gorm:"type:text" json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ActiveOn reports whether the rule applies on day t.
func (r TaxRule) ActiveOn(t time.Time) bool {
	if t.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || !t.After(*r.EffectiveTo)
}
