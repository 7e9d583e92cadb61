package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateRecipeVersion   = "CREATE_RECIPE_VERSION"
	ActionActivateRecipeVersion = "ACTIVATE_RECIPE_VERSION"
	ActionCreateOrder           = "CREATE_ORDER"
	ActionRecordWaste           = "RECORD_WASTE"
	ActionSaveSnapshot          = "SAVE_ACCOUNTING_SNAPSHOT"
	ActionApproveSnapshot       = "APPROVE_ACCOUNTING_SNAPSHOT"
	ActionIssueInvoice          = "ISSUE_TAX_INVOICE"
	ActionCreateTaxRule         = "CREATE_TAX_RULE"
)

// AuditLog tracks who changed master data or issued fiscal documents, and when.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for system jobs
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
