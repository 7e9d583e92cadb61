package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxInvoice is an append-only, hash-chained simplified/standard tax invoice.
// InvoiceCounter is global across branches and has no gaps.
type TaxInvoice struct {
	ID                  uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UUID                uuid.UUID        `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	InvoiceNumber       string           `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_number"`
	InvoiceCounter      int64            `gorm:"uniqueIndex;not null" json:"invoice_counter"`
	InvoiceType         string           `gorm:"type:varchar(20);not null" json:"invoice_type"`
	TypeCode            string           `gorm:"type:varchar(3);not null" json:"type_code"`
	TransactionType     string           `gorm:"type:varchar(7);not null" json:"transaction_type"`
	BillingReference    string           `gorm:"type:varchar(30)" json:"billing_reference,omitempty"`
	OrderID             *uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	OrderNumber         string           `gorm:"type:varchar(100)" json:"order_number"`
	BranchID            string           `gorm:"type:varchar(50);index" json:"branch_id"`
	IssueDate           time.Time        `gorm:"not null;index" json:"issue_date"`
	SellerName          string           `gorm:"type:varchar(255);not null" json:"seller_name"`
	SellerVATNumber     string           `gorm:"type:varchar(20);not null" json:"seller_vat_number"`
	CustomerName        string           `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone       string           `gorm:"type:varchar(50)" json:"customer_phone"`
	CustomerVATNumber   string           `gorm:"type:varchar(20)" json:"customer_vat_number"`
	PaymentMethod       string           `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentMeansCode    string           `gorm:"type:varchar(3);not null" json:"payment_means_code"`
	Items               []TaxInvoiceLine `gorm:"foreignKey:InvoiceID" json:"items"`
	Subtotal            decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	DiscountTotal       decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"discount_total"`
	TaxableAmount       decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"taxable_amount"`
	TaxAmount           decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"tax_amount"`
	TotalAmount         decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"total_amount"`
	InvoiceHash         string           `gorm:"type:varchar(64);not null" json:"invoice_hash"`
	PreviousInvoiceHash string           `gorm:"type:varchar(64)" json:"previous_invoice_hash"`
	QRCode              string           `gorm:"type:text;not null" json:"qr_code"`
	XMLContent          string           `gorm:"type:text;not null" json:"xml_content"`
	CreatedBy           *uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	CreatedAt           time.Time        `json:"created_at"`
}

type TaxInvoiceLine struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	LineNo         int             `gorm:"not null" json:"line_no"`
	ItemID         string          `gorm:"type:varchar(100)" json:"item_id"`
	NameAr         string          `gorm:"type:varchar(255);not null" json:"name_ar"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"discount_amount"`
	TaxRate        decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"tax_rate"`
	TaxableAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"taxable_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"`
}
