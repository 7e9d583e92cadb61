package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VATPeriodRow aggregates issued tax documents for one period. Credit notes
// are subtracted from the net amounts.
type VATPeriodRow struct {
	Period          string          `gorm:"column:period"`
	InvoiceCount    int64           `gorm:"column:invoice_count"`
	CreditNoteCount int64           `gorm:"column:credit_note_count"`
	TaxableAmount   decimal.Decimal `gorm:"column:taxable_amount"`
	TaxAmount       decimal.Decimal `gorm:"column:tax_amount"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount"`
}

type VATSummaryQuery struct {
	GroupBy        string // day, week or month
	BranchID       string
	From           time.Time
	To             time.Time // exclusive
	CreditNoteCode string
}

type RevenueRepository interface {
	VATSummary(ctx context.Context, q VATSummaryQuery) ([]VATPeriodRow, error)
}

type revenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

func (r *revenueRepository) VATSummary(ctx context.Context, q VATSummaryQuery) ([]VATPeriodRow, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT
			TO_CHAR(DATE_TRUNC(?, i.issue_date), 'YYYY-MM-DD') AS period,
			COUNT(*) FILTER (WHERE i.type_code <> ?) AS invoice_count,
			COUNT(*) FILTER (WHERE i.type_code = ?) AS credit_note_count,
			COALESCE(SUM(CASE WHEN i.type_code = ? THEN -i.taxable_amount ELSE i.taxable_amount END), 0) AS taxable_amount,
			COALESCE(SUM(CASE WHEN i.type_code = ? THEN -i.tax_amount ELSE i.tax_amount END), 0) AS tax_amount,
			COALESCE(SUM(CASE WHEN i.type_code = ? THEN -i.total_amount ELSE i.total_amount END), 0) AS total_amount
		FROM tax_invoices i
		WHERE i.issue_date >= ? AND i.issue_date < ?`)
	args := []interface{}{
		q.GroupBy,
		q.CreditNoteCode, q.CreditNoteCode, q.CreditNoteCode, q.CreditNoteCode, q.CreditNoteCode,
		q.From, q.To,
	}
	if q.BranchID != "" {
		sb.WriteString(` AND i.branch_id = ?`)
		args = append(args, q.BranchID)
	}
	sb.WriteString(`
		GROUP BY DATE_TRUNC(?, i.issue_date)
		ORDER BY period`)
	args = append(args, q.GroupBy)

	var rows []VATPeriodRow
	if err := GetDB(ctx, r.db).Raw(sb.String(), args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query vat summary: %w", err)
	}
	return rows, nil
}
