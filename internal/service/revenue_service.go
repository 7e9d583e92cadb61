package service

import (
	"context"
	"time"

	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"
	"cafeledger/pkg/zatca"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type VATDataPoint struct {
	Period          string          `json:"period"`
	InvoiceCount    int64           `json:"invoice_count"`
	CreditNoteCount int64           `json:"credit_note_count"`
	TaxableAmount   decimal.Decimal `json:"taxable_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

type VATSummaryFilter struct {
	GroupBy  string // day, week, month
	BranchID string
	From     time.Time
	To       time.Time // exclusive
}

// --- Interface ---

// RevenueService summarizes output VAT over the issued invoice chain.
type RevenueService interface {
	GetVATSummary(ctx context.Context, filter VATSummaryFilter) ([]VATDataPoint, error)
}

type revenueService struct {
	revenueRepo repository.RevenueRepository
}

func NewRevenueService(revenueRepo repository.RevenueRepository) RevenueService {
	return &revenueService{revenueRepo: revenueRepo}
}

// --- Implementation ---

func (s *revenueService) GetVATSummary(ctx context.Context, filter VATSummaryFilter) ([]VATDataPoint, error) {
	groupBy := filter.GroupBy
	switch groupBy {
	case "day", "week", "month":
	case "":
		groupBy = "month"
	default:
		return nil, apperror.NewValidationError("", []apperror.FieldError{
			{Field: "group_by", Code: apperror.CodeInvalid, Message: "group_by must be day, week or month"},
		})
	}
	if !filter.To.After(filter.From) {
		return nil, apperror.NewValidationError("", []apperror.FieldError{
			{Field: "to", Code: apperror.CodeInvalid, Message: "to must be after from"},
		})
	}

	rows, err := s.revenueRepo.VATSummary(ctx, repository.VATSummaryQuery{
		GroupBy:        groupBy,
		BranchID:       filter.BranchID,
		From:           filter.From.UTC(),
		To:             filter.To.UTC(),
		CreditNoteCode: zatca.InvoiceTypeCode(zatca.InvoiceTypeCreditNote),
	})
	if err != nil {
		return nil, err
	}

	result := make([]VATDataPoint, 0, len(rows))
	for _, r := range rows {
		result = append(result, VATDataPoint{
			Period:          r.Period,
			InvoiceCount:    r.InvoiceCount,
			CreditNoteCount: r.CreditNoteCount,
			TaxableAmount:   r.TaxableAmount.Round(2),
			TaxAmount:       r.TaxAmount.Round(2),
			TotalAmount:     r.TotalAmount.Round(2),
		})
	}
	return result, nil
}
