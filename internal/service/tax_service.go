package service

import (
	"context"
	"fmt"
	"time"

	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateTaxRuleRequest struct {
	TaxType       string `json:"tax_type" binding:"required,oneof=VAT VAT_ZERO"`
	Rate          string `json:"rate" binding:"required"`           // Decimal string, e.g. "0.15"
	EffectiveFrom string `json:"effective_from" binding:"required"` // YYYY-MM-DD
	EffectiveTo   string `json:"effective_to"`                      // YYYY-MM-DD, nullable
	Description   string `json:"description"`
}

type TaxRuleResponse struct {
	ID            string  `json:"id"`
	TaxType       string  `json:"tax_type"`
	Rate          string  `json:"rate"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to"`
	Description   string  `json:"description"`
	CreatedAt     string  `json:"created_at"`
}

type ActiveTaxRateResponse struct {
	TaxType string `json:"tax_type"`
	Rate    string `json:"rate"`
	RuleID  string `json:"rule_id,omitempty"`
	Source  string `json:"source"` // "rule" or "default"
}

// --- Interface ---

type TaxService interface {
	TaxRateResolver
	GetTaxRules(ctx context.Context) ([]TaxRuleResponse, error)
	CreateTaxRule(ctx context.Context, req CreateTaxRuleRequest, userID string) (TaxRuleResponse, error)
	GetActiveTaxRate(ctx context.Context, taxType string) (ActiveTaxRateResponse, error)
}

type taxService struct {
	taxRuleRepo repository.TaxRuleRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	defaultRate decimal.Decimal
}

func NewTaxService(
	taxRuleRepo repository.TaxRuleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	defaultRate decimal.Decimal,
) TaxService {
	return &taxService{
		taxRuleRepo: taxRuleRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		defaultRate: defaultRate,
	}
}

// --- Implementation ---

func (s *taxService) GetTaxRules(ctx context.Context) ([]TaxRuleResponse, error) {
	rules, err := s.taxRuleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tax rules: %w", err)
	}

	res := make([]TaxRuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toTaxRuleResponse(r))
	}
	return res, nil
}

func (s *taxService) CreateTaxRule(ctx context.Context, req CreateTaxRuleRequest, userID string) (TaxRuleResponse, error) {
	rate, effectiveFrom, effectiveTo, err := parseTaxRuleFields(req.Rate, req.EffectiveFrom, req.EffectiveTo)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	rule := model.TaxRule{
		TaxType:       req.TaxType,
		Rate:          rate,
		EffectiveFrom: effectiveFrom,
		EffectiveTo:   effectiveTo,
		Description:   req.Description,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		overlapping, err := s.taxRuleRepo.CountOverlapping(txCtx, req.TaxType, effectiveFrom, effectiveTo)
		if err != nil {
			return fmt.Errorf("failed to check overlap: %w", err)
		}
		if overlapping > 0 {
			return apperror.NewConflictError(apperror.ReasonTaxRuleOverlap,
				fmt.Sprintf("a tax rule for '%s' already exists with overlapping effective dates", req.TaxType))
		}

		if err := s.taxRuleRepo.Create(txCtx, &rule); err != nil {
			return fmt.Errorf("failed to create tax rule: %w", err)
		}
		return writeAuditLog(txCtx, s.auditRepo, userID, model.ActionCreateTaxRule, rule.ID.String(), req.TaxType+" "+rate.StringFixed(4), req)
	})
	if err != nil {
		return TaxRuleResponse{}, err
	}
	return toTaxRuleResponse(rule), nil
}

func (s *taxService) ActiveRate(ctx context.Context, taxType string, on time.Time) (decimal.Decimal, bool, error) {
	rule, err := s.taxRuleRepo.FindActiveByType(ctx, taxType, on)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to query active tax rate: %w", err)
	}
	if rule == nil {
		return decimal.Zero, false, nil
	}
	return rule.Rate, true, nil
}

func (s *taxService) GetActiveTaxRate(ctx context.Context, taxType string) (ActiveTaxRateResponse, error) {
	rule, err := s.taxRuleRepo.FindActiveByType(ctx, taxType, time.Now())
	if err != nil {
		return ActiveTaxRateResponse{}, fmt.Errorf("failed to query active tax rate: %w", err)
	}
	if rule == nil {
		return ActiveTaxRateResponse{TaxType: taxType, Rate: s.defaultRate.StringFixed(4), Source: "default"}, nil
	}
	return ActiveTaxRateResponse{
		TaxType: rule.TaxType,
		Rate:    rule.Rate.StringFixed(4),
		RuleID:  rule.ID.String(),
		Source:  "rule",
	}, nil
}

// --- Helpers ---

func parseTaxRuleFields(rateStr, fromStr, toStr string) (decimal.Decimal, time.Time, *time.Time, error) {
	invalid := func(field, msg string) error {
		return apperror.NewValidationError("", []apperror.FieldError{{Field: field, Code: apperror.CodeInvalid, Message: msg}})
	}

	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Zero, time.Time{}, nil, invalid("rate", "invalid rate value")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, time.Time{}, nil, invalid("rate", "rate must be a fraction between 0 and 1")
	}

	effectiveFrom, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return decimal.Zero, time.Time{}, nil, invalid("effective_from", "invalid effective_from date format (expected YYYY-MM-DD)")
	}

	var effectiveTo *time.Time
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return decimal.Zero, time.Time{}, nil, invalid("effective_to", "invalid effective_to date format (expected YYYY-MM-DD)")
		}
		if t.Before(effectiveFrom) {
			return decimal.Zero, time.Time{}, nil, invalid("effective_to", "effective_to must not be before effective_from")
		}
		effectiveTo = &t
	}

	return rate, effectiveFrom, effectiveTo, nil
}

func toTaxRuleResponse(r model.TaxRule) TaxRuleResponse {
	resp := TaxRuleResponse{
		ID:            r.ID.String(),
		TaxType:       r.TaxType,
		Rate:          r.Rate.StringFixed(4),
		EffectiveFrom: r.EffectiveFrom.Format("2006-01-02"),
		Description:   r.Description,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
	if r.EffectiveTo != nil {
		s := r.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &s
	}
	return resp
}
