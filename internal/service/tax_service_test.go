package service

import (
	"context"
	"testing"
	"time"

	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"
	"cafeledger/pkg/zatca"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTaxRuleRejectsOverlap(t *testing.T) {
	rules := &fakeTaxRuleRepo{}
	audit := &fakeAuditRepo{}
	svc := NewTaxService(rules, audit, &fakeTx{}, dec("0.15"))
	ctx := context.Background()

	created, err := svc.CreateTaxRule(ctx, CreateTaxRuleRequest{TaxType: model.TaxTypeVAT, Rate: "0.15", EffectiveFrom: "2020-07-01", EffectiveTo: "2026-12-31"}, "")
	require.NoError(t, err)
	assert.Equal(t, "0.1500", created.Rate)
	require.NotNil(t, created.EffectiveTo)
	assert.Equal(t, "2026-12-31", *created.EffectiveTo)

	_, err = svc.CreateTaxRule(ctx, CreateTaxRuleRequest{TaxType: model.TaxTypeVAT, Rate: "0.10", EffectiveFrom: "2026-06-01"}, "")
	assert.True(t, apperror.HasReason(err, apperror.ReasonTaxRuleOverlap))

	_, err = svc.CreateTaxRule(ctx, CreateTaxRuleRequest{TaxType: model.TaxTypeVAT, Rate: "0.10", EffectiveFrom: "2027-01-01"}, "")
	require.NoError(t, err)

	// a different tax type never overlaps
	_, err = svc.CreateTaxRule(ctx, CreateTaxRuleRequest{TaxType: model.TaxTypeVATZeroRate, Rate: "0", EffectiveFrom: "2020-07-01"}, "")
	require.NoError(t, err)

	list, err := svc.GetTaxRules(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, []string{model.ActionCreateTaxRule, model.ActionCreateTaxRule, model.ActionCreateTaxRule}, audit.actions())
}

func TestCreateTaxRuleValidatesFields(t *testing.T) {
	svc := NewTaxService(&fakeTaxRuleRepo{}, &fakeAuditRepo{}, &fakeTx{}, dec("0.15"))

	tests := []struct {
		name  string
		req   CreateTaxRuleRequest
		field string
	}{
		{"bad rate", CreateTaxRuleRequest{TaxType: model.TaxTypeVAT, Rate: "abc", EffectiveFrom: "2026-01-01"}, "rate"},
		{"rate above one", CreateTaxRuleRequest{TaxType: model.TaxTypeVAT, Rate: "15", EffectiveFrom: "2026-01-01"}, "rate"},
		{"bad from", CreateTaxRuleRequest{TaxType: model.TaxTypeVAT, Rate: "0.15", EffectiveFrom: "01/01/2026"}, "effective_from"},
		{"to before from", CreateTaxRuleRequest{TaxType: model.TaxTypeVAT, Rate: "0.15", EffectiveFrom: "2026-01-01", EffectiveTo: "2025-01-01"}, "effective_to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTaxRule(context.Background(), tt.req, "")
			appErr := apperror.GetAppError(err)
			require.Equal(t, apperror.ReasonValidation, appErr.Reason)
			assert.Equal(t, tt.field, appErr.Errors[0].Field)
		})
	}
}

func TestActiveRateFallsBackToDefault(t *testing.T) {
	rules := &fakeTaxRuleRepo{}
	svc := NewTaxService(rules, &fakeAuditRepo{}, &fakeTx{}, dec("0.15"))
	ctx := context.Background()

	res, err := svc.GetActiveTaxRate(ctx, model.TaxTypeVAT)
	require.NoError(t, err)
	assert.Equal(t, "default", res.Source)
	assert.Equal(t, "0.1500", res.Rate)

	_, err = svc.CreateTaxRule(ctx, CreateTaxRuleRequest{TaxType: model.TaxTypeVAT, Rate: "0.05", EffectiveFrom: "2000-01-01"}, "")
	require.NoError(t, err)

	res, err = svc.GetActiveTaxRate(ctx, model.TaxTypeVAT)
	require.NoError(t, err)
	assert.Equal(t, "rule", res.Source)
	assert.Equal(t, "0.0500", res.Rate)

	rate, ok, err := svc.ActiveRate(ctx, model.TaxTypeVAT, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, rate.IsZero())
}

func TestVATSummary(t *testing.T) {
	repo := &fakeRevenueRepo{rows: []repository.VATPeriodRow{{
		Period:          "2026-03",
		InvoiceCount:    4,
		CreditNoteCount: 1,
		TaxableAmount:   dec("100.004"),
		TaxAmount:       dec("15.0006"),
		TotalAmount:     dec("115.0046"),
	}}}
	svc := NewRevenueService(repo)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	points, err := svc.GetVATSummary(context.Background(), VATSummaryFilter{BranchID: "riyadh-01", From: from, To: from.AddDate(0, 1, 0)})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "100", points[0].TaxableAmount.String())
	assert.Equal(t, "15", points[0].TaxAmount.String())
	assert.Equal(t, "month", repo.lastQuery.GroupBy)
	assert.Equal(t, "riyadh-01", repo.lastQuery.BranchID)
	assert.Equal(t, zatca.InvoiceTypeCode(zatca.InvoiceTypeCreditNote), repo.lastQuery.CreditNoteCode)

	_, err = svc.GetVATSummary(context.Background(), VATSummaryFilter{GroupBy: "year", From: from, To: from.AddDate(0, 1, 0)})
	assert.True(t, apperror.HasReason(err, apperror.ReasonValidation))

	_, err = svc.GetVATSummary(context.Background(), VATSummaryFilter{GroupBy: "day", From: from, To: from})
	assert.True(t, apperror.HasReason(err, apperror.ReasonValidation))
}
