package repository

import (
	"context"
	"errors"
	"time"

	"cafeledger/internal/model"

	"gorm.io/gorm"
)

type TaxRuleRepository interface {
	Create(ctx context.Context, rule *model.TaxRule) error
	List(ctx context.Context) ([]model.TaxRule, error)
	// FindActiveByType returns the most recent rule effective on targetDate, or nil.
	FindActiveByType(ctx context.Context, taxType string, targetDate time.Time) (*model.TaxRule, error)
	CountOverlapping(ctx context.Context, taxType string, from time.Time, to *time.Time) (int64, error)
}

type taxRuleRepository struct {
	db *gorm.DB
}

func NewTaxRuleRepository(db *gorm.DB) TaxRuleRepository {
	return &taxRuleRepository{db: db}
}

func (r *taxRuleRepository) Create(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *taxRuleRepository) List(ctx context.Context) ([]model.TaxRule, error) {
	var rules []model.TaxRule
	if err := GetDB(ctx, r.db).Order("effective_from desc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *taxRuleRepository) FindActiveByType(ctx context.Context, taxType string, targetDate time.Time) (*model.TaxRule, error) {
	var rule model.TaxRule
	day := targetDate.Format("2006-01-02")
	err := GetDB(ctx, r.db).
		Where("tax_type = ? AND effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", taxType, day, day).
		Order("effective_from DESC").
		First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *taxRuleRepository) CountOverlapping(ctx context.Context, taxType string, from time.Time, to *time.Time) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.TaxRule{}).Where("tax_type = ?", taxType)

	if to != nil {
		// existing.from <= new.to AND (existing.to IS NULL OR existing.to >= new.from)
		query = query.Where("effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)", *to, from)
	} else {
		query = query.Where("(effective_to IS NULL OR effective_to >= ?)", from)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
