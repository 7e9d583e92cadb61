package repository

import (
	"context"
	"errors"

	"cafeledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaxInvoiceRepository interface {
	// LatestForUpdate returns the chain head locked FOR UPDATE, or nil for an empty chain.
	LatestForUpdate(ctx context.Context) (*model.TaxInvoice, error)
	// Create inserts the invoice and its lines. A duplicate counter/number yields ErrConflict.
	Create(ctx context.Context, inv *model.TaxInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxInvoice, error)
	FindByNumber(ctx context.Context, number string) (*model.TaxInvoice, error)
	List(ctx context.Context, page, limit int) ([]model.TaxInvoice, int64, error)
	// Walk visits the whole chain in counter order, batchSize invoices at a time.
	Walk(ctx context.Context, batchSize int, fn func(batch []model.TaxInvoice) error) error
}

type taxInvoiceRepository struct {
	db *gorm.DB
}

func NewTaxInvoiceRepository(db *gorm.DB) TaxInvoiceRepository {
	return &taxInvoiceRepository{db: db}
}

func (r *taxInvoiceRepository) LatestForUpdate(ctx context.Context) (*model.TaxInvoice, error) {
	var inv model.TaxInvoice
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("invoice_counter desc").
		Limit(1).
		Take(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *taxInvoiceRepository) Create(ctx context.Context, inv *model.TaxInvoice) error {
	return translateError(GetDB(ctx, r.db).Create(inv).Error)
}

func (r *taxInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxInvoice, error) {
	var inv model.TaxInvoice
	if err := GetDB(ctx, r.db).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_no")
	}).First(&inv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *taxInvoiceRepository) FindByNumber(ctx context.Context, number string) (*model.TaxInvoice, error) {
	var inv model.TaxInvoice
	if err := GetDB(ctx, r.db).First(&inv, "invoice_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *taxInvoiceRepository) List(ctx context.Context, page, limit int) ([]model.TaxInvoice, int64, error) {
	var invoices []model.TaxInvoice
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.TaxInvoice{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Omit("xml_content").Order("invoice_counter desc").Offset(offset).Limit(limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *taxInvoiceRepository) Walk(ctx context.Context, batchSize int, fn func(batch []model.TaxInvoice) error) error {
	if batchSize < 1 {
		batchSize = 500
	}
	var after int64
	for {
		var batch []model.TaxInvoice
		if err := GetDB(ctx, r.db).
			Where("invoice_counter > ?", after).
			Order("invoice_counter asc").
			Limit(batchSize).
			Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		after = batch[len(batch)-1].InvoiceCounter
	}
}
