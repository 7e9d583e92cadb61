package repository

import (
	"context"
	"errors"
	"time"

	"cafeledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnapshotQuery struct {
	TenantID string
	BranchID string
	From     time.Time
	To       time.Time
}

type AccountingSnapshotRepository interface {
	// FindByKeyForUpdate locks and returns the snapshot for the key, or nil.
	FindByKeyForUpdate(ctx context.Context, tenantID, branchID string, date time.Time) (*model.AccountingSnapshot, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.AccountingSnapshot, error)
	Create(ctx context.Context, s *model.AccountingSnapshot) error
	Update(ctx context.Context, s *model.AccountingSnapshot) error
	List(ctx context.Context, q SnapshotQuery) ([]model.AccountingSnapshot, error)
}

type accountingSnapshotRepository struct {
	db *gorm.DB
}

func NewAccountingSnapshotRepository(db *gorm.DB) AccountingSnapshotRepository {
	return &accountingSnapshotRepository{db: db}
}

func (r *accountingSnapshotRepository) FindByKeyForUpdate(ctx context.Context, tenantID, branchID string, date time.Time) (*model.AccountingSnapshot, error) {
	var s model.AccountingSnapshot
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND branch_id = ? AND snapshot_date = ?", tenantID, branchID, date.Format("2006-01-02")).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *accountingSnapshotRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AccountingSnapshot, error) {
	var s model.AccountingSnapshot
	if err := GetDB(ctx, r.db).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *accountingSnapshotRepository) Create(ctx context.Context, s *model.AccountingSnapshot) error {
	return translateError(GetDB(ctx, r.db).Create(s).Error)
}

func (r *accountingSnapshotRepository) Update(ctx context.Context, s *model.AccountingSnapshot) error {
	return GetDB(ctx, r.db).Save(s).Error
}

func (r *accountingSnapshotRepository) List(ctx context.Context, q SnapshotQuery) ([]model.AccountingSnapshot, error) {
	db := GetDB(ctx, r.db)
	if q.TenantID != "" {
		db = db.Where("tenant_id = ?", q.TenantID)
	}
	if q.BranchID != "" {
		db = db.Where("branch_id = ?", q.BranchID)
	}
	if !q.From.IsZero() {
		db = db.Where("snapshot_date >= ?", q.From.Format("2006-01-02"))
	}
	if !q.To.IsZero() {
		db = db.Where("snapshot_date <= ?", q.To.Format("2006-01-02"))
	}

	var snapshots []model.AccountingSnapshot
	if err := db.Order("snapshot_date desc, branch_id").Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}
