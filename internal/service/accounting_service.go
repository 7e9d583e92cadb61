package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cafeledger/internal/events"
	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"
	"cafeledger/pkg/units"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const topProductsInSnapshot = 5

// Worst-item thresholds, percent of revenue and units sold.
var (
	veryLowMarginBelow = decimal.NewFromInt(10)
	lowMarginBelow     = decimal.NewFromInt(30)
)

const lowVolumeBelow = 5

// ReportQuery scopes read-only reports. Empty tenant/branch match every branch.
type ReportQuery struct {
	TenantID string
	BranchID string
	From     time.Time
	To       time.Time
}

type AccountingService interface {
	// GetDailySnapshot computes, without saving, the snapshot of one branch day.
	GetDailySnapshot(ctx context.Context, tenantID, branchID string, date time.Time) (*model.AccountingSnapshot, error)
	GetProfitPerDrink(ctx context.Context, q ReportQuery) ([]model.ItemProfit, error)
	GetProfitPerCategory(ctx context.Context, q ReportQuery) ([]model.CategoryProfit, error)
	GetTopProfitableItems(ctx context.Context, q ReportQuery, limit int) ([]model.ItemProfit, error)
	GetWorstItems(ctx context.Context, q ReportQuery, limit int) ([]model.WorstItem, error)
	GetWasteReport(ctx context.Context, q ReportQuery) ([]model.WasteLine, error)
	SaveDailySnapshot(ctx context.Context, userID, tenantID, branchID string, date time.Time) (*model.AccountingSnapshot, error)
	ApproveSnapshot(ctx context.Context, userID, id string) (*model.AccountingSnapshot, error)
	GetSnapshots(ctx context.Context, q repository.SnapshotQuery) ([]model.AccountingSnapshot, error)
	// DayRange returns the inclusive bounds of date's calendar day in the report timezone.
	DayRange(date time.Time) (time.Time, time.Time)
	// Location is the report timezone.
	Location() *time.Location
}

type accountingService struct {
	orderRepo    repository.OrderRepository
	movementRepo repository.StockMovementRepository
	rawItemRepo  repository.RawItemRepository
	snapshotRepo repository.AccountingSnapshotRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	publisher    events.Publisher
	loc          *time.Location
	maxRetries   int
	now          func() time.Time
}

func NewAccountingService(
	orderRepo repository.OrderRepository,
	movementRepo repository.StockMovementRepository,
	rawItemRepo repository.RawItemRepository,
	snapshotRepo repository.AccountingSnapshotRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher events.Publisher,
	loc *time.Location,
	maxRetries int,
) AccountingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &accountingService{
		orderRepo:    orderRepo,
		movementRepo: movementRepo,
		rawItemRepo:  rawItemRepo,
		snapshotRepo: snapshotRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		publisher:    publisher,
		loc:          loc,
		maxRetries:   maxRetries,
		now:          time.Now,
	}
}

func (s *accountingService) Location() *time.Location {
	return s.loc
}

func (s *accountingService) DayRange(date time.Time) (time.Time, time.Time) {
	d := date.In(s.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (s *accountingService) closedOrders(ctx context.Context, q ReportQuery) ([]model.Order, error) {
	orders, err := s.orderRepo.ListWithItems(ctx, repository.OrderQuery{
		TenantID: q.TenantID,
		BranchID: q.BranchID,
		Statuses: model.ClosedOrderStatuses,
		From:     q.From,
		To:       q.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	return orders, nil
}

func (s *accountingService) GetDailySnapshot(ctx context.Context, tenantID, branchID string, date time.Time) (*model.AccountingSnapshot, error) {
	start, end := s.DayRange(date)
	q := ReportQuery{TenantID: tenantID, BranchID: branchID, From: start, To: end}

	orders, err := s.closedOrders(ctx, q)
	if err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	cogs := decimal.Zero
	withCost := 0
	for _, o := range orders {
		revenue = revenue.Add(o.TotalAmount)
		if o.CostOfGoods != nil {
			cogs = cogs.Add(*o.CostOfGoods)
			withCost++
		}
	}

	waste, err := s.GetWasteReport(ctx, q)
	if err != nil {
		return nil, err
	}
	wasteAmount := decimal.Zero
	for _, w := range waste {
		wasteAmount = wasteAmount.Add(w.Cost)
	}

	revenue = revenue.Round(2)
	cogs = cogs.Round(2)
	grossProfit := revenue.Sub(cogs)

	return &model.AccountingSnapshot{
		TenantID:             tenantID,
		BranchID:             branchID,
		SnapshotDate:         time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		PeriodStart:          start,
		PeriodEnd:            end,
		TotalRevenue:         revenue,
		TotalOrders:          len(orders),
		OrdersWithCost:       withCost,
		TotalCostOfGoods:     cogs,
		WasteAmount:          wasteAmount.Round(2),
		WastePercentage:      percentOf(wasteAmount, revenue),
		GrossProfit:          grossProfit,
		GrossProfitMargin:    percentOf(grossProfit, revenue),
		TopProductsByRevenue: topProductsByRevenue(orders, topProductsInSnapshot),
	}, nil
}

func topProductsByRevenue(orders []model.Order, limit int) []model.ProductRevenue {
	byProduct := map[string]*model.ProductRevenue{}
	var order []string
	for _, o := range orders {
		for _, it := range o.Items {
			key := it.ProductID.String()
			p, ok := byProduct[key]
			if !ok {
				p = &model.ProductRevenue{ProductID: key, NameAr: it.NameAr, Revenue: decimal.Zero}
				byProduct[key] = p
				order = append(order, key)
			}
			p.Quantity += it.Quantity
			p.Revenue = p.Revenue.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}

	out := make([]model.ProductRevenue, 0, len(order))
	for _, key := range order {
		p := *byProduct[key]
		p.Revenue = p.Revenue.Round(2)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue.GreaterThan(out[j].Revenue) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// itemCost returns the cost attributed to one order line: its frozen snapshot
// when present, else an even share per unit of the order cost that no
// snapshot accounts for.
func itemCost(o model.Order, it model.OrderItem) decimal.Decimal {
	if it.CostSnapshot != nil {
		return it.CostSnapshot.TotalCost
	}
	if o.CostOfGoods == nil {
		return decimal.Zero
	}
	residual := *o.CostOfGoods
	units := 0
	for _, line := range o.Items {
		if line.CostSnapshot != nil {
			residual = residual.Sub(line.CostSnapshot.TotalCost)
			continue
		}
		units += line.Quantity
	}
	if units == 0 || !residual.IsPositive() {
		return decimal.Zero
	}
	return residual.Div(decimal.NewFromInt(int64(units))).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func aggregateItems(orders []model.Order) []model.ItemProfit {
	byProduct := map[string]*model.ItemProfit{}
	var keys []string
	for _, o := range orders {
		for _, it := range o.Items {
			key := it.ProductID.String()
			p, ok := byProduct[key]
			if !ok {
				p = &model.ItemProfit{ProductID: key, NameAr: it.NameAr, Category: it.Category, Revenue: decimal.Zero, Cost: decimal.Zero}
				byProduct[key] = p
				keys = append(keys, key)
			}
			p.Quantity += it.Quantity
			p.Revenue = p.Revenue.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
			p.Cost = p.Cost.Add(itemCost(o, it))
		}
	}

	out := make([]model.ItemProfit, 0, len(keys))
	for _, key := range keys {
		p := *byProduct[key]
		p.Revenue = p.Revenue.Round(2)
		p.Cost = p.Cost.Round(2)
		p.Profit, p.Margin = calculateProfit(p.Revenue, p.Cost)
		out = append(out, p)
	}
	return out
}

func (s *accountingService) GetProfitPerDrink(ctx context.Context, q ReportQuery) ([]model.ItemProfit, error) {
	orders, err := s.closedOrders(ctx, q)
	if err != nil {
		return nil, err
	}
	items := aggregateItems(orders)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Revenue.GreaterThan(items[j].Revenue) })
	return items, nil
}

func (s *accountingService) GetProfitPerCategory(ctx context.Context, q ReportQuery) ([]model.CategoryProfit, error) {
	items, err := s.GetProfitPerDrink(ctx, q)
	if err != nil {
		return nil, err
	}

	byCategory := map[string]*model.CategoryProfit{}
	var keys []string
	for _, it := range items {
		c, ok := byCategory[it.Category]
		if !ok {
			c = &model.CategoryProfit{Category: it.Category, Revenue: decimal.Zero, Cost: decimal.Zero}
			byCategory[it.Category] = c
			keys = append(keys, it.Category)
		}
		c.Items++
		c.Quantity += it.Quantity
		c.Revenue = c.Revenue.Add(it.Revenue)
		c.Cost = c.Cost.Add(it.Cost)
	}

	out := make([]model.CategoryProfit, 0, len(keys))
	for _, key := range keys {
		c := *byCategory[key]
		c.Profit, c.Margin = calculateProfit(c.Revenue, c.Cost)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Profit.GreaterThan(out[j].Profit) })
	return out, nil
}

func (s *accountingService) GetTopProfitableItems(ctx context.Context, q ReportQuery, limit int) ([]model.ItemProfit, error) {
	items, err := s.GetProfitPerDrink(ctx, q)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Profit.GreaterThan(items[j].Profit) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// classifyWorst returns the first matching reason in priority order, or "".
func classifyWorst(it model.ItemProfit) string {
	switch {
	case it.Margin.IsNegative():
		return model.ReasonLoss
	case it.Margin.LessThan(veryLowMarginBelow):
		return model.ReasonVeryLowMargin
	case it.Margin.LessThan(lowMarginBelow):
		return model.ReasonLowMargin
	case it.Quantity < lowVolumeBelow:
		return model.ReasonLowVolume
	}
	return ""
}

func (s *accountingService) GetWorstItems(ctx context.Context, q ReportQuery, limit int) ([]model.WorstItem, error) {
	items, err := s.GetProfitPerDrink(ctx, q)
	if err != nil {
		return nil, err
	}

	worst := make([]model.WorstItem, 0)
	for _, it := range items {
		if reason := classifyWorst(it); reason != "" {
			worst = append(worst, model.WorstItem{ItemProfit: it, Reason: reason})
		}
	}
	sort.SliceStable(worst, func(i, j int) bool { return worst[i].Margin.LessThan(worst[j].Margin) })
	if limit > 0 && len(worst) > limit {
		worst = worst[:limit]
	}
	return worst, nil
}

func (s *accountingService) GetWasteReport(ctx context.Context, q ReportQuery) ([]model.WasteLine, error) {
	movements, err := s.movementRepo.ListWaste(ctx, q.TenantID, q.BranchID, q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("failed to load waste movements: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(movements))
	for _, m := range movements {
		ids = append(ids, m.RawItemID)
	}
	rawItems, err := s.rawItemRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw items: %w", err)
	}

	lines := make([]model.WasteLine, 0, len(movements))
	for _, m := range movements {
		line := model.WasteLine{
			MovementID: m.ID,
			BranchID:   m.BranchID,
			RawItemID:  m.RawItemID,
			Quantity:   m.Quantity,
			Unit:       m.Unit,
			UnitCost:   decimal.Zero,
			Cost:       decimal.Zero,
			Reason:     m.Reason,
			CreatedAt:  m.CreatedAt,
		}

		raw, ok := rawItems[m.RawItemID]
		if !ok {
			s.warnWaste(ctx, m, "raw item not found, waste costed at zero")
			lines = append(lines, line)
			continue
		}
		line.NameAr = raw.NameAr
		line.UnitCost = raw.UnitCost

		converted, err := units.Convert(m.Quantity, m.Unit, raw.Unit)
		if err != nil {
			s.warnWaste(ctx, m, fmt.Sprintf("waste unit %q cannot be converted to %q, costed at zero", m.Unit, raw.Unit))
			lines = append(lines, line)
			continue
		}
		line.Cost = converted.Mul(raw.UnitCost).Round(2)
		line.Resolved = true
		lines = append(lines, line)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Cost.GreaterThan(lines[j].Cost) })
	return lines, nil
}

func (s *accountingService) warnWaste(ctx context.Context, m model.StockMovement, msg string) {
	s.publisher.Publish(ctx, events.Warning(events.WasteUnresolved, msg, map[string]any{
		"movement_id": m.ID.String(),
		"raw_item_id": m.RawItemID.String(),
		"branch_id":   m.BranchID,
	}))
}

// SaveDailySnapshot recomputes the day and upserts it by (tenant, branch, date).
// An approved snapshot is never overwritten.
func (s *accountingService) SaveDailySnapshot(ctx context.Context, userID, tenantID, branchID string, date time.Time) (*model.AccountingSnapshot, error) {
	computed, err := s.GetDailySnapshot(ctx, tenantID, branchID, date)
	if err != nil {
		return nil, err
	}

	var saved *model.AccountingSnapshot
	err = repository.RetryOnConflict(ctx, s.maxRetries, func() error {
		return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
			existing, err := s.snapshotRepo.FindByKeyForUpdate(txCtx, tenantID, branchID, computed.SnapshotDate)
			if err != nil {
				return fmt.Errorf("failed to load snapshot: %w", err)
			}

			snap := *computed
			if existing != nil {
				if existing.IsApproved {
					return apperror.NewConflictError(apperror.ReasonSnapshotApproved,
						fmt.Sprintf("snapshot for %s on %s is approved and cannot be recomputed", branchID, computed.SnapshotDate.Format("2006-01-02")))
				}
				snap.ID = existing.ID
				snap.CreatedAt = existing.CreatedAt
				if err := s.snapshotRepo.Update(txCtx, &snap); err != nil {
					return fmt.Errorf("failed to update snapshot: %w", err)
				}
			} else if err := s.snapshotRepo.Create(txCtx, &snap); err != nil {
				return fmt.Errorf("failed to create snapshot: %w", err)
			}

			details := map[string]interface{}{
				"branch_id":     branchID,
				"snapshot_date": snap.SnapshotDate.Format("2006-01-02"),
				"total_revenue": snap.TotalRevenue.StringFixed(2),
				"gross_profit":  snap.GrossProfit.StringFixed(2),
				"recomputed":    existing != nil,
			}
			if err := writeAuditLog(txCtx, s.auditRepo, userID, model.ActionSaveSnapshot, snap.ID.String(), branchID, details); err != nil {
				return err
			}
			saved = &snap
			return nil
		})
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, apperror.NewConflictError(apperror.ReasonSnapshotConflict, "snapshot was saved concurrently, retry the request")
	}
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Info(events.SnapshotSaved, "accounting snapshot saved", map[string]any{
		"snapshot_id":   saved.ID.String(),
		"branch_id":     branchID,
		"snapshot_date": saved.SnapshotDate.Format("2006-01-02"),
	}))
	return saved, nil
}

func (s *accountingService) ApproveSnapshot(ctx context.Context, userID, id string) (*model.AccountingSnapshot, error) {
	snapshotID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}

	var approved *model.AccountingSnapshot
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		snap, err := s.snapshotRepo.FindByID(txCtx, snapshotID)
		if repository.IsNotFound(err) {
			return apperror.NewNotFoundError(apperror.ReasonSnapshotNotFound, "snapshot")
		}
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		if snap.IsApproved {
			return apperror.NewConflictError(apperror.ReasonSnapshotApproved, "snapshot is already approved")
		}

		now := s.now().UTC()
		snap.IsApproved = true
		snap.ApprovedBy = parseOptionalUserID(userID)
		snap.ApprovedAt = &now
		if err := s.snapshotRepo.Update(txCtx, snap); err != nil {
			return fmt.Errorf("failed to approve snapshot: %w", err)
		}

		details := map[string]interface{}{"branch_id": snap.BranchID, "snapshot_date": snap.SnapshotDate.Format("2006-01-02")}
		if err := writeAuditLog(txCtx, s.auditRepo, userID, model.ActionApproveSnapshot, snap.ID.String(), snap.BranchID, details); err != nil {
			return err
		}
		approved = snap
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (s *accountingService) GetSnapshots(ctx context.Context, q repository.SnapshotQuery) ([]model.AccountingSnapshot, error) {
	snapshots, err := s.snapshotRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}
