package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cafeledger/internal/model"
	"cafeledger/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const utf8BOM = "\ufeff"

var (
	orderCSVHeader     = []string{"رقم الطلب", "التاريخ", "الفرع", "العميل", "طريقة الدفع", "الحالة", "الإجمالي", "تكلفة البضاعة", "الربح", "هامش الربح %"}
	inventoryCSVHeader = []string{"المعرف", "اسم الصنف", "الوحدة", "تكلفة الوحدة"}
	profitCSVHeader    = []string{"المنتج", "الفئة", "الكمية", "الإيرادات", "التكلفة", "الربح", "هامش الربح %"}
)

const profitSheet = "Profit"

type ReportExporter interface {
	ExportOrdersCSV(ctx context.Context, w io.Writer, q ReportQuery) error
	ExportInventoryCSV(ctx context.Context, w io.Writer) error
	ExportProfitCSV(ctx context.Context, w io.Writer, q ReportQuery) error
	ExportProfitXLSX(ctx context.Context, w io.Writer, q ReportQuery) error
	// DailySummary renders a plain-text summary of one branch day.
	DailySummary(ctx context.Context, tenantID, branchID string, date time.Time) (string, error)
}

type reportExporter struct {
	orderRepo   repository.OrderRepository
	rawItemRepo repository.RawItemRepository
	accounting  AccountingService
}

func NewReportExporter(
	orderRepo repository.OrderRepository,
	rawItemRepo repository.RawItemRepository,
	accounting AccountingService,
) ReportExporter {
	return &reportExporter{
		orderRepo:   orderRepo,
		rawItemRepo: rawItemRepo,
		accounting:  accounting,
	}
}

// csvWriter quotes every field, which encoding/csv only does when needed.
type csvWriter struct {
	w   *bufio.Writer
	err error
}

func newCSVWriter(w io.Writer) *csvWriter {
	cw := &csvWriter{w: bufio.NewWriter(w)}
	_, cw.err = cw.w.WriteString(utf8BOM)
	return cw
}

func (c *csvWriter) row(fields ...string) {
	if c.err != nil {
		return
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, c.err = c.w.WriteString(strings.Join(quoted, ",") + "\n")
}

func (c *csvWriter) flush() error {
	if c.err != nil {
		return c.err
	}
	return c.w.Flush()
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func optionalMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func (r *reportExporter) ExportOrdersCSV(ctx context.Context, w io.Writer, q ReportQuery) error {
	orders, err := r.orderRepo.ListWithItems(ctx, repository.OrderQuery{
		TenantID: q.TenantID,
		BranchID: q.BranchID,
		From:     q.From,
		To:       q.To,
	})
	if err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}

	cw := newCSVWriter(w)
	cw.row(orderCSVHeader...)
	for _, o := range orders {
		cw.row(
			o.OrderNumber,
			o.CreatedAt.Format("2006-01-02 15:04"),
			o.BranchID,
			o.CustomerName,
			o.PaymentMethod,
			o.Status,
			money(o.TotalAmount),
			optionalMoney(o.CostOfGoods),
			optionalMoney(o.ProfitAmount),
			optionalMoney(o.ProfitMargin),
		)
	}
	return cw.flush()
}

func (r *reportExporter) ExportInventoryCSV(ctx context.Context, w io.Writer) error {
	items, err := r.rawItemRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load raw items: %w", err)
	}

	cw := newCSVWriter(w)
	cw.row(inventoryCSVHeader...)
	for _, it := range items {
		cw.row(it.ID.String(), it.NameAr, it.Unit, it.UnitCost.StringFixed(2))
	}
	return cw.flush()
}

func (r *reportExporter) ExportProfitCSV(ctx context.Context, w io.Writer, q ReportQuery) error {
	items, err := r.accounting.GetProfitPerDrink(ctx, q)
	if err != nil {
		return err
	}

	cw := newCSVWriter(w)
	cw.row(profitCSVHeader...)
	for _, it := range items {
		cw.row(
			it.NameAr,
			it.Category,
			fmt.Sprint(it.Quantity),
			money(it.Revenue),
			money(it.Cost),
			money(it.Profit),
			money(it.Margin),
		)
	}
	return cw.flush()
}

func (r *reportExporter) ExportProfitXLSX(ctx context.Context, w io.Writer, q ReportQuery) error {
	items, err := r.accounting.GetProfitPerDrink(ctx, q)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", profitSheet); err != nil {
		return fmt.Errorf("failed to prepare sheet: %w", err)
	}
	if err := f.SetSheetView(profitSheet, 0, &excelize.ViewOptions{RightToLeft: boolPtr(true)}); err != nil {
		return fmt.Errorf("failed to prepare sheet: %w", err)
	}

	for col, h := range profitCSVHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(profitSheet, cell, h); err != nil {
			return err
		}
	}

	for i, it := range items {
		row := i + 2
		values := []interface{}{
			it.NameAr,
			it.Category,
			it.Quantity,
			it.Revenue.InexactFloat64(),
			it.Cost.InexactFloat64(),
			it.Profit.InexactFloat64(),
			it.Margin.InexactFloat64(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(profitSheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

func (r *reportExporter) DailySummary(ctx context.Context, tenantID, branchID string, date time.Time) (string, error) {
	snap, err := r.accounting.GetDailySnapshot(ctx, tenantID, branchID, date)
	if err != nil {
		return "", err
	}
	return renderSummary(snap), nil
}

func renderSummary(s *model.AccountingSnapshot) string {
	var b strings.Builder
	branch := s.BranchID
	if branch == "" {
		branch = "all branches"
	}
	fmt.Fprintf(&b, "Daily summary %s (%s)\n", s.SnapshotDate.Format("2006-01-02"), branch)
	fmt.Fprintf(&b, "Orders:        %d (%d with cost)\n", s.TotalOrders, s.OrdersWithCost)
	fmt.Fprintf(&b, "Revenue:       %s\n", money(s.TotalRevenue))
	fmt.Fprintf(&b, "Cost of goods: %s\n", money(s.TotalCostOfGoods))
	fmt.Fprintf(&b, "Gross profit:  %s (%s%%)\n", money(s.GrossProfit), money(s.GrossProfitMargin))
	fmt.Fprintf(&b, "Waste:         %s (%s%%)\n", money(s.WasteAmount), money(s.WastePercentage))
	if len(s.TopProductsByRevenue) > 0 {
		b.WriteString("Top products:\n")
		for i, p := range s.TopProductsByRevenue {
			fmt.Fprintf(&b, "  %d. %s x%d = %s\n", i+1, p.NameAr, p.Quantity, money(p.Revenue))
		}
	}
	return b.String()
}
