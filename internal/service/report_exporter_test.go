package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func (f *ledgerFixture) exporter() ReportExporter {
	return NewReportExporter(f.orders, f.rawItems, f.accountingService())
}

func dayQuery() ReportQuery {
	return ReportQuery{BranchID: "riyadh-01", From: businessDay.Add(-12 * time.Hour), To: businessDay.Add(12 * time.Hour)}
}

func csvLines(t *testing.T, b []byte) []string {
	t.Helper()
	s := string(b)
	require.True(t, strings.HasPrefix(s, utf8BOM), "csv starts with a UTF-8 BOM")
	return strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, utf8BOM), "\n"), "\n")
}

func TestExportOrdersCSV(t *testing.T) {
	f := newLedgerFixture()
	f.addOrder("riyadh-01", 9, soldLine{f.latte, 2, "15", "1.80"})
	f.orders.orders[0].OrderNumber = "POS-1"
	f.orders.orders[0].CustomerName = `Abu "Saad", Jr`
	f.orders.orders[0].PaymentMethod = "cash"
	profit, margin := calculateProfit(f.orders.orders[0].TotalAmount, *f.orders.orders[0].CostOfGoods)
	f.orders.orders[0].ProfitAmount = &profit
	f.orders.orders[0].ProfitMargin = &margin
	f.addOrder("riyadh-01", 10, soldLine{f.latte, 1, "15", ""})
	f.orders.orders[1].OrderNumber = "POS-2"

	var buf bytes.Buffer
	require.NoError(t, f.exporter().ExportOrdersCSV(context.Background(), &buf, dayQuery()))

	lines := csvLines(t, buf.Bytes())
	require.Len(t, lines, 3)
	assert.Equal(t, `"رقم الطلب","التاريخ","الفرع","العميل","طريقة الدفع","الحالة","الإجمالي","تكلفة البضاعة","الربح","هامش الربح %"`, lines[0])
	assert.Equal(t, `"POS-1","2026-03-10 09:00","riyadh-01","Abu ""Saad"", Jr","cash","completed","30.00","1.80","28.20","94.00"`, lines[1])
	// an order without cost leaves the cost columns empty
	assert.Equal(t, `"POS-2","2026-03-10 10:00","riyadh-01","","","completed","15.00","","",""`, lines[2])
}

func TestExportInventoryCSV(t *testing.T) {
	f := newLedgerFixture()

	var buf bytes.Buffer
	require.NoError(t, f.exporter().ExportInventoryCSV(context.Background(), &buf))

	lines := csvLines(t, buf.Bytes())
	require.Len(t, lines, 5)
	assert.Equal(t, `"المعرف","اسم الصنف","الوحدة","تكلفة الوحدة"`, lines[0])
	assert.Contains(t, lines, `"`+f.milk.ID.String()+`","حليب","l","4.00"`)
}

func TestExportProfitCSV(t *testing.T) {
	f := newLedgerFixture()
	f.addOrder("riyadh-01", 9, soldLine{f.latte, 2, "15", "1.80"})

	var buf bytes.Buffer
	require.NoError(t, f.exporter().ExportProfitCSV(context.Background(), &buf, dayQuery()))

	lines := csvLines(t, buf.Bytes())
	require.Len(t, lines, 2)
	assert.Equal(t, `"لاتيه","hot","2","30.00","1.80","28.20","94.00"`, lines[1])
}

func TestExportProfitXLSX(t *testing.T) {
	f := newLedgerFixture()
	f.addOrder("riyadh-01", 9, soldLine{f.latte, 2, "15", "1.80"})

	var buf bytes.Buffer
	require.NoError(t, f.exporter().ExportProfitXLSX(context.Background(), &buf, dayQuery()))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(profitSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, profitCSVHeader, rows[0])
	assert.Equal(t, "لاتيه", rows[1][0])
	assert.Equal(t, "28.2", rows[1][5])

	view, err := book.GetSheetView(profitSheet, 0)
	require.NoError(t, err)
	require.NotNil(t, view.RightToLeft)
	assert.True(t, *view.RightToLeft)
}

func TestDailySummary(t *testing.T) {
	f := newLedgerFixture()
	f.addOrder("riyadh-01", 9, soldLine{f.latte, 2, "15", "1.80"})

	summary, err := f.exporter().DailySummary(context.Background(), "", "riyadh-01", businessDay)
	require.NoError(t, err)

	assert.Contains(t, summary, "Daily summary 2026-03-10 (riyadh-01)")
	assert.Contains(t, summary, "Revenue:       30.00")
	assert.Contains(t, summary, "Gross profit:  28.20 (94.00%)")
	assert.Contains(t, summary, "1. لاتيه x2 = 30.00")
}
