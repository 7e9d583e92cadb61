package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cafeledger/internal/events"
	"cafeledger/internal/model"
	"cafeledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory repositories backing the service tests.

type fakeTx struct{ calls int }

func (f *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) ofType(typ string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type fakeProductRepo struct {
	products map[uuid.UUID]model.Product
}

func newFakeProductRepo(products ...model.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: map[uuid.UUID]model.Product{}}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = *p
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Product, error) {
	out := map[uuid.UUID]model.Product{}
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		if search == "" || strings.Contains(p.NameAr, search) || strings.Contains(p.NameEn, search) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameAr < out[j].NameAr })
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

type fakeRawItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]model.RawItem
}

func newFakeRawItemRepo(items ...model.RawItem) *fakeRawItemRepo {
	r := &fakeRawItemRepo{items: map[uuid.UUID]model.RawItem{}}
	for _, it := range items {
		r.items[it.ID] = it
	}
	return r
}

func (r *fakeRawItemRepo) Create(_ context.Context, it *model.RawItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	r.items[it.ID] = *it
	return nil
}

func (r *fakeRawItemRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.RawItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[uuid.UUID]model.RawItem{}
	for _, id := range ids {
		if it, ok := r.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (r *fakeRawItemRepo) List(_ context.Context) ([]model.RawItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.RawItem, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameAr < out[j].NameAr })
	return out, nil
}

func (r *fakeRawItemRepo) setCost(id uuid.UUID, cost decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := r.items[id]
	it.UnitCost = cost
	r.items[id] = it
}

func (r *fakeRawItemRepo) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

type fakeAddonRepo struct {
	addons []model.ProductAddon
}

func (r *fakeAddonRepo) FindByReference(_ context.Context, ref string) (*model.ProductAddon, error) {
	for i := range r.addons {
		if r.addons[i].ExternalID == ref {
			a := r.addons[i]
			return &a, nil
		}
	}
	for i := range r.addons {
		if r.addons[i].ID.String() == ref {
			a := r.addons[i]
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAddonRepo) List(_ context.Context) ([]model.ProductAddon, error) {
	return append([]model.ProductAddon(nil), r.addons...), nil
}

type fakeRecipeRepo struct {
	mu          sync.Mutex
	recipes     []model.Recipe
	activations map[uuid.UUID]model.RecipeActivation
	conflicts   int // Create fails with ErrConflict this many times
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{activations: map[uuid.UUID]model.RecipeActivation{}}
}

func (r *fakeRecipeRepo) Create(_ context.Context, recipe *model.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		return repository.ErrConflict
	}
	for _, existing := range r.recipes {
		if existing.ProductID == recipe.ProductID && existing.Version == recipe.Version {
			return repository.ErrConflict
		}
	}
	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.New()
	}
	for i := range recipe.Ingredients {
		recipe.Ingredients[i].RecipeID = recipe.ID
	}
	stored := *recipe
	stored.Ingredients = append([]model.RecipeIngredient(nil), recipe.Ingredients...)
	r.recipes = append(r.recipes, stored)
	return nil
}

func (r *fakeRecipeRepo) MaxVersion(_ context.Context, productID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, rec := range r.recipes {
		if rec.ProductID == productID && rec.Version > max {
			max = rec.Version
		}
	}
	return max, nil
}

func (r *fakeRecipeRepo) FindByVersion(_ context.Context, productID uuid.UUID, version int) (*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recipes {
		if rec.ProductID == productID && rec.Version == version {
			out := rec
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRecipeRepo) ListByProduct(_ context.Context, productID uuid.UUID) ([]model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Recipe
	for _, rec := range r.recipes {
		if rec.ProductID == productID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (r *fakeRecipeRepo) GetActivation(_ context.Context, productID uuid.UUID) (*model.RecipeActivation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.activations[productID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *fakeRecipeRepo) SetActivation(_ context.Context, a *model.RecipeActivation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activations[a.ProductID] = *a
	return nil
}

func (r *fakeRecipeRepo) FindActive(_ context.Context, productID uuid.UUID) (*model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.activations[productID]
	if !ok {
		return nil, nil
	}
	for _, rec := range r.recipes {
		if rec.ID == a.RecipeID {
			out := rec
			out.IsActive = true
			return &out, nil
		}
	}
	return nil, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders []model.Order
}

func (r *fakeOrderRepo) Create(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return repository.ErrConflict
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	r.orders = append(r.orders, *o)
	return nil
}

func (r *fakeOrderRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			out := o
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOrderRepo) ListWithItems(_ context.Context, q repository.OrderQuery) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if q.TenantID != "" && o.TenantID != q.TenantID {
			continue
		}
		if q.BranchID != "" && o.BranchID != q.BranchID {
			continue
		}
		if len(q.Statuses) > 0 && !containsString(q.Statuses, o.Status) {
			continue
		}
		if !q.From.IsZero() && o.CreatedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && o.CreatedAt.After(q.To) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type fakeMovementRepo struct {
	movements []model.StockMovement
}

func (r *fakeMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeMovementRepo) ListWaste(_ context.Context, tenantID, branchID string, from, to time.Time) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.Type != model.MovementWaste {
			continue
		}
		if tenantID != "" && m.TenantID != tenantID {
			continue
		}
		if branchID != "" && m.BranchID != branchID {
			continue
		}
		if m.CreatedAt.Before(from) || m.CreatedAt.After(to) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

type fakeSnapshotRepo struct {
	snapshots []model.AccountingSnapshot
}

func (r *fakeSnapshotRepo) FindByKeyForUpdate(_ context.Context, tenantID, branchID string, date time.Time) (*model.AccountingSnapshot, error) {
	for _, s := range r.snapshots {
		if s.TenantID == tenantID && s.BranchID == branchID && s.SnapshotDate.Equal(date) {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeSnapshotRepo) FindByID(_ context.Context, id uuid.UUID) (*model.AccountingSnapshot, error) {
	for _, s := range r.snapshots {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSnapshotRepo) Create(_ context.Context, s *model.AccountingSnapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.snapshots = append(r.snapshots, *s)
	return nil
}

func (r *fakeSnapshotRepo) Update(_ context.Context, s *model.AccountingSnapshot) error {
	for i := range r.snapshots {
		if r.snapshots[i].ID == s.ID {
			r.snapshots[i] = *s
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeSnapshotRepo) List(_ context.Context, q repository.SnapshotQuery) ([]model.AccountingSnapshot, error) {
	return append([]model.AccountingSnapshot(nil), r.snapshots...), nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		if action == "" || r.entries[i].Action == action {
			out = append(out, r.entries[i])
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeInvoiceRepo struct {
	mu        sync.Mutex
	invoices  []model.TaxInvoice // ordered by counter
	conflicts int                // Create fails with ErrConflict this many times
	creates   int
}

func (r *fakeInvoiceRepo) LatestForUpdate(_ context.Context) (*model.TaxInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.invoices) == 0 {
		return nil, nil
	}
	out := r.invoices[len(r.invoices)-1]
	return &out, nil
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *model.TaxInvoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.conflicts > 0 {
		r.conflicts--
		return repository.ErrConflict
	}
	for _, existing := range r.invoices {
		if existing.InvoiceCounter == inv.InvoiceCounter || existing.InvoiceNumber == inv.InvoiceNumber {
			return repository.ErrConflict
		}
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	stored := *inv
	stored.Items = append([]model.TaxInvoiceLine(nil), inv.Items...)
	r.invoices = append(r.invoices, stored)
	return nil
}

func (r *fakeInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TaxInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.ID == id {
			out := inv
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeInvoiceRepo) FindByNumber(_ context.Context, number string) (*model.TaxInvoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.InvoiceNumber == number {
			out := inv
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeInvoiceRepo) List(_ context.Context, page, limit int) ([]model.TaxInvoice, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.TaxInvoice
	for i := len(r.invoices) - 1; i >= 0; i-- {
		out = append(out, r.invoices[i])
	}
	return out, int64(len(out)), nil
}

func (r *fakeInvoiceRepo) Walk(_ context.Context, batchSize int, fn func(batch []model.TaxInvoice) error) error {
	r.mu.Lock()
	all := append([]model.TaxInvoice(nil), r.invoices...)
	r.mu.Unlock()
	for start := 0; start < len(all); start += batchSize {
		end := start + batchSize
		if end > len(all) {
			end = len(all)
		}
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeInvoiceRepo) tamper(counter int64, mutate func(inv *model.TaxInvoice)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.invoices {
		if r.invoices[i].InvoiceCounter == counter {
			mutate(&r.invoices[i])
		}
	}
}

type fakeTaxRuleRepo struct {
	rules []model.TaxRule
}

func (r *fakeTaxRuleRepo) Create(_ context.Context, rule *model.TaxRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedAt = time.Now().UTC()
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *fakeTaxRuleRepo) List(_ context.Context) ([]model.TaxRule, error) {
	return append([]model.TaxRule(nil), r.rules...), nil
}

func (r *fakeTaxRuleRepo) FindActiveByType(_ context.Context, taxType string, on time.Time) (*model.TaxRule, error) {
	for _, rule := range r.rules {
		if rule.TaxType == taxType && rule.ActiveOn(on) {
			out := rule
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeTaxRuleRepo) CountOverlapping(_ context.Context, taxType string, from time.Time, to *time.Time) (int64, error) {
	var n int64
	for _, rule := range r.rules {
		if rule.TaxType != taxType {
			continue
		}
		endsBefore := rule.EffectiveTo != nil && rule.EffectiveTo.Before(from)
		startsAfter := to != nil && rule.EffectiveFrom.After(*to)
		if !endsBefore && !startsAfter {
			n++
		}
	}
	return n, nil
}

type fakeRevenueRepo struct {
	lastQuery repository.VATSummaryQuery
	rows      []repository.VATPeriodRow
}

func (r *fakeRevenueRepo) VATSummary(_ context.Context, q repository.VATSummaryQuery) ([]repository.VATPeriodRow, error) {
	r.lastQuery = q
	return r.rows, nil
}

type fixedRate struct {
	rate decimal.Decimal
	ok   bool
}

func (f fixedRate) ActiveRate(context.Context, string, time.Time) (decimal.Decimal, bool, error) {
	return f.rate, f.ok, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
