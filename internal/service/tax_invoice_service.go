package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafeledger/internal/events"
	"cafeledger/internal/lock"
	"cafeledger/internal/model"
	"cafeledger/internal/repository"
	"cafeledger/pkg/apperror"
	"cafeledger/pkg/zatca"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

const (
	invoiceChainLock   = "tax-invoice-chain"
	invoiceNumberFmt   = "INV-%s-%06d"
	chainVerifyBatch   = 500
	defaultPhoneRegion = "SA"
)

// --- DTOs ---

type InvoiceItemRequest struct {
	ItemID         string           `json:"item_id"`
	NameAr         string           `json:"name_ar" binding:"required"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TaxRate        *decimal.Decimal `json:"tax_rate,omitempty"` // overrides the active rate for this line
}

type IssueInvoiceRequest struct {
	OrderID           string               `json:"order_id"`
	OrderNumber       string               `json:"order_number"`
	BranchID          string               `json:"branch_id"`
	InvoiceType       string               `json:"invoice_type"`
	TransactionType   string               `json:"transaction_type"`
	BillingReference  string               `json:"billing_reference"`
	CustomerName      string               `json:"customer_name"`
	CustomerPhone     string               `json:"customer_phone"`
	CustomerVATNumber string               `json:"customer_vat_number"`
	PaymentMethod     string               `json:"payment_method"`
	Items             []InvoiceItemRequest `json:"items"`
}

type InvoiceFilter struct {
	Page  int
	Limit int
}

// ChainVerification reports the result of re-walking the hash chain.
type ChainVerification struct {
	Valid         bool   `json:"valid"`
	Checked       int64  `json:"checked"`
	BrokenCounter *int64 `json:"broken_counter,omitempty"`
	BrokenNumber  string `json:"broken_number,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// InvoiceSettings carries the seller identity and chain tuning.
type InvoiceSettings struct {
	Seller         zatca.Party
	DefaultTaxRate decimal.Decimal
	MaxRetries     int
	PhoneRegion    string
}

// TaxRateResolver supplies the active VAT rate on a date; ok is false when no rule applies.
type TaxRateResolver interface {
	ActiveRate(ctx context.Context, taxType string, on time.Time) (rate decimal.Decimal, ok bool, err error)
}

// --- Interface ---

type TaxInvoiceService interface {
	// IssueInvoice computes, hash-links and persists the next invoice of the chain.
	IssueInvoice(ctx context.Context, userID string, req IssueInvoiceRequest) (*model.TaxInvoice, error)
	GetInvoice(ctx context.Context, id string) (*model.TaxInvoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]model.TaxInvoice, int64, error)
	VerifyChain(ctx context.Context) (ChainVerification, error)
}

type taxInvoiceService struct {
	invoiceRepo repository.TaxInvoiceRepository
	orderRepo   repository.OrderRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	rates       TaxRateResolver
	locker      lock.Locker
	publisher   events.Publisher
	settings    InvoiceSettings
	now         func() time.Time
}

func NewTaxInvoiceService(
	invoiceRepo repository.TaxInvoiceRepository,
	orderRepo repository.OrderRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	rates TaxRateResolver,
	locker lock.Locker,
	publisher events.Publisher,
	settings InvoiceSettings,
) TaxInvoiceService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if settings.MaxRetries < 1 {
		settings.MaxRetries = 3
	}
	if settings.PhoneRegion == "" {
		settings.PhoneRegion = defaultPhoneRegion
	}
	return &taxInvoiceService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		rates:       rates,
		locker:      locker,
		publisher:   publisher,
		settings:    settings,
		now:         time.Now,
	}
}

// --- Implementation ---

func (s *taxInvoiceService) IssueInvoice(ctx context.Context, userID string, req IssueInvoiceRequest) (*model.TaxInvoice, error) {
	issuedAt := s.now().UTC().Truncate(time.Second)

	draft, err := s.buildDraft(ctx, req, issuedAt)
	if err != nil {
		return nil, err
	}
	draft.CreatedBy = parseOptionalUserID(userID)

	var issued *model.TaxInvoice
	err = s.locker.WithLock(ctx, invoiceChainLock, func(lockCtx context.Context) error {
		return repository.RetryOnConflict(lockCtx, s.settings.MaxRetries, func() error {
			inv := cloneDraft(draft)
			return s.txManager.RunInTx(lockCtx, func(txCtx context.Context) error {
				head, err := s.invoiceRepo.LatestForUpdate(txCtx)
				if err != nil {
					return fmt.Errorf("failed to read chain head: %w", err)
				}
				if err := s.link(inv, head); err != nil {
					return err
				}
				if err := s.invoiceRepo.Create(txCtx, inv); err != nil {
					return fmt.Errorf("failed to persist invoice %s: %w", inv.InvoiceNumber, err)
				}

				details := map[string]interface{}{
					"invoice_number":  inv.InvoiceNumber,
					"invoice_counter": inv.InvoiceCounter,
					"invoice_type":    inv.InvoiceType,
					"total_amount":    inv.TotalAmount.StringFixed(2),
					"invoice_hash":    inv.InvoiceHash,
				}
				if err := writeAuditLog(txCtx, s.auditRepo, userID, model.ActionIssueInvoice, inv.ID.String(), inv.InvoiceNumber, details); err != nil {
					return err
				}
				issued = inv
				return nil
			})
		})
	})
	switch {
	case errors.Is(err, lock.ErrNotObtained):
		return nil, apperror.NewIntegrityError(apperror.ReasonLockNotObtained, "invoice chain is busy, retry the request")
	case errors.Is(err, repository.ErrConflict):
		return nil, apperror.NewIntegrityError(apperror.ReasonInvoiceChainConflict,
			fmt.Sprintf("invoice chain kept changing after %d attempts", s.settings.MaxRetries))
	case err != nil:
		return nil, err
	}

	s.publisher.Publish(ctx, events.Info(events.InvoiceIssued, "tax invoice issued", map[string]any{
		"invoice_id":      issued.ID.String(),
		"invoice_number":  issued.InvoiceNumber,
		"invoice_counter": issued.InvoiceCounter,
		"total_amount":    issued.TotalAmount.StringFixed(2),
	}))
	return issued, nil
}

// cloneDraft copies everything computed before the chain position is known,
// so each retry starts from an unsaved invoice.
func cloneDraft(draft *model.TaxInvoice) *model.TaxInvoice {
	inv := *draft
	inv.Items = append([]model.TaxInvoiceLine(nil), draft.Items...)
	return &inv
}

func (s *taxInvoiceService) buildDraft(ctx context.Context, req IssueInvoiceRequest, issuedAt time.Time) (*model.TaxInvoice, error) {
	if req.InvoiceType == "" {
		req.InvoiceType = zatca.InvoiceTypeStandard
	}
	if s.settings.Seller.Name == "" || s.settings.Seller.VATNumber == "" {
		return nil, apperror.NewValidationError("", []apperror.FieldError{
			{Field: "seller", Code: apperror.CodeRequired, Message: "seller name and VAT number are not configured"},
		})
	}

	var orderID *uuid.UUID
	if req.OrderID != "" {
		id, err := parseID("order_id", req.OrderID)
		if err != nil {
			return nil, err
		}
		orderID = &id
		if len(req.Items) == 0 {
			if err := s.fillFromOrder(ctx, id, &req); err != nil {
				return nil, err
			}
		}
	}

	if fieldErrs := validateInvoiceRequest(req); len(fieldErrs) > 0 {
		return nil, apperror.NewValidationError("", fieldErrs)
	}
	if req.InvoiceType != zatca.InvoiceTypeStandard {
		if err := s.checkBillingReference(ctx, req.BillingReference); err != nil {
			return nil, err
		}
	}

	defaultRate, err := s.defaultRate(ctx, issuedAt)
	if err != nil {
		return nil, err
	}

	draft := &model.TaxInvoice{
		UUID:              uuid.New(),
		InvoiceType:       req.InvoiceType,
		TypeCode:          zatca.InvoiceTypeCode(req.InvoiceType),
		TransactionType:   zatca.TransactionType(req.TransactionType, req.CustomerVATNumber),
		BillingReference:  req.BillingReference,
		OrderID:           orderID,
		OrderNumber:       req.OrderNumber,
		BranchID:          req.BranchID,
		IssueDate:         issuedAt,
		SellerName:        s.settings.Seller.Name,
		SellerVATNumber:   s.settings.Seller.VATNumber,
		CustomerName:      req.CustomerName,
		CustomerPhone:     normalizePhone(req.CustomerPhone, s.settings.PhoneRegion),
		CustomerVATNumber: req.CustomerVATNumber,
		PaymentMethod:     req.PaymentMethod,
		PaymentMeansCode:  zatca.PaymentMeansCode(req.PaymentMethod),
	}

	subtotal, discounts, taxable, tax, total := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for i, it := range req.Items {
		rate := defaultRate
		if it.TaxRate != nil {
			rate = *it.TaxRate
		}
		line := computeInvoiceLine(i+1, it, rate)
		draft.Items = append(draft.Items, line)

		subtotal = subtotal.Add(it.UnitPrice.Mul(it.Quantity).Round(2))
		discounts = discounts.Add(line.DiscountAmount)
		taxable = taxable.Add(line.TaxableAmount)
		tax = tax.Add(line.TaxAmount)
		total = total.Add(line.TotalAmount)
	}
	draft.Subtotal = subtotal
	draft.DiscountTotal = discounts
	draft.TaxableAmount = taxable
	draft.TaxAmount = tax
	draft.TotalAmount = total
	return draft, nil
}

// checkBillingReference requires credit and debit notes to cite an issued
// standard invoice.
func (s *taxInvoiceService) checkBillingReference(ctx context.Context, number string) error {
	ref, err := s.invoiceRepo.FindByNumber(ctx, strings.TrimSpace(number))
	if repository.IsNotFound(err) {
		return apperror.NewNotFoundError(apperror.ReasonInvoiceNotFound, "referenced invoice")
	}
	if err != nil {
		return fmt.Errorf("failed to load referenced invoice: %w", err)
	}
	if ref.InvoiceType != zatca.InvoiceTypeStandard {
		return apperror.NewValidationError("", []apperror.FieldError{
			{Field: "billing_reference", Code: apperror.CodeInvalid, Message: fmt.Sprintf("%s is a %s, not an invoice", ref.InvoiceNumber, ref.InvoiceType)},
		})
	}
	return nil
}

// computeInvoiceLine applies taxable = price*qty - discount, tax = taxable*rate,
// total = taxable + tax, each rounded to 2 decimals.
func computeInvoiceLine(lineNo int, it InvoiceItemRequest, rate decimal.Decimal) model.TaxInvoiceLine {
	taxable := it.UnitPrice.Mul(it.Quantity).Sub(it.DiscountAmount).Round(2)
	tax := taxable.Mul(rate).Round(2)
	return model.TaxInvoiceLine{
		LineNo:         lineNo,
		ItemID:         it.ItemID,
		NameAr:         it.NameAr,
		Quantity:       it.Quantity,
		UnitPrice:      it.UnitPrice,
		DiscountAmount: it.DiscountAmount.Round(2),
		TaxRate:        rate,
		TaxableAmount:  taxable,
		TaxAmount:      tax,
		TotalAmount:    taxable.Add(tax),
	}
}

func (s *taxInvoiceService) defaultRate(ctx context.Context, on time.Time) (decimal.Decimal, error) {
	if s.rates == nil {
		return s.settings.DefaultTaxRate, nil
	}
	rate, ok, err := s.rates.ActiveRate(ctx, model.TaxTypeVAT, on)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to resolve tax rate: %w", err)
	}
	if !ok {
		return s.settings.DefaultTaxRate, nil
	}
	return rate, nil
}

func (s *taxInvoiceService) fillFromOrder(ctx context.Context, orderID uuid.UUID, req *IssueInvoiceRequest) error {
	order, err := s.orderRepo.FindByIDWithItems(ctx, orderID)
	if repository.IsNotFound(err) {
		return apperror.NewNotFoundError(apperror.ReasonOrderNotFound, "order")
	}
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}

	req.OrderNumber = firstNonEmpty(req.OrderNumber, order.OrderNumber)
	req.BranchID = firstNonEmpty(req.BranchID, order.BranchID)
	req.CustomerName = firstNonEmpty(req.CustomerName, order.CustomerName)
	req.CustomerPhone = firstNonEmpty(req.CustomerPhone, order.CustomerPhone)
	req.PaymentMethod = firstNonEmpty(req.PaymentMethod, order.PaymentMethod)
	for _, it := range order.Items {
		req.Items = append(req.Items, InvoiceItemRequest{
			ItemID:         it.ProductID.String(),
			NameAr:         it.NameAr,
			Quantity:       decimal.NewFromInt(int64(it.Quantity)),
			UnitPrice:      it.UnitPrice,
			DiscountAmount: it.DiscountAmount,
			TaxRate:        it.TaxRate,
		})
	}
	return nil
}

func validateInvoiceRequest(req IssueInvoiceRequest) []apperror.FieldError {
	var errs []apperror.FieldError
	if !zatca.ValidInvoiceType(req.InvoiceType) {
		errs = append(errs, apperror.FieldError{Field: "invoice_type", Code: apperror.CodeInvalid, Message: fmt.Sprintf("unknown invoice type %q", req.InvoiceType)})
	}
	if req.InvoiceType != zatca.InvoiceTypeStandard && strings.TrimSpace(req.BillingReference) == "" {
		errs = append(errs, apperror.FieldError{Field: "billing_reference", Code: apperror.CodeRequired, Message: "credit and debit notes must reference the original invoice"})
	}
	if !knownTransactionType(req.TransactionType) {
		errs = append(errs, apperror.FieldError{Field: "transaction_type", Code: apperror.CodeInvalid, Message: fmt.Sprintf("unknown transaction type %q", req.TransactionType)})
	}
	if len(req.Items) == 0 {
		errs = append(errs, apperror.FieldError{Field: "items", Code: apperror.CodeRequired, Message: "at least one item is required"})
	}
	for i, it := range req.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(it.NameAr) == "" {
			errs = append(errs, apperror.FieldError{Field: prefix + ".name_ar", Code: apperror.CodeRequired, Message: "name_ar is required"})
		}
		if !it.Quantity.IsPositive() {
			errs = append(errs, apperror.FieldError{Field: prefix + ".quantity", Code: apperror.CodeInvalidQuantity, Message: "quantity must be greater than zero"})
		}
		if it.UnitPrice.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: prefix + ".unit_price", Code: apperror.CodeInvalid, Message: "unit_price cannot be negative"})
		}
		if it.DiscountAmount.IsNegative() || it.DiscountAmount.GreaterThan(it.UnitPrice.Mul(it.Quantity)) {
			errs = append(errs, apperror.FieldError{Field: prefix + ".discount_amount", Code: apperror.CodeInvalid, Message: "discount_amount must be between zero and the line amount"})
		}
		if it.TaxRate != nil && (it.TaxRate.IsNegative() || it.TaxRate.GreaterThan(decimal.NewFromInt(1))) {
			errs = append(errs, apperror.FieldError{Field: prefix + ".tax_rate", Code: apperror.CodeInvalid, Message: "tax_rate must be a fraction between 0 and 1"})
		}
	}
	return errs
}

func knownTransactionType(t string) bool {
	switch strings.ToUpper(t) {
	case "", "B2B", "B2C", zatca.TransactionB2B, zatca.TransactionB2C:
		return true
	}
	return false
}

// link assigns the chain position after head and seals the invoice with its
// hash, QR payload and XML document.
func (s *taxInvoiceService) link(inv *model.TaxInvoice, head *model.TaxInvoice) error {
	inv.InvoiceCounter = 1
	inv.PreviousInvoiceHash = ""
	if head != nil {
		inv.InvoiceCounter = head.InvoiceCounter + 1
		inv.PreviousInvoiceHash = head.InvoiceHash
	}
	inv.InvoiceNumber = fmt.Sprintf(invoiceNumberFmt, inv.IssueDate.Format("20060102"), inv.InvoiceCounter)

	hash, err := zatca.ComputeHash(inv.PreviousInvoiceHash, chainInputOf(inv))
	if err != nil {
		return err
	}
	inv.InvoiceHash = hash

	qr, err := zatca.QRPayload{
		SellerName:   inv.SellerName,
		VATNumber:    inv.SellerVATNumber,
		Timestamp:    inv.IssueDate.UTC().Format(zatca.TimestampLayout),
		TotalWithVAT: inv.TotalAmount.StringFixed(2),
		VATAmount:    inv.TaxAmount.StringFixed(2),
		InvoiceHash:  inv.InvoiceHash,
	}.Encode()
	if err != nil {
		return apperror.NewValidationError("", []apperror.FieldError{
			{Field: "qr_code", Code: apperror.CodeInvalid, Message: err.Error()},
		})
	}
	inv.QRCode = qr

	xmlDoc, err := zatca.BuildXML(s.document(inv))
	if err != nil {
		return fmt.Errorf("failed to render invoice xml: %w", err)
	}
	inv.XMLContent = string(xmlDoc)
	return nil
}

func chainInputOf(inv *model.TaxInvoice) zatca.ChainInput {
	return zatca.NewChainInput(inv.UUID.String(), inv.InvoiceNumber, inv.InvoiceCounter, inv.IssueDate, inv.TotalAmount, inv.TaxAmount)
}

func (s *taxInvoiceService) document(inv *model.TaxInvoice) zatca.Document {
	doc := zatca.Document{
		InvoiceNumber:       inv.InvoiceNumber,
		UUID:                inv.UUID.String(),
		Counter:             inv.InvoiceCounter,
		IssuedAt:            inv.IssueDate,
		TypeCode:            inv.TypeCode,
		TransactionType:     inv.TransactionType,
		BillingReference:    inv.BillingReference,
		PreviousInvoiceHash: inv.PreviousInvoiceHash,
		QRCode:              inv.QRCode,
		Supplier:            s.settings.Seller,
		Customer: zatca.Party{
			Name:      inv.CustomerName,
			VATNumber: inv.CustomerVATNumber,
			Phone:     inv.CustomerPhone,
		},
		PaymentMeansCode: inv.PaymentMeansCode,
		Subtotal:         inv.Subtotal,
		DiscountTotal:    inv.DiscountTotal,
		TaxableAmount:    inv.TaxableAmount,
		TaxAmount:        inv.TaxAmount,
		TotalAmount:      inv.TotalAmount,
	}
	for _, l := range inv.Items {
		doc.Lines = append(doc.Lines, zatca.Line{
			ID:             l.LineNo,
			Name:           l.NameAr,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: l.DiscountAmount,
			TaxableAmount:  l.TaxableAmount,
			TaxRate:        l.TaxRate,
			TaxAmount:      l.TaxAmount,
			TotalAmount:    l.TotalAmount,
		})
	}
	return doc
}

// normalizePhone formats valid numbers as E.164 and keeps anything else as given.
func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

func (s *taxInvoiceService) GetInvoice(ctx context.Context, id string) (*model.TaxInvoice, error) {
	invoiceID, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if repository.IsNotFound(err) {
		return nil, apperror.NewNotFoundError(apperror.ReasonInvoiceNotFound, "invoice")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return inv, nil
}

func (s *taxInvoiceService) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]model.TaxInvoice, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	invoices, total, err := s.invoiceRepo.List(ctx, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, total, nil
}

var errChainBroken = errors.New("chain broken")

func (s *taxInvoiceService) VerifyChain(ctx context.Context) (ChainVerification, error) {
	res := ChainVerification{Valid: true}
	prevHash := ""
	expected := int64(1)

	err := s.invoiceRepo.Walk(ctx, chainVerifyBatch, func(batch []model.TaxInvoice) error {
		for i := range batch {
			inv := &batch[i]
			reason := ""
			switch {
			case inv.InvoiceCounter != expected:
				reason = fmt.Sprintf("expected counter %d, found %d", expected, inv.InvoiceCounter)
			case inv.PreviousInvoiceHash != prevHash:
				reason = "previous invoice hash does not match the preceding invoice"
			default:
				hash, err := zatca.ComputeHash(inv.PreviousInvoiceHash, chainInputOf(inv))
				if err != nil {
					return err
				}
				if hash != inv.InvoiceHash {
					reason = "stored hash does not match the invoice contents"
				}
			}
			if reason != "" {
				counter := inv.InvoiceCounter
				res.Valid = false
				res.BrokenCounter = &counter
				res.BrokenNumber = inv.InvoiceNumber
				res.Reason = reason
				return errChainBroken
			}

			res.Checked++
			prevHash = inv.InvoiceHash
			expected++
		}
		return nil
	})
	if err != nil && !errors.Is(err, errChainBroken) {
		return ChainVerification{}, fmt.Errorf("failed to walk invoice chain: %w", err)
	}
	return res, nil
}
