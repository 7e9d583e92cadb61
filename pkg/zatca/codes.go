package zatca

import "strings"

const (
	InvoiceTypeStandard   = "standard"
	InvoiceTypeCreditNote = "credit_note"
	InvoiceTypeDebitNote  = "debit_note"
)

// Transaction type flags carried in the InvoiceTypeCode name attribute.
const (
	TransactionB2B = "0100000"
	TransactionB2C = "0200000"
)

const (
	PaymentCash   = "10"
	PaymentCard   = "30"
	PaymentWallet = "48"
)

// InvoiceTypeCode maps an invoice kind to its UN/CEFACT document code.
func InvoiceTypeCode(kind string) string {
	switch kind {
	case InvoiceTypeCreditNote:
		return "381"
	case InvoiceTypeDebitNote:
		return "383"
	default:
		return "388"
	}
}

func ValidInvoiceType(kind string) bool {
	switch kind {
	case InvoiceTypeStandard, InvoiceTypeCreditNote, InvoiceTypeDebitNote:
		return true
	}
	return false
}

// TransactionType returns explicit when it is a known flag, otherwise infers
// B2B from the presence of a customer VAT number.
func TransactionType(explicit, customerVATNumber string) string {
	switch explicit {
	case TransactionB2B, TransactionB2C:
		return explicit
	case "b2b", "B2B":
		return TransactionB2B
	case "b2c", "B2C":
		return TransactionB2C
	}
	if strings.TrimSpace(customerVATNumber) != "" {
		return TransactionB2B
	}
	return TransactionB2C
}

var paymentMeans = map[string]string{
	"cash":          PaymentCash,
	"card":          PaymentCard,
	"mada":          PaymentCard,
	"visa":          PaymentCard,
	"mastercard":    PaymentCard,
	"pos":           PaymentCard,
	"bank":          PaymentCard,
	"bank_transfer": PaymentCard,
	"wallet":        PaymentWallet,
	"stc_pay":       PaymentWallet,
	"apple_pay":     PaymentWallet,
	"prepaid":       PaymentWallet,
	"prepaid_card":  PaymentWallet,
	"loyalty_card":  PaymentWallet,
}

// PaymentMeansCode maps a POS payment method to its UNTDID 4461 code. Unknown methods fall back to cash.
func PaymentMeansCode(method string) string {
	if code, ok := paymentMeans[strings.ToLower(strings.TrimSpace(method))]; ok {
		return code
	}
	return PaymentCash
}
