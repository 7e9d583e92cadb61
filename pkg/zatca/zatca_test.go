package zatca

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRPayloadRoundTrip(t *testing.T) {
	in := QRPayload{
		SellerName:   "مقهى الشرفة",
		VATNumber:    "310122393500003",
		Timestamp:    "2026-10-18T09:30:00Z",
		TotalWithVAT: "34.50",
		VATAmount:    "4.50",
		InvoiceHash:  "q1bq3Y2f3M0kq0y2Zt7YcE0I0C5xqk3wD0l7e9aZr3Q=",
	}

	encoded, err := in.Encode()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	fields, err := DecodeTLV(raw)
	require.NoError(t, err)
	require.Len(t, fields, 6)
	for i, f := range fields {
		assert.Equal(t, byte(i+1), f.Tag)
	}
	// length byte counts utf8 bytes, not runes
	assert.Equal(t, byte(len(in.SellerName)), raw[1])

	out, err := DecodeQR(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeTLVRejectsLongValues(t *testing.T) {
	_, err := EncodeTLV(TLVField{Tag: TagSellerName, Value: strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, ErrValueTooLong)
}

func TestDecodeTLVTruncated(t *testing.T) {
	_, err := DecodeTLV([]byte{1, 5, 'a', 'b'})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestComputeHashChains(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	first := NewChainInput("u-1", "INV-20261018-000001", 1, at, decimal.RequireFromString("34.5"), decimal.RequireFromString("4.5"))

	h1, err := ComputeHash("", first)
	require.NoError(t, err)
	again, err := ComputeHash("", first)
	require.NoError(t, err)
	assert.Equal(t, h1, again)

	raw, err := base64.StdEncoding.DecodeString(h1)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	canonical, err := first.Canonical()
	require.NoError(t, err)
	assert.Equal(t, `{"uuid":"u-1","invoiceNumber":"INV-20261018-000001","invoiceCounter":1,"invoiceDate":"2026-10-18T09:30:00Z","totalAmount":"34.50","taxAmount":"4.50"}`, canonical)

	second := NewChainInput("u-2", "INV-20261018-000002", 2, at, decimal.NewFromInt(10), decimal.Zero)
	linked, err := ComputeHash(h1, second)
	require.NoError(t, err)
	unlinked, err := ComputeHash("", second)
	require.NoError(t, err)
	assert.NotEqual(t, linked, unlinked)

	tampered := first
	tampered.TotalAmount = "35.50"
	h1t, err := ComputeHash("", tampered)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h1t)
}

func TestInvoiceTypeCode(t *testing.T) {
	assert.Equal(t, "388", InvoiceTypeCode(InvoiceTypeStandard))
	assert.Equal(t, "381", InvoiceTypeCode(InvoiceTypeCreditNote))
	assert.Equal(t, "383", InvoiceTypeCode(InvoiceTypeDebitNote))
	assert.Equal(t, "388", InvoiceTypeCode("proforma"))
}

func TestTransactionType(t *testing.T) {
	assert.Equal(t, TransactionB2B, TransactionType("", "300000000000003"))
	assert.Equal(t, TransactionB2C, TransactionType("", " "))
	assert.Equal(t, TransactionB2C, TransactionType("b2c", "300000000000003"))
	assert.Equal(t, TransactionB2B, TransactionType(TransactionB2B, ""))
}

func TestPaymentMeansCode(t *testing.T) {
	cases := map[string]string{
		"cash":          "10",
		"CARD":          "30",
		"mada":          "30",
		"pos":           "30",
		"bank_transfer": "30",
		"wallet":        "48",
		"stc_pay":       "48",
		"prepaid_card":  "48",
		"barter":        "10",
	}
	for method, want := range cases {
		assert.Equal(t, want, PaymentMeansCode(method), method)
	}
}

func TestBuildXML(t *testing.T) {
	rate := decimal.RequireFromString("0.15")
	doc := Document{
		InvoiceNumber:       "INV-20261018-000002",
		UUID:                "6f1b8f36-2c44-4d1c-9b38-5c4b7f0d2a11",
		Counter:             2,
		IssuedAt:            time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
		TypeCode:            "381",
		TransactionType:     TransactionB2C,
		BillingReference:    "INV-20261018-000001",
		PreviousInvoiceHash: "prev-hash",
		QRCode:              "qr-blob",
		Supplier:            Party{Name: "Terrace Café", VATNumber: "310122393500003", CRNumber: "1010010000", Country: "SA"},
		Customer:            Party{Name: "Walk-in"},
		PaymentMeansCode:    "10",
		Lines: []Line{{
			ID: 1, Name: "لاتيه", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(15),
			TaxableAmount: decimal.NewFromInt(30), TaxRate: rate,
			TaxAmount: decimal.RequireFromString("4.5"), TotalAmount: decimal.RequireFromString("34.5"),
		}},
		Subtotal:      decimal.NewFromInt(30),
		TaxableAmount: decimal.NewFromInt(30),
		TaxAmount:     decimal.RequireFromString("4.5"),
		TotalAmount:   decimal.RequireFromString("34.5"),
	}

	out, err := BuildXML(doc)
	require.NoError(t, err)
	xmlStr := string(out)

	for _, want := range []string{
		`<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"`,
		`<cbc:InvoiceTypeCode name="0200000">381</cbc:InvoiceTypeCode>`,
		`<cac:BillingReference>`,
		`<cbc:UUID>2</cbc:UUID>`,
		`<cbc:EmbeddedDocumentBinaryObject mimeCode="text/plain">qr-blob</cbc:EmbeddedDocumentBinaryObject>`,
		`<cac:AccountingSupplierParty>`,
		`<cbc:CompanyID>310122393500003</cbc:CompanyID>`,
		`<cac:AccountingCustomerParty>`,
		`<cbc:PaymentMeansCode>10</cbc:PaymentMeansCode>`,
		`<cbc:TaxAmount currencyID="SAR">4.50</cbc:TaxAmount>`,
		`<cbc:PayableAmount currencyID="SAR">34.50</cbc:PayableAmount>`,
		`<cac:InvoiceLine>`,
		`<cbc:Percent>15.00</cbc:Percent>`,
	} {
		assert.Contains(t, xmlStr, want)
	}
	assert.Less(t, strings.Index(xmlStr, "<cac:PaymentMeans>"), strings.Index(xmlStr, "<cac:TaxTotal>"))
	assert.Less(t, strings.Index(xmlStr, "<cac:LegalMonetaryTotal>"), strings.Index(xmlStr, "<cac:InvoiceLine>"))
}
