package zatca

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	nsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	nsCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	Currency = "SAR"
)

// Party identifies the supplier or the customer on the document.
type Party struct {
	Name       string
	VATNumber  string
	CRNumber   string
	Street     string
	City       string
	PostalCode string
	Country    string
	Phone      string
}

type Line struct {
	ID             int
	Name           string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxableAmount  decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Document carries everything rendered into the UBL invoice.
type Document struct {
	InvoiceNumber       string
	UUID                string
	Counter             int64
	IssuedAt            time.Time
	TypeCode            string
	TransactionType     string
	BillingReference    string
	PreviousInvoiceHash string
	QRCode              string
	Supplier            Party
	Customer            Party
	PaymentMeansCode    string
	Lines               []Line
	Subtotal            decimal.Decimal
	DiscountTotal       decimal.Decimal
	TaxableAmount       decimal.Decimal
	TaxAmount           decimal.Decimal
	TotalAmount         decimal.Decimal
}

type amount struct {
	Currency string `xml:"currencyID,attr"`
	Value    string `xml:",chardata"`
}

func money(d decimal.Decimal) amount {
	return amount{Currency: Currency, Value: d.StringFixed(2)}
}

type typeCode struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type schemeID struct {
	Scheme string `xml:"schemeID,attr,omitempty"`
	Value  string `xml:",chardata"`
}

type binaryObject struct {
	MimeCode string `xml:"mimeCode,attr"`
	Value    string `xml:",chardata"`
}

type attachment struct {
	Object binaryObject `xml:"cbc:EmbeddedDocumentBinaryObject"`
}

type docReference struct {
	ID         string      `xml:"cbc:ID"`
	UUID       string      `xml:"cbc:UUID,omitempty"`
	Attachment *attachment `xml:"cac:Attachment,omitempty"`
}

type billingReference struct {
	ID string `xml:"cac:InvoiceDocumentReference>cbc:ID"`
}

type taxScheme struct {
	ID string `xml:"cbc:ID"`
}

type postalAddress struct {
	Street     string `xml:"cbc:StreetName,omitempty"`
	City       string `xml:"cbc:CityName,omitempty"`
	PostalZone string `xml:"cbc:PostalZone,omitempty"`
	Country    string `xml:"cac:Country>cbc:IdentificationCode,omitempty"`
}

type partyTaxScheme struct {
	CompanyID string    `xml:"cbc:CompanyID"`
	TaxScheme taxScheme `xml:"cac:TaxScheme"`
}

type party struct {
	Identification *schemeID       `xml:"cac:PartyIdentification>cbc:ID,omitempty"`
	Address        postalAddress   `xml:"cac:PostalAddress"`
	TaxScheme      *partyTaxScheme `xml:"cac:PartyTaxScheme,omitempty"`
	LegalName      string          `xml:"cac:PartyLegalEntity>cbc:RegistrationName"`
	Telephone      string          `xml:"cac:Contact>cbc:Telephone,omitempty"`
}

type taxCategory struct {
	ID        string    `xml:"cbc:ID"`
	Percent   string    `xml:"cbc:Percent"`
	TaxScheme taxScheme `xml:"cac:TaxScheme"`
}

type taxSubtotal struct {
	TaxableAmount amount      `xml:"cbc:TaxableAmount"`
	TaxAmount     amount      `xml:"cbc:TaxAmount"`
	Category      taxCategory `xml:"cac:TaxCategory"`
}

type taxTotal struct {
	TaxAmount      amount        `xml:"cbc:TaxAmount"`
	RoundingAmount *amount       `xml:"cbc:RoundingAmount,omitempty"`
	Subtotals      []taxSubtotal `xml:"cac:TaxSubtotal,omitempty"`
}

type monetaryTotal struct {
	LineExtension  amount `xml:"cbc:LineExtensionAmount"`
	TaxExclusive   amount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusive   amount `xml:"cbc:TaxInclusiveAmount"`
	AllowanceTotal amount `xml:"cbc:AllowanceTotalAmount"`
	Payable        amount `xml:"cbc:PayableAmount"`
}

type quantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

type item struct {
	Name     string      `xml:"cbc:Name"`
	Category taxCategory `xml:"cac:ClassifiedTaxCategory"`
}

type invoiceLine struct {
	ID            int      `xml:"cbc:ID"`
	Quantity      quantity `xml:"cbc:InvoicedQuantity"`
	LineExtension amount   `xml:"cbc:LineExtensionAmount"`
	TaxTotal      taxTotal `xml:"cac:TaxTotal"`
	Item          item     `xml:"cac:Item"`
	Price         amount   `xml:"cac:Price>cbc:PriceAmount"`
}

type ublInvoice struct {
	XMLName          xml.Name          `xml:"Invoice"`
	Xmlns            string            `xml:"xmlns,attr"`
	XmlnsCAC         string            `xml:"xmlns:cac,attr"`
	XmlnsCBC         string            `xml:"xmlns:cbc,attr"`
	ProfileID        string            `xml:"cbc:ProfileID"`
	ID               string            `xml:"cbc:ID"`
	UUID             string            `xml:"cbc:UUID"`
	IssueDate        string            `xml:"cbc:IssueDate"`
	IssueTime        string            `xml:"cbc:IssueTime"`
	TypeCode         typeCode          `xml:"cbc:InvoiceTypeCode"`
	DocumentCurrency string            `xml:"cbc:DocumentCurrencyCode"`
	TaxCurrency      string            `xml:"cbc:TaxCurrencyCode"`
	BillingReference *billingReference `xml:"cac:BillingReference,omitempty"`
	References       []docReference    `xml:"cac:AdditionalDocumentReference"`
	Supplier         party             `xml:"cac:AccountingSupplierParty>cac:Party"`
	Customer         party             `xml:"cac:AccountingCustomerParty>cac:Party"`
	PaymentMeansCode string            `xml:"cac:PaymentMeans>cbc:PaymentMeansCode"`
	TaxTotal         taxTotal          `xml:"cac:TaxTotal"`
	MonetaryTotal    monetaryTotal     `xml:"cac:LegalMonetaryTotal"`
	Lines            []invoiceLine     `xml:"cac:InvoiceLine"`
}

func vatCategory(rate decimal.Decimal) taxCategory {
	id := "S"
	if rate.IsZero() {
		id = "Z"
	}
	return taxCategory{
		ID:        id,
		Percent:   rate.Mul(decimal.NewFromInt(100)).StringFixed(2),
		TaxScheme: taxScheme{ID: "VAT"},
	}
}

func toParty(p Party, scheme string) party {
	out := party{
		Address: postalAddress{
			Street:     p.Street,
			City:       p.City,
			PostalZone: p.PostalCode,
			Country:    p.Country,
		},
		LegalName: p.Name,
		Telephone: p.Phone,
	}
	if p.CRNumber != "" {
		out.Identification = &schemeID{Scheme: scheme, Value: p.CRNumber}
	}
	if p.VATNumber != "" {
		out.TaxScheme = &partyTaxScheme{CompanyID: p.VATNumber, TaxScheme: taxScheme{ID: "VAT"}}
	}
	return out
}

// BuildXML renders doc as a UBL 2.1 invoice.
func BuildXML(doc Document) ([]byte, error) {
	issued := doc.IssuedAt.UTC()
	inv := ublInvoice{
		Xmlns:            nsInvoice,
		XmlnsCAC:         nsCAC,
		XmlnsCBC:         nsCBC,
		ProfileID:        "reporting:1.0",
		ID:               doc.InvoiceNumber,
		UUID:             doc.UUID,
		IssueDate:        issued.Format("2006-01-02"),
		IssueTime:        issued.Format("15:04:05"),
		TypeCode:         typeCode{Name: doc.TransactionType, Value: doc.TypeCode},
		DocumentCurrency: Currency,
		TaxCurrency:      Currency,
		References: []docReference{
			{ID: "ICV", UUID: fmt.Sprintf("%d", doc.Counter)},
			{ID: "PIH", Attachment: &attachment{Object: binaryObject{MimeCode: "text/plain", Value: doc.PreviousInvoiceHash}}},
			{ID: "QR", Attachment: &attachment{Object: binaryObject{MimeCode: "text/plain", Value: doc.QRCode}}},
		},
		Supplier:         toParty(doc.Supplier, "CRN"),
		Customer:         toParty(doc.Customer, "NAT"),
		PaymentMeansCode: doc.PaymentMeansCode,
		MonetaryTotal: monetaryTotal{
			LineExtension:  money(doc.TaxableAmount),
			TaxExclusive:   money(doc.TaxableAmount),
			TaxInclusive:   money(doc.TotalAmount),
			AllowanceTotal: money(doc.DiscountTotal),
			Payable:        money(doc.TotalAmount),
		},
	}
	if doc.BillingReference != "" {
		inv.BillingReference = &billingReference{ID: doc.BillingReference}
	}

	// one TaxSubtotal per distinct rate, in first-seen order
	byRate := map[string]int{}
	var subtotals []taxSubtotal
	var taxableByRate, taxByRate []decimal.Decimal
	for _, l := range doc.Lines {
		key := l.TaxRate.String()
		idx, ok := byRate[key]
		if !ok {
			idx = len(subtotals)
			byRate[key] = idx
			subtotals = append(subtotals, taxSubtotal{Category: vatCategory(l.TaxRate)})
			taxableByRate = append(taxableByRate, decimal.Zero)
			taxByRate = append(taxByRate, decimal.Zero)
		}
		taxableByRate[idx] = taxableByRate[idx].Add(l.TaxableAmount)
		taxByRate[idx] = taxByRate[idx].Add(l.TaxAmount)

		inv.Lines = append(inv.Lines, invoiceLine{
			ID:            l.ID,
			Quantity:      quantity{UnitCode: "PCE", Value: l.Quantity.String()},
			LineExtension: money(l.TaxableAmount),
			TaxTotal: taxTotal{
				TaxAmount:      money(l.TaxAmount),
				RoundingAmount: &amount{Currency: Currency, Value: l.TotalAmount.StringFixed(2)},
			},
			Item:  item{Name: l.Name, Category: vatCategory(l.TaxRate)},
			Price: money(l.UnitPrice),
		})
	}
	for i := range subtotals {
		subtotals[i].TaxableAmount = money(taxableByRate[i])
		subtotals[i].TaxAmount = money(taxByRate[i])
	}
	inv.TaxTotal = taxTotal{TaxAmount: money(doc.TaxAmount), Subtotals: subtotals}

	body, err := xml.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal ubl invoice: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
