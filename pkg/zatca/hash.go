package zatca

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is used for both the canonical hash input and the QR timestamp.
const TimestampLayout = "2006-01-02T15:04:05Z"

// ChainInput is the canonical subset of an invoice covered by its hash.
// Field order is fixed by the struct declaration.
type ChainInput struct {
	UUID           string `json:"uuid"`
	InvoiceNumber  string `json:"invoiceNumber"`
	InvoiceCounter int64  `json:"invoiceCounter"`
	InvoiceDate    string `json:"invoiceDate"`
	TotalAmount    string `json:"totalAmount"`
	TaxAmount      string `json:"taxAmount"`
}

func NewChainInput(uuid, number string, counter int64, issuedAt time.Time, total, tax decimal.Decimal) ChainInput {
	return ChainInput{
		UUID:           uuid,
		InvoiceNumber:  number,
		InvoiceCounter: counter,
		InvoiceDate:    issuedAt.UTC().Format(TimestampLayout),
		TotalAmount:    total.StringFixed(2),
		TaxAmount:      tax.StringFixed(2),
	}
}

func (c ChainInput) Canonical() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("canonicalize invoice: %w", err)
	}
	return string(b), nil
}

// ComputeHash returns base64(SHA-256(previousHash || canonical(in))).
// previousHash is empty for the first invoice of the chain.
func ComputeHash(previousHash string, in ChainInput) (string, error) {
	canonical, err := in.Canonical()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(previousHash + canonical))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}
