package zatca

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// QR tags in the order the verification apps expect them.
const (
	TagSellerName   byte = 1
	TagVATNumber    byte = 2
	TagTimestamp    byte = 3
	TagTotalWithVAT byte = 4
	TagVATAmount    byte = 5
	TagInvoiceHash  byte = 6
)

var (
	ErrValueTooLong = errors.New("tlv value exceeds 255 bytes")
	ErrTruncated    = errors.New("tlv payload truncated")
)

type TLVField struct {
	Tag   byte
	Value string
}

// EncodeTLV writes each field as [tag][len][utf8 bytes].
func EncodeTLV(fields ...TLVField) ([]byte, error) {
	size := 0
	for _, f := range fields {
		if len(f.Value) > 255 {
			return nil, fmt.Errorf("tag %d: %w", f.Tag, ErrValueTooLong)
		}
		size += 2 + len(f.Value)
	}

	out := make([]byte, 0, size)
	for _, f := range fields {
		out = append(out, f.Tag, byte(len(f.Value)))
		out = append(out, f.Value...)
	}
	return out, nil
}

func DecodeTLV(b []byte) ([]TLVField, error) {
	var fields []TLVField
	for i := 0; i < len(b); {
		if i+2 > len(b) {
			return nil, ErrTruncated
		}
		tag, n := b[i], int(b[i+1])
		i += 2
		if i+n > len(b) {
			return nil, ErrTruncated
		}
		fields = append(fields, TLVField{Tag: tag, Value: string(b[i : i+n])})
		i += n
	}
	return fields, nil
}

// QRPayload is the scannable verification data printed on every invoice.
type QRPayload struct {
	SellerName   string
	VATNumber    string
	Timestamp    string
	TotalWithVAT string
	VATAmount    string
	InvoiceHash  string
}

func (p QRPayload) fields() []TLVField {
	fields := []TLVField{
		{Tag: TagSellerName, Value: p.SellerName},
		{Tag: TagVATNumber, Value: p.VATNumber},
		{Tag: TagTimestamp, Value: p.Timestamp},
		{Tag: TagTotalWithVAT, Value: p.TotalWithVAT},
		{Tag: TagVATAmount, Value: p.VATAmount},
	}
	if p.InvoiceHash != "" {
		fields = append(fields, TLVField{Tag: TagInvoiceHash, Value: p.InvoiceHash})
	}
	return fields
}

// Encode returns the base64 TLV string embedded in the QR code.
func (p QRPayload) Encode() (string, error) {
	raw, err := EncodeTLV(p.fields()...)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func DecodeQR(s string) (QRPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return QRPayload{}, fmt.Errorf("decode qr base64: %w", err)
	}
	fields, err := DecodeTLV(raw)
	if err != nil {
		return QRPayload{}, err
	}

	var p QRPayload
	for _, f := range fields {
		switch f.Tag {
		case TagSellerName:
			p.SellerName = f.Value
		case TagVATNumber:
			p.VATNumber = f.Value
		case TagTimestamp:
			p.Timestamp = f.Value
		case TagTotalWithVAT:
			p.TotalWithVAT = f.Value
		case TagVATAmount:
			p.VATAmount = f.Value
		case TagInvoiceHash:
			p.InvoiceHash = f.Value
		}
	}
	return p, nil
}
