package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ModifierSelection is the canonical modifier reference used by every costing step.
type ModifierSelection struct {
	ModifierID string `json:"modifier_id"`
	Quantity   int    `json:"quantity"`
}

// OrderLineInput is one POS order line. Modifiers arrive under selectedAddons,
// addons or customization.selectedAddons and are normalized while decoding.
type OrderLineInput struct {
	ProductID      string              `json:"product_id"`
	Quantity       int                 `json:"quantity"`
	UnitPrice      decimal.Decimal     `json:"unit_price"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TaxRate        *decimal.Decimal    `json:"tax_rate,omitempty"`
	Modifiers      []ModifierSelection `json:"modifiers"`
}

type rawOrderLine struct {
	ProductID      string           `json:"product_id"`
	ProductIDCamel string           `json:"productId"`
	Quantity       int              `json:"quantity"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TaxRate        *decimal.Decimal `json:"tax_rate"`
	Modifiers      json.RawMessage  `json:"modifiers"`
	SelectedAddons json.RawMessage  `json:"selectedAddons"`
	Addons         json.RawMessage  `json:"addons"`
	Customization  *struct {
		SelectedAddons json.RawMessage `json:"selectedAddons"`
	} `json:"customization"`
}

func (l *OrderLineInput) UnmarshalJSON(data []byte) error {
	var raw rawOrderLine
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*l = OrderLineInput{
		ProductID:      raw.ProductID,
		Quantity:       raw.Quantity,
		UnitPrice:      raw.UnitPrice,
		DiscountAmount: raw.DiscountAmount,
		TaxRate:        raw.TaxRate,
	}
	if l.ProductID == "" {
		l.ProductID = raw.ProductIDCamel
	}

	candidates := []json.RawMessage{raw.Modifiers, raw.SelectedAddons, raw.Addons}
	if raw.Customization != nil {
		candidates = append(candidates, raw.Customization.SelectedAddons)
	}
	for _, c := range candidates {
		selections, err := decodeSelections(c)
		if err != nil {
			return err
		}
		if len(selections) > 0 {
			l.Modifiers = selections
			break
		}
	}
	return nil
}

type modifierRef struct {
	ModifierID      flexibleID `json:"modifier_id"`
	ID              flexibleID `json:"id"`
	AddonID         flexibleID `json:"addonId"`
	ModifierIDCamel flexibleID `json:"modifierId"`
	ExternalID      flexibleID `json:"externalId"`
	Quantity        *float64   `json:"quantity"`
}

func decodeSelections(raw json.RawMessage) ([]ModifierSelection, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("modifiers must be a list: %w", err)
	}

	out := make([]ModifierSelection, 0, len(elems))
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) > 0 && e[0] != '{' {
			var id flexibleID
			if err := json.Unmarshal(e, &id); err != nil {
				return nil, fmt.Errorf("invalid modifier reference %s: %w", e, err)
			}
			if id != "" {
				out = append(out, ModifierSelection{ModifierID: string(id), Quantity: 1})
			}
			continue
		}

		var ref modifierRef
		if err := json.Unmarshal(e, &ref); err != nil {
			return nil, fmt.Errorf("invalid modifier reference %s: %w", e, err)
		}
		id := firstNonEmpty(string(ref.ModifierID), string(ref.ID), string(ref.AddonID), string(ref.ModifierIDCamel), string(ref.ExternalID))
		if id == "" {
			continue
		}
		qty := 1
		if ref.Quantity != nil && *ref.Quantity >= 1 {
			qty = int(*ref.Quantity)
		}
		out = append(out, ModifierSelection{ModifierID: id, Quantity: qty})
	}
	return out, nil
}

// flexibleID accepts ids sent either as JSON strings or numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
