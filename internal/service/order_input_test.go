package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderLineInputNormalizesModifierShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []ModifierSelection
	}{
		{
			name: "canonical modifiers",
			body: `{"product_id":"p1","quantity":1,"modifiers":[{"modifier_id":"101","quantity":2}]}`,
			want: []ModifierSelection{{ModifierID: "101", Quantity: 2}},
		},
		{
			name: "selectedAddons objects",
			body: `{"product_id":"p1","quantity":1,"selectedAddons":[{"addonId":7},{"externalId":"syrup","quantity":3}]}`,
			want: []ModifierSelection{{ModifierID: "7", Quantity: 1}, {ModifierID: "syrup", Quantity: 3}},
		},
		{
			name: "addons as bare ids",
			body: `{"productId":"p1","quantity":1,"addons":["101", 102]}`,
			want: []ModifierSelection{{ModifierID: "101", Quantity: 1}, {ModifierID: "102", Quantity: 1}},
		},
		{
			name: "customization selectedAddons",
			body: `{"product_id":"p1","quantity":1,"customization":{"selectedAddons":[{"modifierId":"oat-milk"}]}}`,
			want: []ModifierSelection{{ModifierID: "oat-milk", Quantity: 1}},
		},
		{
			name: "first non-empty shape wins",
			body: `{"product_id":"p1","quantity":1,"selectedAddons":[],"addons":["a"],"customization":{"selectedAddons":["b"]}}`,
			want: []ModifierSelection{{ModifierID: "a", Quantity: 1}},
		},
		{
			name: "no modifiers",
			body: `{"product_id":"p1","quantity":1,"addons":null}`,
			want: nil,
		},
		{
			name: "entries without an id are dropped",
			body: `{"product_id":"p1","quantity":1,"addons":[{"quantity":2},"",{"id":"x","quantity":0.5}]}`,
			want: []ModifierSelection{{ModifierID: "x", Quantity: 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var line OrderLineInput
			require.NoError(t, json.Unmarshal([]byte(tt.body), &line))
			assert.Equal(t, "p1", line.ProductID)
			assert.Equal(t, tt.want, line.Modifiers)
		})
	}
}

func TestOrderLineInputDecodesPricing(t *testing.T) {
	var line OrderLineInput
	require.NoError(t, json.Unmarshal([]byte(`{"product_id":"p1","quantity":2,"unit_price":"15.50","discount_amount":1,"tax_rate":"0.15"}`), &line))

	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, "15.50", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "1.00", line.DiscountAmount.StringFixed(2))
	require.NotNil(t, line.TaxRate)
	assert.Equal(t, "0.15", line.TaxRate.String())
}

func TestOrderLineInputRejectsMalformedModifiers(t *testing.T) {
	var line OrderLineInput
	err := json.Unmarshal([]byte(`{"product_id":"p1","addons":{"id":"101"}}`), &line)
	assert.Error(t, err)
}
