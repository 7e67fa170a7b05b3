package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoice_UnknownFieldsSurvive(t *testing.T) {
	input := `{
		"id": "INV-1",
		"vendorName": "Supplier GmbH",
		"date": "2024-01-15",
		"totalAmount": 2400,
		"currency": "EUR",
		"lineItems": [{"description": "Transport fee", "quantity": 1, "price": 50, "total": 50}],
		"costCenter": "K-100",
		"approver": {"name": "Ada"}
	}`

	var inv Invoice
	require.NoError(t, json.Unmarshal([]byte(input), &inv))

	assert.Equal(t, "INV-1", inv.ID)
	assert.Len(t, inv.LineItems, 1)
	require.Len(t, inv.Extra, 2)
	assert.JSONEq(t, `"K-100"`, string(inv.Extra["costCenter"]))

	out, err := json.Marshal(inv)
	require.NoError(t, err)

	var roundTrip map[string]any
	require.NoError(t, json.Unmarshal(out, &roundTrip))
	assert.Equal(t, "K-100", roundTrip["costCenter"])
	assert.Equal(t, map[string]any{"name": "Ada"}, roundTrip["approver"])
	assert.Equal(t, "Supplier GmbH", roundTrip["vendorName"])
}

func TestInvoice_KnownFieldsWinOverExtra(t *testing.T) {
	inv := Invoice{
		ID:    "INV-2",
		Extra: map[string]json.RawMessage{"id": json.RawMessage(`"stale"`)},
	}

	out, err := json.Marshal(inv)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "INV-2", decoded["id"])
}

func TestInvoice_MissingLineItemsDecodeEmpty(t *testing.T) {
	var inv Invoice
	require.NoError(t, json.Unmarshal([]byte(`{"id": "INV-3"}`), &inv))
	assert.NotNil(t, inv.LineItems)
	assert.Empty(t, inv.LineItems)
	assert.Nil(t, inv.Extra)
}

func TestInvoice_Fingerprint(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		want  string
	}{
		{name: "whole amount", total: 2400, want: "Parts AG|2024-01-15|2400"},
		{name: "cents", total: 99.99, want: "Parts AG|2024-01-15|99.99"},
		{name: "zero", total: 0, want: "Parts AG|2024-01-15|0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := Invoice{VendorName: "Parts AG", Date: "2024-01-15", TotalAmount: tt.total}
			assert.Equal(t, tt.want, inv.Fingerprint())
		})
	}
}

func TestInvoice_CloneIsDeep(t *testing.T) {
	tax := 19.0
	orig := Invoice{
		ID:        "INV-4",
		TaxAmount: &tax,
		LineItems: []LineItem{{Description: "Bolts", SKU: "B-1"}},
		Extra:     map[string]json.RawMessage{"note": json.RawMessage(`"x"`)},
	}

	clone := orig.Clone()
	*clone.TaxAmount = 0
	clone.LineItems[0].SKU = "B-2"
	clone.Extra["note"] = json.RawMessage(`"y"`)

	assert.InDelta(t, 19.0, *orig.TaxAmount, 1e-9)
	assert.Equal(t, "B-1", orig.LineItems[0].SKU)
	assert.JSONEq(t, `"x"`, string(orig.Extra["note"]))
}

func TestLineItem_UnknownFieldsSurvive(t *testing.T) {
	input := `{"id": "INV-5", "lineItems": [
		{"description": "Transport fee", "quantity": 1, "price": 50, "total": 50, "costCenter": "K-7", "taxCode": {"de": "A1"}},
		{"description": "Bolts", "sku": "B-1", "quantity": 2, "price": 1, "total": 2}
	]}`

	var inv Invoice
	require.NoError(t, json.Unmarshal([]byte(input), &inv))
	require.Len(t, inv.LineItems, 2)
	assert.Nil(t, inv.Extra)
	assert.Equal(t, "Transport fee", inv.LineItems[0].Description)
	require.Len(t, inv.LineItems[0].Extra, 2)
	assert.JSONEq(t, `"K-7"`, string(inv.LineItems[0].Extra["costCenter"]))
	assert.Nil(t, inv.LineItems[1].Extra)

	out, err := json.Marshal(inv)
	require.NoError(t, err)

	var roundTrip struct {
		LineItems []map[string]any `json:"lineItems"`
	}
	require.NoError(t, json.Unmarshal(out, &roundTrip))
	require.Len(t, roundTrip.LineItems, 2)
	assert.Equal(t, "K-7", roundTrip.LineItems[0]["costCenter"])
	assert.Equal(t, map[string]any{"de": "A1"}, roundTrip.LineItems[0]["taxCode"])
	assert.Equal(t, "B-1", roundTrip.LineItems[1]["sku"])
	assert.NotContains(t, roundTrip.LineItems[1], "costCenter")
}

func TestLineItem_KnownFieldsWinOverExtra(t *testing.T) {
	item := LineItem{
		Description: "Bolts",
		Extra:       map[string]json.RawMessage{"description": json.RawMessage(`"stale"`)},
	}

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"description": "Bolts", "quantity": 0, "price": 0, "total": 0}`, string(out))
}

func TestInvoice_CloneCopiesLineItemExtra(t *testing.T) {
	orig := Invoice{LineItems: []LineItem{{
		Description: "Bolts",
		Extra:       map[string]json.RawMessage{"costCenter": json.RawMessage(`"K-7"`)},
	}}}

	clone := orig.Clone()
	clone.LineItems[0].Extra["costCenter"] = json.RawMessage(`"K-8"`)

	assert.JSONEq(t, `"K-7"`, string(orig.LineItems[0].Extra["costCenter"]))
}

func TestInvoice_HasTax(t *testing.T) {
	zero, some := 0.0, 3.5
	assert.False(t, Invoice{}.HasTax())
	assert.False(t, Invoice{TaxAmount: &zero}.HasTax())
	assert.True(t, Invoice{TaxAmount: &some}.HasTax())
}
